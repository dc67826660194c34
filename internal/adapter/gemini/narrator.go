package gemini

import (
	"context"
	"fmt"
	"strings"

	"repo-onboarder/internal/adapter/prompt"
	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel 是默认使用的 Gemini 模型
const DefaultModel = "gemini-2.5-flash"

// GeminiNarrator 实现了 port.Narrator 接口 (Google AI Studio API Key 方式)
type GeminiNarrator struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

func NewGeminiNarrator(ctx context.Context, apiKey, modelName string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "GEMINI_API_KEY 未设置")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "初始化 Gemini 客户端失败", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetMaxOutputTokens(prompt.MaxOutputTokens)
	// 指南是 Markdown 正文，不要求 JSON
	model.ResponseMIMEType = "text/plain"

	return &GeminiNarrator{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

// Model 返回模型名
func (g *GeminiNarrator) Model() string {
	return g.modelName
}

// Close 释放底层连接
func (g *GeminiNarrator) Close() error {
	return g.client.Close()
}

// GenerateGuide 根据上下文包生成 Markdown 格式的入职指南
func (g *GeminiNarrator) GenerateGuide(ctx context.Context, bundle *domain.ContextBundle) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt.BuildGuidePrompt(bundle)))
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return prompt.CleanGuide(text), nil
}

// extractText 拼接第一个候选结果中的所有文本片段
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", common.NewError(common.ErrCodeAIProcessing, "AI 返回内容为空")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		reason := resp.Candidates[0].FinishReason
		return "", common.NewError(common.ErrCodeAIProcessing, fmt.Sprintf("AI 返回内容为空 (finish reason: %v)", reason))
	}
	return b.String(), nil
}
