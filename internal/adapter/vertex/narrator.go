// Package vertex 用 google.golang.org/genai 生成指南，支持 Vertex AI 和 Gemini API 两种后端
package vertex

import (
	"context"
	"strings"

	"repo-onboarder/internal/adapter/prompt"
	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"

	"google.golang.org/genai"
)

// Config 是 genai 客户端配置
// 填了 Project 就走 Vertex AI (使用 ADC 凭证)，否则用 APIKey 走 Gemini API
type Config struct {
	Project  string
	Location string
	APIKey   string
	Model    string
	BaseURL  string // 测试或代理时覆盖 API 地址
}

// Narrator 实现了 port.Narrator 接口
type Narrator struct {
	client *genai.Client
	model  string
}

func NewNarrator(ctx context.Context, cfg Config) (*Narrator, error) {
	cc := &genai.ClientConfig{}
	if cfg.Project != "" {
		location := cfg.Location
		if location == "" {
			location = "us-central1"
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = location
	} else {
		if cfg.APIKey == "" {
			return nil, common.NewError(common.ErrCodeInvalidInput, "需要 VERTEX_PROJECT 或 GEMINI_API_KEY")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "初始化 genai 客户端失败", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Narrator{client: client, model: model}, nil
}

// Model 返回模型名
func (n *Narrator) Model() string {
	return n.model
}

// GenerateGuide 根据上下文包生成 Markdown 格式的入职指南
func (n *Narrator) GenerateGuide(ctx context.Context, bundle *domain.ContextBundle) (string, error) {
	resp, err := n.client.Models.GenerateContent(ctx, n.model,
		genai.Text(prompt.BuildGuidePrompt(bundle)),
		&genai.GenerateContentConfig{MaxOutputTokens: prompt.MaxOutputTokens},
	)
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", common.NewError(common.ErrCodeAIProcessing, "AI 返回内容为空")
	}
	return prompt.CleanGuide(text), nil
}
