package gemini

import (
	"context"
	"testing"

	"repo-onboarder/internal/common"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: parts}},
		},
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name        string
		resp        *genai.GenerateContentResponse
		want        string
		expectError bool
	}{
		{
			name: "单个文本片段",
			resp: candidate(genai.Text("# Guide")),
			want: "# Guide",
		},
		{
			name: "多个片段按顺序拼接",
			resp: candidate(genai.Text("# Guide\n"), genai.Text("## Tech Stack")),
			want: "# Guide\n## Tech Stack",
		},
		{
			name: "忽略非文本片段",
			resp: candidate(genai.Blob{MIMEType: "image/png"}, genai.Text("text")),
			want: "text",
		},
		{
			name:        "空响应",
			resp:        &genai.GenerateContentResponse{},
			expectError: true,
		},
		{
			name:        "nil 响应",
			resp:        nil,
			expectError: true,
		},
		{
			name:        "只有空白",
			resp:        candidate(genai.Text("  \n")),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractText(tt.resp)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, common.IsCode(err, common.ErrCodeAIProcessing))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGeminiNarrator_MissingKey(t *testing.T) {
	n, err := NewGeminiNarrator(context.Background(), "", "")

	assert.Nil(t, n)
	assert.True(t, common.IsCode(err, common.ErrCodeInvalidInput))
}
