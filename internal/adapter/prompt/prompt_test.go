package prompt

import (
	"strings"
	"testing"

	"repo-onboarder/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildGuidePrompt(t *testing.T) {
	bundle := &domain.ContextBundle{
		Name:            "hello",
		Description:     "Hello world service",
		PrimaryLanguage: "Go",
		StarCount:       42,
		ReadmeExcerpt:   "# Hello",
		Files: []domain.FileContent{
			{Name: "main.go", Content: "package main"},
			{Name: "go.mod", Content: "module hello"},
		},
	}

	p := BuildGuidePrompt(bundle)

	assert.Contains(t, p, "Repository Name: hello\n")
	assert.Contains(t, p, "Description: Hello world service\n")
	assert.Contains(t, p, "Primary Language: Go\n")
	assert.Contains(t, p, "GitHub Stars: 42\n")
	assert.Contains(t, p, "README:\n# Hello")
	assert.Contains(t, p, "--- main.go ---\npackage main")
	assert.Less(t, strings.Index(p, "--- main.go ---"), strings.Index(p, "--- go.mod ---"))
	for i, s := range GuideSections {
		assert.Contains(t, p, s.Title)
		if i > 0 {
			assert.Less(t, strings.Index(p, GuideSections[i-1].Title), strings.Index(p, s.Title))
		}
	}
	assert.NotContains(t, p, "no source files")
}

func TestBuildGuidePrompt_NoFiles(t *testing.T) {
	p := BuildGuidePrompt(&domain.ContextBundle{Name: "empty"})
	assert.Contains(t, p, "(no source files could be read)")
}

func TestCleanGuide(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"普通 Markdown", "# Guide\n\ntext", "# Guide\n\ntext"},
		{"去掉首尾空白", "\n\n# Guide\n", "# Guide"},
		{"去掉 markdown 围栏", "```markdown\n# Guide\n```", "# Guide"},
		{"去掉无语言围栏", "```\n# Guide\n```\n", "# Guide"},
		{"正文中的代码块保留", "# Guide\n```go\nx := 1\n```", "# Guide\n```go\nx := 1\n```"},
		{"只有围栏", "``````", "``````"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanGuide(tt.input))
		})
	}
}
