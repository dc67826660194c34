// Package prompt 把上下文包渲染成给大模型的入职指南提示词
package prompt

import (
	"fmt"
	"strings"

	"repo-onboarder/internal/domain"
)

// MaxOutputTokens 是生成指南时的输出上限
const MaxOutputTokens = 2048

// GuideSections 是指南必须包含的章节
var GuideSections = []struct {
	Title string
	Hint  string
}{
	{"What This Project Does", "explain the purpose in plain English"},
	{"Tech Stack", "list the languages, frameworks, and tools used"},
	{"Project Structure", "explain what the key files and folders do"},
	{"How To Get Started", "setup and run instructions based on what you see"},
	{"Key Concepts", "explain the most important patterns or concepts a new engineer needs to understand"},
	{"Things To Watch Out For", "any gotchas, quirks, or important notes"},
}

// BuildGuidePrompt 渲染提示词；文件按上下文包中的顺序出现
func BuildGuidePrompt(bundle *domain.ContextBundle) string {
	var b strings.Builder

	b.WriteString("You are a senior software engineer writing an onboarding guide for a new engineer joining a project.\n\n")
	b.WriteString("Here is the information about the repository:\n\n")
	fmt.Fprintf(&b, "Repository Name: %s\n", bundle.Name)
	fmt.Fprintf(&b, "Description: %s\n", bundle.Description)
	fmt.Fprintf(&b, "Primary Language: %s\n", bundle.PrimaryLanguage)
	fmt.Fprintf(&b, "GitHub Stars: %d\n\n", bundle.StarCount)

	b.WriteString("README:\n")
	b.WriteString(bundle.ReadmeExcerpt)
	b.WriteString("\n\nSource Files:\n")
	for _, f := range bundle.Files {
		fmt.Fprintf(&b, "\n\n--- %s ---\n%s", f.Name, f.Content)
	}
	if len(bundle.Files) == 0 {
		b.WriteString("(no source files could be read)")
	}

	b.WriteString("\n\nPlease write a clear, friendly, and thorough onboarding guide in Markdown format. Include these sections:\n\n")
	for i, s := range GuideSections {
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, s.Title, s.Hint)
	}
	b.WriteString("\nWrite it as if you're a friendly senior engineer helping a new teammate on their first day.\n")

	return b.String()
}

// CleanGuide 去掉模型有时包在最外层的 ```markdown 代码围栏
func CleanGuide(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	firstNL := strings.IndexByte(text, '\n')
	if firstNL < 0 {
		return text
	}
	return strings.TrimSpace(text[firstNL+1 : len(text)-3])
}
