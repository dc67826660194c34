package service

import (
	"strings"

	"repo-onboarder/internal/domain"
)

// 元信息缺失时使用的默认值
const (
	DefaultDescription    = "No description provided."
	DefaultLanguage       = "Unknown"
	DefaultReadme         = "No README found."
	DefaultMaxReadmeChars = 3000
)

// Assemble 把元信息、README 和抓取结果拼成上下文包
// 纯函数：不做 I/O，同样的输入总是得到同样的输出
func Assemble(ref domain.RepoRef, meta *domain.RepoMetadata, readme string, files []domain.SelectedFile, maxReadmeChars int) domain.ContextBundle {
	if maxReadmeChars <= 0 {
		maxReadmeChars = DefaultMaxReadmeChars
	}
	if meta == nil {
		meta = &domain.RepoMetadata{}
	}

	bundle := domain.ContextBundle{
		Name:            ref.Name,
		Description:     DefaultDescription,
		PrimaryLanguage: DefaultLanguage,
		Files:           make([]domain.FileContent, 0, len(files)),
	}
	if meta.Name != "" {
		bundle.Name = meta.Name
	}
	if meta.Description != nil && strings.TrimSpace(*meta.Description) != "" {
		bundle.Description = *meta.Description
	}
	if meta.Language != nil && *meta.Language != "" {
		bundle.PrimaryLanguage = *meta.Language
	}
	if meta.Stars != nil {
		bundle.StarCount = *meta.Stars
	}

	if readme == "" {
		readme = DefaultReadme
	}
	bundle.ReadmeExcerpt, _ = domain.TruncateChars(readme, maxReadmeChars)

	for _, f := range files {
		bundle.Files = append(bundle.Files, domain.FileContent{Name: f.Entry.Name, Content: f.Content})
	}
	return bundle
}
