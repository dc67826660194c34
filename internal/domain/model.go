package domain

import (
	"fmt"
	"strings"
	"time"
)

// RepoRef 标识一个远程仓库 (owner + name)
type RepoRef struct {
	Owner string
	Name  string
}

// FullName 返回 "owner/name"
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// URL 返回仓库的 GitHub 页面地址
func (r RepoRef) URL() string {
	return "https://github.com/" + r.FullName()
}

// RepoMetadata 是 GitHub 仓库信息在边界处转换后的强类型结构
// 指针字段为 nil 表示上游没有返回该字段，由 Assembler 负责填默认值
type RepoMetadata struct {
	Name        string
	Description *string
	Language    *string
	Stars       *int
	HTMLURL     string
}

// Guide 代表一份生成好的入职指南，也是持久化的实体
type Guide struct {
	ID        string `json:"id" gorm:"primaryKey"` // 例如 "spf13/cobra@1700000000"
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	FullName  string `json:"full_name" gorm:"index"`
	URL       string `json:"url"`
	Language  string `json:"language"`
	Stars     int    `json:"stars"`
	Model     string `json:"model"` // 生成指南所用的模型

	// 上下文统计，用于排查挑选了哪些文件、丢了多少
	FileNames    string `json:"file_names"` // 逗号分隔，保持挑选顺序
	FileCount    int    `json:"file_count"`
	DroppedFiles int    `json:"dropped_files"`

	// 指南正文 (Markdown)
	Content string `json:"content" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
}

// NewGuide 根据上下文包和生成结果构造 Guide
func NewGuide(ref RepoRef, bundle *ContextBundle, model, content string, dropped int, now time.Time) *Guide {
	names := make([]string, 0, len(bundle.Files))
	for _, f := range bundle.Files {
		names = append(names, f.Name)
	}
	return &Guide{
		ID:           fmt.Sprintf("%s@%d", ref.FullName(), now.Unix()),
		Owner:        ref.Owner,
		Repo:         ref.Name,
		FullName:     ref.FullName(),
		URL:          ref.URL(),
		Language:     bundle.PrimaryLanguage,
		Stars:        bundle.StarCount,
		Model:        model,
		FileNames:    strings.Join(names, ","),
		FileCount:    len(bundle.Files),
		DroppedFiles: dropped,
		Content:      content,
		CreatedAt:    now,
	}
}

// FileName 返回指南落盘时使用的文件名
func (g *Guide) FileName() string {
	return g.Repo + "-onboarding.md"
}
