package port

import (
	"context"

	"repo-onboarder/internal/domain"
)

// RepoSource (远程仓库服务): 提供仓库元信息、顶层文件列表、README 和文件内容
// 鉴权、分页、限流都由实现负责
type RepoSource interface {
	// 仓库不存在或无权访问时返回 ErrCodeRepoNotFound 的 AppError，这是唯一的致命错误
	GetMetadata(ctx context.Context, ref domain.RepoRef) (*domain.RepoMetadata, error)

	// 顶层目录列表
	ListTopLevel(ctx context.Context, ref domain.RepoRef) ([]domain.FileEntry, error)

	// README 原文，没有 README 时返回空字符串
	GetReadme(ctx context.Context, ref domain.RepoRef) (string, error)

	// 单个文件的原始文本
	GetFileContent(ctx context.Context, ref domain.RepoRef, path string) (string, error)
}

// Selector (挑选器): 对顶层列表打分、稳定排序并按预算截取
type Selector interface {
	// 全量排序结果 (已剔除 Excluded)
	Rank(entries []domain.FileEntry) []domain.Candidate

	// 排序后取前 budget 个
	Select(entries []domain.FileEntry, budget int) []domain.Candidate
}

// ContentFetcher (内容抓取器): 按顺序抓取候选文件并截断
// 单个文件失败只会被丢弃并记录在报告里，不会返回错误
type ContentFetcher interface {
	Fetch(ctx context.Context, ref domain.RepoRef, ranked []domain.Candidate, budget int) ([]domain.SelectedFile, domain.FetchReport)
}

// Narrator (叙述生成器): 根据上下文包生成入职指南
type Narrator interface {
	GenerateGuide(ctx context.Context, bundle *domain.ContextBundle) (string, error)

	// 所用模型名，记录到 Guide 里
	Model() string
}

// GuideSink (持久化): 保存生成好的指南
type GuideSink interface {
	Save(ctx context.Context, guide *domain.Guide) error

	// 用于日志
	Name() string
}

// Notifier (信使): 指南生成后推送通知
type Notifier interface {
	Notify(ctx context.Context, guide *domain.Guide) error
}
