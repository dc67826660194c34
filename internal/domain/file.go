package domain

// EntryKind 是仓库列表中条目的类型
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDir       EntryKind = "dir"
	KindSymlink   EntryKind = "symlink"
	KindSubmodule EntryKind = "submodule"
)

// FileEntry 是顶层目录列表中的一项，只在一次排序过程中存在
type FileEntry struct {
	Name string
	Kind EntryKind
}

// Tier 是文件的相关度等级，只由文件名决定
type Tier int

const (
	TierExcluded Tier = -1
	TierLow      Tier = 0
	TierNormal   Tier = 1
	TierHigh     Tier = 2
)

func (t Tier) String() string {
	switch t {
	case TierExcluded:
		return "excluded"
	case TierLow:
		return "low"
	case TierNormal:
		return "normal"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Candidate 是带等级的文件条目
type Candidate struct {
	Entry FileEntry
	Tier  Tier
	Rank  int // 在原始列表中的下标
}

// SelectedFile 是抓取并截断后的候选文件
type SelectedFile struct {
	Candidate
	Content   string
	Truncated bool
}

// FileContent 是上下文包里的一个 (文件名, 内容) 对
type FileContent struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ContextBundle 是交给叙述生成器的最终上下文
// Files 是有序切片，顺序就是挑选顺序
type ContextBundle struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	PrimaryLanguage string        `json:"primary_language"`
	StarCount       int           `json:"star_count"`
	ReadmeExcerpt   string        `json:"readme_excerpt"`
	Files           []FileContent `json:"files"`
}

// DroppedFile 记录一个被静默丢弃的候选文件及原因
type DroppedFile struct {
	Name   string
	Reason string
}

// FetchReport 汇总一次内容抓取的结果，便于排查为什么文件数不足
type FetchReport struct {
	Requested int
	Selected  int
	Dropped   []DroppedFile
}
