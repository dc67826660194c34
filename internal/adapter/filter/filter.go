// Package filter 负责给仓库顶层文件打分、排序，并按预算挑出最值得读的几个文件
package filter

import (
	"sort"
	"strings"

	"repo-onboarder/internal/domain"
)

// DefaultMaxFiles 是默认的文件挑选预算 K
const DefaultMaxFiles = 5

// FileFilter 实现了 port.Selector 接口
type FileFilter struct {
	rules compiledRules
}

// NewFileFilter 用给定名单创建过滤器
func NewFileFilter(rules Rules) *FileFilter {
	return &FileFilter{rules: compile(rules)}
}

// NewDefaultFileFilter 使用内置名单
func NewDefaultFileFilter() *FileFilter {
	return NewFileFilter(DefaultRules())
}

// Score 根据文件名给出相关度等级，只看名字不看内容
// 规则按顺序判断，先命中的生效
func (f *FileFilter) Score(name string) domain.Tier {
	lower := strings.ToLower(name)

	// 1. 二进制/媒体文件直接排除
	if hasAnySuffix(lower, f.rules.excludedSuffixes) {
		return domain.TierExcluded
	}

	// 2. 入口文件、构建清单 (精确匹配，区分大小写)
	if _, ok := f.rules.highNames[name]; ok {
		return domain.TierHigh
	}

	// 3. 低信息量后缀，或者隐藏文件
	if hasAnySuffix(lower, f.rules.lowSuffixes) || strings.HasPrefix(name, ".") {
		return domain.TierLow
	}

	// 4. LICENSE、CHANGELOG 之类的文档
	for _, p := range f.rules.lowPrefixes {
		if strings.HasPrefix(lower, p) {
			return domain.TierLow
		}
	}

	// 5. 普通源码
	return domain.TierNormal
}

// Rank 对列表打分，丢掉非文件条目和 Excluded，再按等级稳定降序排序
// 等级相同的文件保持原始列表中的相对顺序
func (f *FileFilter) Rank(entries []domain.FileEntry) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(entries))
	for i, entry := range entries {
		if entry.Kind != domain.KindFile {
			continue
		}
		tier := f.Score(entry.Name)
		if tier == domain.TierExcluded {
			continue
		}
		candidates = append(candidates, domain.Candidate{Entry: entry, Tier: tier, Rank: i})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Tier > candidates[j].Tier
	})
	return candidates
}

// Select 返回排序后的前 budget 个候选；budget <= 0 时使用默认值
func (f *FileFilter) Select(entries []domain.FileEntry, budget int) []domain.Candidate {
	if budget <= 0 {
		budget = DefaultMaxFiles
	}
	ranked := f.Rank(entries)
	if len(ranked) > budget {
		ranked = ranked[:budget]
	}
	return ranked
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
