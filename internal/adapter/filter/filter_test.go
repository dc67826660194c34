package filter

import (
	"fmt"
	"math/rand"
	"testing"

	"repo-onboarder/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func files(names ...string) []domain.FileEntry {
	entries := make([]domain.FileEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, domain.FileEntry{Name: n, Kind: domain.KindFile})
	}
	return entries
}

func names(candidates []domain.Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Entry.Name)
	}
	return out
}

func TestFileFilter_Score(t *testing.T) {
	f := NewDefaultFileFilter()

	tests := []struct {
		name string
		file string
		want domain.Tier
	}{
		// 端到端场景 1 中的文件
		{"入口文件", "main.py", domain.TierHigh},
		{"README", "README.md", domain.TierLow},
		{"LICENSE", "LICENSE", domain.TierLow},
		{"普通源码", "utils.py", domain.TierNormal},
		{"图片", "logo.png", domain.TierExcluded},
		{"npm 锁文件", "package-lock.json", domain.TierLow},

		{"图片后缀大写也排除", "LOGO.PNG", domain.TierExcluded},
		{"压缩包", "release.tar.gz", domain.TierExcluded},
		{"构建清单", "Dockerfile", domain.TierHigh},
		{"高优先级区分大小写", "dockerfile", domain.TierNormal},
		{"高优先级不做前缀匹配", "main.py.bak", domain.TierNormal},
		{"requirements.txt 在规则 3 之前命中", "requirements.txt", domain.TierHigh},
		{"CMakeLists.txt 在规则 3 之前命中", "CMakeLists.txt", domain.TierHigh},
		{"go.sum", "go.sum", domain.TierLow},
		{"Cargo.lock", "Cargo.lock", domain.TierLow},
		{"隐藏文件", ".env.example", domain.TierLow},
		{"隐藏的高优先级名字不存在时仍是 Low", ".golangci.toml", domain.TierLow},
		{"CI 配置", "codecov.yml", domain.TierLow},
		{"文档前缀不区分大小写", "Changelog", domain.TierLow},
		{"CONTRIBUTING 前缀", "CONTRIBUTING", domain.TierLow},
		{"AUTHORS", "AUTHORS", domain.TierLow},
		{"NOTICE 前缀匹配", "NOTICE-third-party", domain.TierLow},
		{"README 无后缀", "README", domain.TierLow},
		{"规则 1 优先于规则 4", "readme.png", domain.TierExcluded},
		{"规则 1 优先于隐藏文件", ".icon.ico", domain.TierExcluded},
		{"Go 源码", "server.go", domain.TierNormal},
		{"空文件名", "", domain.TierNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Score(tt.file))
		})
	}
}

func TestFileFilter_Score_Deterministic(t *testing.T) {
	f := NewDefaultFileFilter()
	for _, n := range []string{"main.py", "README.md", "logo.png", "x.go", ".env", "LICENSE"} {
		first := f.Score(n)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, f.Score(n), n)
		}
	}
}

func TestFileFilter_Select_Scenario(t *testing.T) {
	f := NewDefaultFileFilter()
	entries := files("main.py", "README.md", "LICENSE", "utils.py", "logo.png", "package-lock.json")

	selected := f.Select(entries, 5)

	assert.Equal(t, []string{"main.py", "utils.py", "README.md", "LICENSE", "package-lock.json"}, names(selected))
	assert.Equal(t, domain.TierHigh, selected[0].Tier)
	assert.Equal(t, 0, selected[0].Rank)
	assert.Equal(t, 3, selected[1].Rank)
}

func TestFileFilter_Select(t *testing.T) {
	f := NewDefaultFileFilter()

	tests := []struct {
		name    string
		entries []domain.FileEntry
		budget  int
		want    []string
	}{
		{
			name:    "预算截断",
			entries: files("a.go", "b.go", "c.go", "main.go"),
			budget:  2,
			want:    []string{"main.go", "a.go"},
		},
		{
			name:    "候选不足时少于预算",
			entries: files("main.go", "logo.png"),
			budget:  5,
			want:    []string{"main.go"},
		},
		{
			name:    "预算非正数时使用默认值",
			entries: files("a.go", "b.go", "c.go", "d.go", "e.go", "f.go"),
			budget:  0,
			want:    []string{"a.go", "b.go", "c.go", "d.go", "e.go"},
		},
		{
			name: "目录和子模块不参与挑选",
			entries: []domain.FileEntry{
				{Name: "cmd", Kind: domain.KindDir},
				{Name: "vendor", Kind: domain.KindSubmodule},
				{Name: "main.go", Kind: domain.KindFile},
			},
			budget: 5,
			want:   []string{"main.go"},
		},
		{
			name:    "空列表",
			entries: nil,
			budget:  5,
			want:    []string{},
		},
		{
			name:    "全部被排除",
			entries: files("a.png", "b.zip"),
			budget:  5,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(f.Select(tt.entries, tt.budget)))
		})
	}
}

func TestFileFilter_Select_StableForAllPermutations(t *testing.T) {
	f := NewDefaultFileFilter()
	normal := []string{"a.go", "b.py", "c.rs"}
	low := []string{"NOTES.md", "LICENSE"}

	for _, perm := range permutations(normal) {
		for _, lowPerm := range permutations(low) {
			// 交错排列：等级不同的文件混在一起
			input := []string{lowPerm[0], perm[0], "logo.png", perm[1], lowPerm[1], perm[2], "main.go"}
			got := names(f.Select(files(input...), 10))

			want := append([]string{"main.go"}, perm...)
			want = append(want, lowPerm...)
			assert.Equal(t, want, got, "input %v", input)
		}
	}
}

func TestFileFilter_Select_Properties(t *testing.T) {
	f := NewDefaultFileFilter()
	pool := []string{
		"main.py", "README.md", "LICENSE", "utils.py", "logo.png", "package-lock.json",
		"a.go", "b.go", "Dockerfile", ".env", "font.woff2", "go.sum", "x.rs", "CHANGELOG.md", "pic.JPG",
	}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		n := rng.Intn(len(pool) + 1)
		input := make([]string, n)
		for j := range input {
			input[j] = fmt.Sprintf("%d-%s", j, pool[rng.Intn(len(pool))])
		}
		// 名字加了序号前缀，高优先级名单不会命中，改用原名测试一半的样本
		if i%2 == 0 {
			for j := range input {
				input[j] = pool[rng.Intn(len(pool))]
			}
		}
		budget := rng.Intn(7) + 1

		selected := f.Select(files(input...), budget)

		require.LessOrEqual(t, len(selected), budget)
		for k, c := range selected {
			assert.NotEqual(t, domain.TierExcluded, c.Tier)
			assert.Equal(t, f.Score(c.Entry.Name), c.Tier)
			if k > 0 {
				prev := selected[k-1]
				assert.GreaterOrEqual(t, prev.Tier, c.Tier)
				if prev.Tier == c.Tier {
					assert.Less(t, prev.Rank, c.Rank)
				}
			}
		}
	}
}

func TestFileFilter_CustomRules(t *testing.T) {
	rules := DefaultRules().Merge(Rules{
		HighPriorityNames: []string{"justfile"},
		ExcludedSuffixes:  []string{".lock"},
	})
	f := NewFileFilter(rules)

	assert.Equal(t, domain.TierHigh, f.Score("justfile"))
	assert.Equal(t, domain.TierNormal, f.Score("main.py"))
	assert.Equal(t, domain.TierExcluded, f.Score("Cargo.lock"))
	// 未覆盖的名单保持默认
	assert.Equal(t, domain.TierLow, f.Score("LICENSE"))
	assert.Equal(t, domain.TierLow, f.Score("README.md"))
}

func permutations(in []string) [][]string {
	if len(in) <= 1 {
		return [][]string{append([]string(nil), in...)}
	}
	var out [][]string
	for i := range in {
		rest := make([]string, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{in[i]}, p...))
		}
	}
	return out
}
