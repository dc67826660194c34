package filter

import "strings"

// Rules 是打分用的几组名单，可以通过 YAML 规则文件整体替换其中任意一组
type Rules struct {
	// 二进制/媒体后缀，命中即排除 (不区分大小写)
	ExcludedSuffixes []string `yaml:"excluded_suffixes"`

	// 入口文件/构建清单，精确匹配且区分大小写
	HighPriorityNames []string `yaml:"high_priority_names"`

	// 低信息量后缀：锁文件、lint/编辑器配置、纯文本、文档 (不区分大小写)
	LowPrioritySuffixes []string `yaml:"low_priority_suffixes"`

	// 低信息量文档名前缀 (不区分大小写)
	LowPriorityPrefixes []string `yaml:"low_priority_prefixes"`
}

// DefaultRules 返回内置名单
func DefaultRules() Rules {
	return Rules{
		ExcludedSuffixes: []string{
			".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp", ".bmp", ".tiff", ".psd", ".pdf",
			".zip", ".tar", ".gz", ".tgz", ".bz2", ".xz", ".7z", ".rar", ".jar", ".war", ".whl",
			".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a", ".class", ".pyc",
			".woff", ".woff2", ".ttf", ".otf", ".eot",
			".mp3", ".mp4", ".mov", ".avi", ".wav", ".ogg", ".webm",
			".sqlite", ".db",
		},
		HighPriorityNames: []string{
			// Python
			"main.py", "app.py", "__main__.py", "manage.py", "setup.py", "pyproject.toml", "requirements.txt", "Pipfile",
			// Go / Rust
			"main.go", "go.mod", "Cargo.toml", "main.rs", "lib.rs",
			// JS / TS
			"package.json", "index.js", "index.ts", "main.js", "main.ts", "app.js", "app.ts", "server.js", "server.ts", "deno.json",
			// 容器与构建
			"Dockerfile", "docker-compose.yml", "docker-compose.yaml", "compose.yaml", "Makefile", "CMakeLists.txt",
			// JVM / Ruby / PHP / Elixir / .NET / C
			"pom.xml", "build.gradle", "build.gradle.kts", "Gemfile", "composer.json", "mix.exs", "Program.cs", "main.c", "main.cpp",
		},
		LowPrioritySuffixes: []string{
			".lock", "-lock.json", "-lock.yaml", ".sum",
			".txt", ".md", ".markdown", ".rst", ".adoc",
			".cfg", ".ini", ".yml", ".yaml",
			".editorconfig", ".prettierrc", ".eslintrc", ".gitignore", ".gitattributes",
			".log", ".csv",
		},
		LowPriorityPrefixes: []string{
			"license", "licence", "changelog", "changes", "contributing", "authors",
			"notice", "readme", "code_of_conduct", "security", "copying", "history",
		},
	}
}

// Merge 用 override 中非空的名单替换当前名单
func (r Rules) Merge(override Rules) Rules {
	if len(override.ExcludedSuffixes) > 0 {
		r.ExcludedSuffixes = override.ExcludedSuffixes
	}
	if len(override.HighPriorityNames) > 0 {
		r.HighPriorityNames = override.HighPriorityNames
	}
	if len(override.LowPrioritySuffixes) > 0 {
		r.LowPrioritySuffixes = override.LowPrioritySuffixes
	}
	if len(override.LowPriorityPrefixes) > 0 {
		r.LowPriorityPrefixes = override.LowPriorityPrefixes
	}
	return r
}

// compiledRules 是预处理过的名单：后缀和前缀统一转小写，高优先级名单转成集合
type compiledRules struct {
	excludedSuffixes []string
	highNames        map[string]struct{}
	lowSuffixes      []string
	lowPrefixes      []string
}

func compile(r Rules) compiledRules {
	high := make(map[string]struct{}, len(r.HighPriorityNames))
	for _, n := range r.HighPriorityNames {
		high[n] = struct{}{}
	}
	return compiledRules{
		excludedSuffixes: lowerAll(r.ExcludedSuffixes),
		highNames:        high,
		lowSuffixes:      lowerAll(r.LowPrioritySuffixes),
		lowPrefixes:      lowerAll(r.LowPriorityPrefixes),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
