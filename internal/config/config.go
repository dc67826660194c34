// Package config 在启动时一次性构造运行配置：.env 文件 → 环境变量 → 命令行参数 → 规则文件
// 配置构造完成后以值的形式传给各组件，运行期间不再读取环境变量
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"repo-onboarder/internal/adapter/filter"
	"repo-onboarder/internal/common"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	BackendGemini = "gemini"
	BackendVertex = "vertex"

	DefaultModel          = "gemini-2.5-flash"
	DefaultMaxFiles       = 5
	DefaultMaxLines       = 300
	DefaultMaxReadmeChars = 3000
	DefaultConcurrency    = 3
)

type Config struct {
	GitHub GitHubConfig
	LLM    LLMConfig
	Budget BudgetConfig
	S3     S3Config

	OutputDir     string
	RulesFile     string
	DatabaseDSN   string
	FeishuWebhook string

	// 打分名单：内置名单与规则文件合并后的结果
	Rules filter.Rules
}

type GitHubConfig struct {
	Token  string
	APIURL string  // GitHub Enterprise 等场景下覆盖 API 地址
	RPS    float64 // 每秒请求数上限，0 表示不限
}

type LLMConfig struct {
	Backend        string
	APIKey         string
	Model          string
	VertexProject  string
	VertexLocation string
}

// BudgetConfig 控制送进模型的上下文大小
type BudgetConfig struct {
	MaxFiles       int  // K
	MaxLines       int  // L
	MaxReadmeChars int  // R
	Concurrency    int  // 并发抓取文件数
	Backfill       bool // 抓取失败时用排名靠后的候选补位
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled 表示是否配置了对象存储
func (c S3Config) Enabled() bool {
	return c.Endpoint != ""
}

// Load 读取 envFiles (默认 .env，不存在则忽略) 和环境变量，环境变量优先
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	dotenv := map[string]string{}
	for _, f := range envFiles {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, common.WrapError(common.ErrCodeInvalidInput, fmt.Sprintf("读取 %s 失败", f), err)
		}
		for k, v := range m {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	e := &env{dotenv: dotenv}
	cfg := &Config{
		GitHub: GitHubConfig{
			Token:  e.getString("GITHUB_TOKEN", ""),
			APIURL: e.getString("GITHUB_API_URL", ""),
			RPS:    e.getFloat("GITHUB_RPS", 0),
		},
		LLM: LLMConfig{
			Backend:        strings.ToLower(e.getString("LLM_BACKEND", BackendGemini)),
			APIKey:         e.getString("GEMINI_API_KEY", ""),
			Model:          e.getString("GEMINI_MODEL", DefaultModel),
			VertexProject:  e.getString("VERTEX_PROJECT", ""),
			VertexLocation: e.getString("VERTEX_LOCATION", "us-central1"),
		},
		Budget: BudgetConfig{
			MaxFiles:       e.getInt("ONBOARD_MAX_FILES", DefaultMaxFiles),
			MaxLines:       e.getInt("ONBOARD_MAX_LINES", DefaultMaxLines),
			MaxReadmeChars: e.getInt("ONBOARD_MAX_README_CHARS", DefaultMaxReadmeChars),
			Concurrency:    e.getInt("ONBOARD_CONCURRENCY", DefaultConcurrency),
			Backfill:       e.getBool("ONBOARD_BACKFILL", false),
		},
		S3: S3Config{
			Endpoint:  e.getString("S3_ENDPOINT", ""),
			Region:    e.getString("S3_REGION", "us-east-1"),
			AccessKey: e.getString("S3_ACCESS_KEY", ""),
			SecretKey: e.getString("S3_SECRET_KEY", ""),
			Bucket:    e.getString("S3_BUCKET", "onboarding-guides"),
			UseSSL:    e.getBool("S3_USE_SSL", true),
		},
		OutputDir:     e.getString("ONBOARD_OUTPUT_DIR", "."),
		RulesFile:     e.getString("ONBOARD_RULES_FILE", ""),
		DatabaseDSN:   e.getString("DATABASE_DSN", ""),
		FeishuWebhook: e.getString("FEISHU_WEBHOOK", ""),
		Rules:         filter.DefaultRules(),
	}
	if len(e.errs) > 0 {
		return nil, common.NewError(common.ErrCodeInvalidInput, strings.Join(e.errs, "; "))
	}

	if cfg.RulesFile != "" {
		if err := cfg.LoadRules(cfg.RulesFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadRules 读取 YAML 规则文件，文件里出现的名单整组替换内置名单
func (c *Config) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.WrapError(common.ErrCodeInvalidInput, fmt.Sprintf("读取规则文件 %s 失败", path), err)
	}

	var override filter.Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return common.WrapError(common.ErrCodeInvalidInput, fmt.Sprintf("解析规则文件 %s 失败", path), err)
	}

	c.RulesFile = path
	c.Rules = filter.DefaultRules().Merge(override)
	return nil
}

// RegisterFlags 注册可以覆盖环境变量的命令行参数
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP("max-files", "k", DefaultMaxFiles, "最多读取的源文件数 (K)")
	fs.IntP("max-lines", "l", DefaultMaxLines, "每个文件保留的行数 (L)")
	fs.Int("max-readme-chars", DefaultMaxReadmeChars, "README 保留的字符数 (R)")
	fs.Int("concurrency", DefaultConcurrency, "并发抓取文件数，1 表示串行")
	fs.Bool("backfill", false, "文件读取失败时用排名靠后的候选补位")
	fs.StringP("output-dir", "o", ".", "指南输出目录")
	fs.String("model", DefaultModel, "生成指南所用的模型")
	fs.String("backend", BackendGemini, "LLM 后端: gemini 或 vertex")
	fs.String("rules", "", "YAML 规则文件，替换内置的打分名单")
}

// ApplyFlags 只把用户显式传入的参数写回配置，没传的保持环境变量的值
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	setInt := func(name string, dst *int) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt(name)
		}
	}
	setString := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}

	setInt("max-files", &c.Budget.MaxFiles)
	setInt("max-lines", &c.Budget.MaxLines)
	setInt("max-readme-chars", &c.Budget.MaxReadmeChars)
	setInt("concurrency", &c.Budget.Concurrency)
	setString("output-dir", &c.OutputDir)
	setString("model", &c.LLM.Model)
	setString("backend", &c.LLM.Backend)
	if err == nil && fs.Changed("backfill") {
		c.Budget.Backfill, err = fs.GetBool("backfill")
	}
	if err != nil {
		return common.WrapError(common.ErrCodeInvalidInput, "读取命令行参数失败", err)
	}
	c.LLM.Backend = strings.ToLower(c.LLM.Backend)

	if fs.Changed("rules") {
		path, _ := fs.GetString("rules")
		if err := c.LoadRules(path); err != nil {
			return err
		}
	}
	return nil
}

// Validate 检查预算和后端取值
func (c *Config) Validate() error {
	var problems []string
	if c.Budget.MaxFiles <= 0 {
		problems = append(problems, "max files 必须大于 0")
	}
	if c.Budget.MaxLines <= 0 {
		problems = append(problems, "max lines 必须大于 0")
	}
	if c.Budget.MaxReadmeChars <= 0 {
		problems = append(problems, "max readme chars 必须大于 0")
	}
	if c.Budget.Concurrency <= 0 {
		problems = append(problems, "concurrency 必须大于 0")
	}
	if c.GitHub.RPS < 0 {
		problems = append(problems, "GITHUB_RPS 不能为负数")
	}
	if c.LLM.Backend != BackendGemini && c.LLM.Backend != BackendVertex {
		problems = append(problems, fmt.Sprintf("未知的 LLM_BACKEND: %q (可选 gemini / vertex)", c.LLM.Backend))
	}

	if len(problems) > 0 {
		return common.NewError(common.ErrCodeInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// env 先查进程环境变量，再查 .env 内容，解析失败的键记录到 errs
type env struct {
	dotenv map[string]string
	errs   []string
}

func (e *env) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	if v, ok := e.dotenv[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), true
	}
	return "", false
}

func (e *env) getString(key, def string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return def
}

func (e *env) getInt(key string, def int) int {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s 不是整数: %q", key, v))
		return def
	}
	return n
}

func (e *env) getFloat(key string, def float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s 不是数字: %q", key, v))
		return def
	}
	return f
}

func (e *env) getBool(key string, def bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s 不是布尔值: %q", key, v))
		return def
	}
	return b
}
