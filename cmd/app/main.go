package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repo-onboarder/internal/adapter/content"
	"repo-onboarder/internal/adapter/feishu"
	"repo-onboarder/internal/adapter/filesink"
	"repo-onboarder/internal/adapter/filter"
	"repo-onboarder/internal/adapter/gemini"
	"repo-onboarder/internal/adapter/github"
	"repo-onboarder/internal/adapter/objectstore"
	"repo-onboarder/internal/adapter/repository"
	"repo-onboarder/internal/adapter/vertex"
	"repo-onboarder/internal/config"
	"repo-onboarder/internal/domain"
	"repo-onboarder/internal/port"
	"repo-onboarder/internal/service"

	"github.com/spf13/cobra"
)

// 单次运行的总超时
const runTimeout = 5 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	var noNotify bool

	root := &cobra.Command{
		Use:   "onboard <github-url>",
		Short: "为任意 GitHub 仓库生成新人入职指南",
		Long: `读取仓库的元信息、README 和最有代表性的几个顶层源文件，
交给大模型生成一份 Markdown 格式的入职指南，保存为 <repo>-onboarding.md。`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, envFile)
			if err != nil {
				return err
			}
			if noNotify {
				cfg.FeishuWebhook = ""
			}
			return runOnboard(cmd.Context(), cfg, args[0])
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", ".env 文件路径，不存在时忽略")
	config.RegisterFlags(root.Flags())
	root.Flags().BoolVar(&noNotify, "no-notify", false, "不发送飞书通知")

	root.AddCommand(newHistoryCmd(&envFile))
	return root
}

// loadConfig 按 .env → 环境变量 → 命令行参数 的顺序构造配置
func loadConfig(cmd *cobra.Command, envFile string) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runOnboard(parent context.Context, cfg *config.Config, rawURL string) error {
	ref, err := domain.ParseRepoURL(rawURL)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	fmt.Printf("\n🚀 正在为 %s 生成入职指南\n\n", ref.FullName())

	source, err := github.NewClient(github.Config{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.APIURL,
		RPS:     cfg.GitHub.RPS,
	})
	if err != nil {
		return err
	}

	narrator, closeNarrator, err := buildNarrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeNarrator()

	var notifier port.Notifier
	if cfg.FeishuWebhook != "" {
		notifier = feishu.NewNotifier(cfg.FeishuWebhook)
	}

	sinks := buildSinks(cfg)
	svc := buildService(cfg, source, narrator, sinks, notifier)

	guide, err := svc.Onboard(ctx, ref)
	if err != nil {
		return err
	}

	fmt.Printf("\n🎉 完成！打开 %s 查看入职指南 (读取了 %d 个文件，丢弃 %d 个)\n",
		filesink.NewSink(cfg.OutputDir).Path(guide), guide.FileCount, guide.DroppedFiles)
	printLinks(ctx, sinks, guide)
	return nil
}

// linker 是能给出指南下载链接的存储
type linker interface {
	URL(ctx context.Context, guide *domain.Guide) (string, error)
}

func printLinks(ctx context.Context, sinks []port.GuideSink, guide *domain.Guide) {
	for _, sink := range sinks {
		l, ok := sink.(linker)
		if !ok {
			continue
		}
		u, err := l.URL(ctx, guide)
		if err != nil {
			log.Printf("⚠️ 生成 %s 下载链接失败: %v", sink.Name(), err)
			continue
		}
		fmt.Printf("🔗 %s 下载链接 (1 小时有效): %s\n", sink.Name(), u)
	}
}

// buildService 用配置组装流水线
func buildService(cfg *config.Config, source port.RepoSource, narrator port.Narrator, sinks []port.GuideSink, notifier port.Notifier) *service.OnboardingService {
	fetcher := content.NewFetcher(source, cfg.Budget.MaxLines)
	fetcher.SetMaxGoroutines(cfg.Budget.Concurrency)

	return service.NewOnboardingService(
		source,
		filter.NewFileFilter(cfg.Rules),
		fetcher,
		narrator,
		sinks,
		notifier,
		service.Options{
			MaxFiles:       cfg.Budget.MaxFiles,
			MaxReadmeChars: cfg.Budget.MaxReadmeChars,
			Backfill:       cfg.Budget.Backfill,
		},
	)
}

// buildNarrator 按 LLM_BACKEND 选择生成器，返回的 close 函数总是可以安全调用
func buildNarrator(ctx context.Context, cfg *config.Config) (port.Narrator, func(), error) {
	switch cfg.LLM.Backend {
	case config.BackendVertex:
		n, err := vertex.NewNarrator(ctx, vertex.Config{
			Project:  cfg.LLM.VertexProject,
			Location: cfg.LLM.VertexLocation,
			APIKey:   cfg.LLM.APIKey,
			Model:    cfg.LLM.Model,
		})
		if err != nil {
			return nil, nil, err
		}
		return n, func() {}, nil
	default:
		n, err := gemini.NewGeminiNarrator(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, nil, err
		}
		return n, func() {
			if err := n.Close(); err != nil {
				log.Printf("⚠️ 关闭 Gemini 客户端失败: %v", err)
			}
		}, nil
	}
}

// buildSinks 本地文件总是启用；Postgres 和 S3 配置了才启用，初始化失败只告警
func buildSinks(cfg *config.Config) []port.GuideSink {
	sinks := []port.GuideSink{filesink.NewSink(cfg.OutputDir)}

	if cfg.DatabaseDSN != "" {
		repo, err := repository.NewPostgresRepo(cfg.DatabaseDSN)
		if err != nil {
			log.Printf("⚠️ DB 初始化失败，跳过数据库存储: %v", err)
		} else {
			sinks = append(sinks, repo)
		}
	}

	if cfg.S3.Enabled() {
		store, err := objectstore.NewStore(objectstore.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Printf("⚠️ S3 初始化失败，跳过对象存储: %v", err)
		} else {
			sinks = append(sinks, store)
		}
	}
	return sinks
}

// --- 历史记录 ---

// guideHistory 是 history 子命令用到的查询能力
type guideHistory interface {
	Latest(ctx context.Context, fullName string) (*domain.Guide, error)
	History(ctx context.Context, fullName string, limit int) ([]*domain.Guide, error)
}

func newHistoryCmd(envFile *string) *cobra.Command {
	var limit int
	var showLatest bool

	cmd := &cobra.Command{
		Use:   "history [github-url]",
		Short: "列出数据库里保存过的指南 (需要 DATABASE_DSN)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cfg.DatabaseDSN == "" {
				return fmt.Errorf("未设置 DATABASE_DSN，无法查询历史记录")
			}
			repo, err := repository.NewPostgresRepo(cfg.DatabaseDSN)
			if err != nil {
				return err
			}

			fullName := ""
			if len(args) == 1 {
				ref, err := domain.ParseRepoURL(args[0])
				if err != nil {
					return err
				}
				fullName = ref.FullName()
			}
			return runHistory(cmd.Context(), cmd.OutOrStdout(), repo, fullName, limit, showLatest)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", repository.DefaultHistoryLimit, "最多显示的条数")
	cmd.Flags().BoolVar(&showLatest, "latest", false, "打印该仓库最近一次生成的指南正文")
	return cmd
}

func runHistory(ctx context.Context, out io.Writer, store guideHistory, fullName string, limit int, showLatest bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if showLatest {
		if fullName == "" {
			return fmt.Errorf("--latest 需要指定仓库")
		}
		guide, err := store.Latest(ctx, fullName)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, guide.Content)
		return nil
	}

	guides, err := store.History(ctx, fullName, limit)
	if err != nil {
		return err
	}
	if len(guides) == 0 {
		fmt.Fprintln(out, "📭 还没有生成过指南")
		return nil
	}

	fmt.Fprintf(out, "📚 最近 %d 份指南:\n\n", len(guides))
	for _, g := range guides {
		fmt.Fprintf(out, "  %s  %-30s  %-10s  %d 个文件  %s\n",
			g.CreatedAt.Format("2006-01-02 15:04"), g.FullName, g.Language, g.FileCount, g.Model)
	}
	return nil
}
