package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"repo-onboarder/internal/adapter/content"
	"repo-onboarder/internal/adapter/filter"
	"repo-onboarder/internal/adapter/github"
	"repo-onboarder/internal/adapter/prompt"
	"repo-onboarder/internal/config"
	"repo-onboarder/internal/domain"
	"repo-onboarder/internal/service"

	"github.com/spf13/cobra"
)

func main() {
	if err := newDebugCmd().Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

// newDebugCmd 调试模式：只构建上下文包并打印打分、挑选结果，不调用大模型
func newDebugCmd() *cobra.Command {
	var envFile string
	var asJSON, showPrompt bool

	cmd := &cobra.Command{
		Use:           "debug <github-url>",
		Short:         "打印仓库的打分、挑选和上下文包，不调用大模型",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ref, err := domain.ParseRepoURL(args[0])
			if err != nil {
				return err
			}

			source, err := github.NewClient(github.Config{
				Token:   cfg.GitHub.Token,
				BaseURL: cfg.GitHub.APIURL,
				RPS:     cfg.GitHub.RPS,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			scorer := filter.NewFileFilter(cfg.Rules)
			fetcher := content.NewFetcher(source, cfg.Budget.MaxLines)
			fetcher.SetMaxGoroutines(cfg.Budget.Concurrency)
			svc := service.NewOnboardingService(source, scorer, fetcher, nil, nil, nil, service.Options{
				MaxFiles:       cfg.Budget.MaxFiles,
				MaxReadmeChars: cfg.Budget.MaxReadmeChars,
				Backfill:       cfg.Budget.Backfill,
			})

			fmt.Println("🔍 调试模式：只构建上下文包")
			result, err := svc.BuildBundle(ctx, ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, result.Bundle)
			}
			printReport(out, scorer, result)
			if showPrompt {
				fmt.Fprintln(out, "\n================ [ Prompt ] ================")
				fmt.Fprintln(out, prompt.BuildGuidePrompt(&result.Bundle))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", ".env 文件路径，不存在时忽略")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出上下文包")
	cmd.Flags().BoolVar(&showPrompt, "prompt", false, "同时打印发给大模型的完整提示词")
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// printReport 打印每个顶层条目的分级、最终挑选和上下文包统计
func printReport(out io.Writer, scorer *filter.FileFilter, result *service.BuildResult) {
	fmt.Fprintf(out, "\n📂 顶层条目 (%d):\n", len(result.Entries))
	for _, e := range result.Entries {
		tier := "-"
		if e.Kind == domain.KindFile {
			tier = scorer.Score(e.Name).String()
		}
		fmt.Fprintf(out, "  %-40s %-9s %s\n", e.Name, e.Kind, tier)
	}

	fmt.Fprintf(out, "\n🏆 排序后的候选 (%d):\n", len(result.Ranked))
	for i, c := range result.Ranked {
		fmt.Fprintf(out, "  #%d %-40s %s\n", i+1, c.Entry.Name, c.Tier)
	}

	fmt.Fprintf(out, "\n✅ 已读取 (%d/%d):\n", result.Report.Selected, result.Report.Requested)
	for _, f := range result.Selected {
		mark := ""
		if f.Truncated {
			mark = " (已截断)"
		}
		fmt.Fprintf(out, "  %-40s %6d 字节%s\n", f.Entry.Name, len(f.Content), mark)
	}
	for _, d := range result.Report.Dropped {
		fmt.Fprintf(out, "  🗑️ %-37s %s\n", d.Name, d.Reason)
	}

	b := result.Bundle
	fmt.Fprintln(out, "\n📦 上下文包:")
	fmt.Fprintf(out, "  名称: %s\n  描述: %s\n  语言: %s\n  Stars: %d\n  README: %d 字符\n  文件: %d 个\n",
		b.Name, b.Description, b.PrimaryLanguage, b.StarCount, len([]rune(b.ReadmeExcerpt)), len(b.Files))
}

func printJSON(out io.Writer, bundle domain.ContextBundle) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(bundle)
}
