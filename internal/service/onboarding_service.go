package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"
	"repo-onboarder/internal/port"
)

// Options 是单次运行的预算
type Options struct {
	MaxFiles       int  // K
	MaxReadmeChars int  // R
	Backfill       bool // 把完整排序列表交给抓取器，失败的文件由后面的候选补位
}

// BuildResult 是构建上下文包的全部中间产物，调试命令会把它们打印出来
type BuildResult struct {
	Ref      domain.RepoRef
	Entries  []domain.FileEntry
	Ranked   []domain.Candidate // 剔除 Excluded 后的完整排序
	Selected []domain.SelectedFile
	Report   domain.FetchReport
	Bundle   domain.ContextBundle
}

// OnboardingService 串起整条流水线：仓库信息 → 打分挑选 → 抓取截断 → 组装 → 生成 → 保存 → 通知
type OnboardingService struct {
	source   port.RepoSource
	selector port.Selector
	fetcher  port.ContentFetcher
	narrator port.Narrator
	sinks    []port.GuideSink
	notifier port.Notifier
	opts     Options
	now      func() time.Time
}

// NewOnboardingService 创建新的服务，narrator/sinks/notifier 可以为空 (例如只构建上下文包的调试模式)
func NewOnboardingService(
	source port.RepoSource,
	selector port.Selector,
	fetcher port.ContentFetcher,
	narrator port.Narrator,
	sinks []port.GuideSink,
	notifier port.Notifier,
	opts Options,
) *OnboardingService {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}
	if opts.MaxReadmeChars <= 0 {
		opts.MaxReadmeChars = DefaultMaxReadmeChars
	}
	return &OnboardingService{
		source:   source,
		selector: selector,
		fetcher:  fetcher,
		narrator: narrator,
		sinks:    sinks,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// BuildBundle 构建上下文包
// 只有仓库本身无法访问才返回错误；列表、README、单个文件失败都降级处理
func (s *OnboardingService) BuildBundle(ctx context.Context, ref domain.RepoRef) (*BuildResult, error) {
	fmt.Printf("📥 正在获取仓库信息 %s ...\n", ref.FullName())
	meta, err := s.source.GetMetadata(ctx, ref)
	if err != nil {
		return nil, err
	}

	fmt.Println("📥 正在获取 README ...")
	readme, err := s.source.GetReadme(ctx, ref)
	if err != nil {
		log.Printf("⚠️ 获取 README 失败，使用默认内容: %v", err)
		readme = ""
	}

	fmt.Println("📥 正在获取顶层文件列表 ...")
	entries, err := s.source.ListTopLevel(ctx, ref)
	if err != nil {
		log.Printf("⚠️ 获取文件列表失败，按空列表继续: %v", err)
		entries = nil
	}

	ranked := s.selector.Rank(entries)
	candidates := ranked
	if !s.opts.Backfill {
		candidates = s.selector.Select(entries, s.opts.MaxFiles)
	}
	fmt.Printf("🔍 顶层 %d 个条目，%d 个候选，计划读取 %d 个文件\n", len(entries), len(ranked), min(len(candidates), s.opts.MaxFiles))

	selected, report := s.fetcher.Fetch(ctx, ref, candidates, s.opts.MaxFiles)
	fmt.Printf("✅ 成功读取 %d 个文件，丢弃 %d 个\n", len(selected), len(report.Dropped))

	return &BuildResult{
		Ref:      ref,
		Entries:  entries,
		Ranked:   ranked,
		Selected: selected,
		Report:   report,
		Bundle:   Assemble(ref, meta, readme, selected, s.opts.MaxReadmeChars),
	}, nil
}

// Onboard 为仓库生成入职指南，保存到所有存储并发送通知
func (s *OnboardingService) Onboard(ctx context.Context, ref domain.RepoRef) (*domain.Guide, error) {
	if s.narrator == nil {
		return nil, common.NewError(common.ErrCodeInternal, "未配置叙述生成器")
	}

	build, err := s.BuildBundle(ctx, ref)
	if err != nil {
		return nil, err
	}

	fmt.Printf("🧠 正在使用 %s 生成入职指南 ...\n", s.narrator.Model())
	content, err := s.narrator.GenerateGuide(ctx, &build.Bundle)
	if err != nil {
		return nil, err
	}

	guide := domain.NewGuide(ref, &build.Bundle, s.narrator.Model(), content, len(build.Report.Dropped), s.now())

	if err := s.save(ctx, guide); err != nil {
		return guide, err
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, guide); err != nil {
			log.Printf("❌ 推送指南 %s 失败: %v", guide.FullName, err)
		} else {
			fmt.Printf("📲 已推送 %s 的指南\n", guide.FullName)
		}
	}

	return guide, nil
}

// save 依次写入所有存储，只有全部失败才返回错误
func (s *OnboardingService) save(ctx context.Context, guide *domain.Guide) error {
	if len(s.sinks) == 0 {
		log.Printf("⚠️ 未配置任何存储，指南 %s 不会被保存", guide.FullName)
		return nil
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Save(ctx, guide); err != nil {
			log.Printf("❌ 保存到 %s 失败: %v", sink.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		fmt.Printf("💾 已保存到 %s\n", sink.Name())
	}

	if len(errs) == len(s.sinks) {
		return common.WrapError(common.ErrCodeStorage, "所有存储都保存失败", errors.Join(errs...))
	}
	return nil
}
