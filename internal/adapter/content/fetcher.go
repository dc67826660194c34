// Package content 负责抓取被选中文件的原文并按行截断
package content

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"repo-onboarder/internal/domain"
	"repo-onboarder/internal/port"
)

// DefaultMaxLines 是单个文件保留的默认行数 L
const DefaultMaxLines = 300

// Fetcher 实现了 port.ContentFetcher 接口
type Fetcher struct {
	source        port.RepoSource
	maxLines      int
	maxGoroutines int           // 最大并发数，1 表示严格串行
	fetchTimeout  time.Duration // 单个文件的超时时间
}

// NewFetcher 创建新的内容抓取器
func NewFetcher(source port.RepoSource, maxLines int) *Fetcher {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Fetcher{
		source:        source,
		maxLines:      maxLines,
		maxGoroutines: 3, // 默认并发数为3
		fetchTimeout:  30 * time.Second,
	}
}

// SetMaxGoroutines 设置最大并发数
func (f *Fetcher) SetMaxGoroutines(max int) {
	if max > 0 {
		f.maxGoroutines = max
	}
}

// SetFetchTimeout 设置单个文件的抓取超时
func (f *Fetcher) SetFetchTimeout(d time.Duration) {
	if d > 0 {
		f.fetchTimeout = d
	}
}

type fetchJob struct {
	index     int
	candidate domain.Candidate
}

type fetchResult struct {
	index  int
	file   *domain.SelectedFile
	reason string // 非空表示被丢弃
}

// Fetch 按排序顺序抓取候选文件，最多收集 budget 个
// 抓取失败或内容为空的文件被静默丢弃并记录在报告里；
// 若 ranked 比 budget 长，会继续往后补位直到凑满或候选用完。
// budget <= 0 表示不限制。
func (f *Fetcher) Fetch(ctx context.Context, ref domain.RepoRef, ranked []domain.Candidate, budget int) ([]domain.SelectedFile, domain.FetchReport) {
	if budget <= 0 || budget > len(ranked) {
		budget = len(ranked)
	}

	var report domain.FetchReport
	selected := make([]domain.SelectedFile, 0, budget)
	next := 0

	for len(selected) < budget && next < len(ranked) {
		if ctx.Err() != nil {
			log.Printf("[Fetcher] ⏰ 抓取被取消，剩余 %d 个候选未处理", len(ranked)-next)
			break
		}

		end := next + (budget - len(selected))
		if end > len(ranked) {
			end = len(ranked)
		}
		window := ranked[next:end]
		next = end

		for _, res := range f.fetchWindow(ctx, ref, window) {
			if res.file == nil {
				name := window[res.index].Entry.Name
				log.Printf("[Fetcher] ⚠️ 丢弃 %s: %s", name, res.reason)
				report.Dropped = append(report.Dropped, domain.DroppedFile{Name: name, Reason: res.reason})
				continue
			}
			selected = append(selected, *res.file)
		}
	}

	report.Requested = next
	report.Selected = len(selected)
	if len(report.Dropped) > 0 {
		fmt.Printf("⚠️  共丢弃 %d 个文件，最终收集 %d/%d 个\n", len(report.Dropped), report.Selected, budget)
	}
	return selected, report
}

// fetchWindow 并发抓取一批候选，结果按候选原有顺序返回
func (f *Fetcher) fetchWindow(ctx context.Context, ref domain.RepoRef, window []domain.Candidate) []fetchResult {
	workers := f.maxGoroutines
	if workers > len(window) {
		workers = len(window)
	}

	jobs := make(chan fetchJob, len(window))
	results := make(chan fetchResult, len(window))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go f.fetchWorker(ctx, ref, jobs, results, &wg, i+1)
	}

	for i, c := range window {
		jobs <- fetchJob{index: i, candidate: c}
	}
	close(jobs)

	wg.Wait()
	close(results)

	// 按下标归位，保证输出顺序与挑选顺序一致
	ordered := make([]fetchResult, len(window))
	for res := range results {
		ordered[res.index] = res
	}
	return ordered
}

// fetchWorker 工作协程，处理单个文件的抓取和截断
func (f *Fetcher) fetchWorker(
	ctx context.Context,
	ref domain.RepoRef,
	jobs <-chan fetchJob,
	results chan<- fetchResult,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for job := range jobs {
		name := job.candidate.Entry.Name
		fmt.Printf("   [Fetcher-%d] 正在读取 %s (%s)...\n", workerID, name, job.candidate.Tier)

		fileCtx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
		raw, err := f.source.GetFileContent(fileCtx, ref, name)
		cancel()

		switch {
		case err != nil:
			results <- fetchResult{index: job.index, reason: err.Error()}
		case raw == "":
			results <- fetchResult{index: job.index, reason: "内容为空"}
		default:
			text, truncated := domain.TruncateLines(raw, f.maxLines)
			results <- fetchResult{index: job.index, file: &domain.SelectedFile{
				Candidate: job.candidate,
				Content:   text,
				Truncated: truncated,
			}}
		}
	}
}
