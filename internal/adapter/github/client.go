package github

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// errNotFound 表示 GitHub 返回了 404，这种错误不重试
var errNotFound = errors.New("github: not found")

// Config 是 GitHub 客户端的配置，由 main 统一构造后传入
type Config struct {
	Token   string  // Personal Access Token，为空时匿名访问 (60次/小时)
	BaseURL string  // 为空时使用 api.github.com，GitHub Enterprise 填 https://host/api/v3/
	RPS     float64 // 每秒请求上限，<= 0 表示不限速
}

// Client 实现了 port.RepoSource 接口
type Client struct {
	client    *github.Client
	limiter   *rate.Limiter
	retryOpts []common.Option
}

// NewClient 初始化 GitHub 客户端
func NewClient(cfg Config) (*Client, error) {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := github.NewClient(httpClient)

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, common.WrapError(common.ErrCodeInvalidInput, "GitHub API 地址无效", err)
		}
		client.BaseURL = u
	}

	c := &Client{
		client: client,
		retryOpts: []common.Option{
			common.WithMaxRetries(3),
			common.WithInitialDelay(time.Second),
			common.WithOnRetry(func(attempt int, err error) {
				log.Printf("⚠️ GitHub API 调用失败，第 %d 次重试: %v", attempt, err)
			}),
		},
	}
	if cfg.RPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}
	return c, nil
}

// GetMetadata 获取仓库基础信息；仓库不存在时返回 ErrCodeRepoNotFound
func (c *Client) GetMetadata(ctx context.Context, ref domain.RepoRef) (*domain.RepoMetadata, error) {
	var repo *github.Repository
	err := c.do(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var apiErr error
		repo, resp, apiErr = c.client.Repositories.Get(ctx, ref.Owner, ref.Name)
		return resp, apiErr
	})
	if errors.Is(err, errNotFound) {
		return nil, common.WrapError(common.ErrCodeRepoNotFound, "仓库不存在或无权访问: "+ref.FullName(), err)
	}
	if err != nil {
		return nil, common.WrapError(common.ErrCodeGitHubAPI, "获取仓库信息失败: "+ref.FullName(), err)
	}

	// DTO 转换：保留 nil，默认值交给 Assembler
	return &domain.RepoMetadata{
		Name:        repo.GetName(),
		Description: repo.Description,
		Language:    repo.Language,
		Stars:       repo.StargazersCount,
		HTMLURL:     repo.GetHTMLURL(),
	}, nil
}

// ListTopLevel 获取仓库根目录的文件列表
func (c *Client) ListTopLevel(ctx context.Context, ref domain.RepoRef) ([]domain.FileEntry, error) {
	var dir []*github.RepositoryContent
	err := c.do(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var apiErr error
		_, dir, resp, apiErr = c.client.Repositories.GetContents(ctx, ref.Owner, ref.Name, "", nil)
		return resp, apiErr
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeGitHubAPI, "获取文件列表失败: "+ref.FullName(), err)
	}

	entries := make([]domain.FileEntry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, domain.FileEntry{
			Name: item.GetName(),
			Kind: domain.EntryKind(item.GetType()),
		})
	}
	return entries, nil
}

// GetReadme 获取 README 原文，仓库没有 README 时返回空字符串
func (c *Client) GetReadme(ctx context.Context, ref domain.RepoRef) (string, error) {
	var readme *github.RepositoryContent
	err := c.do(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var apiErr error
		readme, resp, apiErr = c.client.Repositories.GetReadme(ctx, ref.Owner, ref.Name, nil)
		return resp, apiErr
	})
	if errors.Is(err, errNotFound) {
		return "", nil
	}
	if err != nil {
		return "", common.WrapError(common.ErrCodeGitHubAPI, "获取 README 失败: "+ref.FullName(), err)
	}
	return decode(readme)
}

// GetFileContent 获取单个文件的原始文本
// 文件不存在或路径是目录时返回空字符串
func (c *Client) GetFileContent(ctx context.Context, ref domain.RepoRef, path string) (string, error) {
	var file *github.RepositoryContent
	err := c.do(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var apiErr error
		file, _, resp, apiErr = c.client.Repositories.GetContents(ctx, ref.Owner, ref.Name, path, nil)
		return resp, apiErr
	})
	if errors.Is(err, errNotFound) {
		return "", nil
	}
	if err != nil {
		return "", common.WrapError(common.ErrCodeGitHubAPI, "获取文件失败: "+path, err)
	}
	if file == nil {
		return "", nil
	}
	return decode(file)
}

// do 带限速和重试地执行一次 API 调用，404/401 不重试
func (c *Client) do(ctx context.Context, call func() (*github.Response, error)) error {
	return common.Do(ctx, func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return common.Permanent(err)
			}
		}
		resp, err := call()
		if err == nil {
			return nil
		}
		switch statusCode(resp, err) {
		case http.StatusNotFound:
			return common.Permanent(fmt.Errorf("%w: %v", errNotFound, err))
		case http.StatusUnauthorized:
			return common.Permanent(err)
		}
		return err
	}, c.retryOpts...)
}

func statusCode(resp *github.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// decode 解码 base64 内容，丢弃非法 UTF-8 字节
// 超过 1MB 的文件 GitHub 不返回内容，这里会得到错误
func decode(content *github.RepositoryContent) (string, error) {
	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("解码 %s 失败: %w", content.GetPath(), err)
	}
	return strings.ToValidUTF8(text, ""), nil
}
