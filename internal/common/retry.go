package common

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// RetryableFunc 是一次可重试的调用，返回 error 表示需要重试
type RetryableFunc func() error

// permanentError 标记不应重试的错误 (例如 GitHub 404/401、飞书 4xx)
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent 包装 err，Do 遇到它会立即停止并返回原始错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Config 是重试策略
type Config struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	onRetry      func(attempt int, err error)
}

// Option 修改重试策略
type Option func(*Config)

// WithMaxRetries 设置最大重试次数 (不含首次调用)，默认 3
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithInitialDelay 设置第一次重试前的等待时间，默认 1s
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.initialDelay = d
		}
	}
}

// WithMaxDelay 设置退避上限，默认 30s
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithMultiplier 设置指数退避倍数，默认 2
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithOnRetry 在每次重试前回调，attempt 从 1 开始
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(c *Config) {
		c.onRetry = fn
	}
}

func defaultConfig() *Config {
	return &Config{
		maxRetries:   3,
		initialDelay: 1 * time.Second,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
	}
}

// Do 按指数退避执行 fn，直到成功、遇到 Permanent 错误、次数用完或 ctx 取消。
// 次数用完时返回最后一次的错误 (包装后仍可 errors.Is/As)。
//
//	err := common.Do(ctx, func() error {
//	    _, _, err := client.Repositories.Get(ctx, owner, repo)
//	    return err
//	}, common.WithMaxRetries(3))
func Do(ctx context.Context, fn RetryableFunc, opts ...Option) error {
	if fn == nil {
		return errors.New("retry: function cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 {
			if cfg.onRetry != nil {
				cfg.onRetry(attempt, lastErr)
			}
			if err := sleep(ctx, calculateDelay(attempt, cfg.initialDelay, cfg.maxDelay, cfg.multiplier)); err != nil {
				return fmt.Errorf("retry aborted during backoff (attempt %d/%d): %w", attempt, cfg.maxRetries, err)
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.maxRetries+1, lastErr)
}

// sleep 等待 d，ctx 取消时提前返回 ctx.Err()
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateDelay 返回 initialDelay * multiplier^(attempt-1)，不超过 maxDelay
func calculateDelay(attempt int, initialDelay, maxDelay time.Duration, multiplier float64) time.Duration {
	delay := time.Duration(float64(initialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
