// Package filesink 把生成的指南写成本地 Markdown 文件
package filesink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"
)

// Sink 实现了 port.GuideSink 接口，写入 <dir>/<repo>-onboarding.md
type Sink struct {
	dir string
}

// NewSink 创建文件存储，dir 为空时写到当前目录
func NewSink(dir string) *Sink {
	if dir == "" {
		dir = "."
	}
	return &Sink{dir: dir}
}

// Name 返回存储名，用于日志
func (s *Sink) Name() string {
	return "file"
}

// Path 返回指南会被写入的位置
func (s *Sink) Path(guide *domain.Guide) string {
	return filepath.Join(s.dir, guide.FileName())
}

// Save 写入指南正文，同名文件直接覆盖
func (s *Sink) Save(ctx context.Context, guide *domain.Guide) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return common.WrapError(common.ErrCodeStorage, fmt.Sprintf("创建输出目录 %s 失败", s.dir), err)
	}

	path := s.Path(guide)
	if err := os.WriteFile(path, []byte(guide.Content), 0644); err != nil {
		return common.WrapError(common.ErrCodeStorage, fmt.Sprintf("写入 %s 失败", path), err)
	}
	return nil
}
