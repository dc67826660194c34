// Package objectstore 把指南上传到 S3 兼容的对象存储 (MinIO / AWS S3)
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config 是对象存储连接配置
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store 实现了 port.GuideSink 接口
type Store struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

func NewStore(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "S3_ENDPOINT 未设置")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "S3_ACCESS_KEY 和 S3_SECRET_KEY 必须同时设置")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "S3_BUCKET 未设置")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "初始化 S3 客户端失败", err)
	}

	return &Store{client: client, bucket: bucket, region: region}, nil
}

// Name 返回存储名，用于日志
func (s *Store) Name() string {
	return "s3"
}

// ensureBucket 第一次写入时检查桶，不存在就创建
func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Save 上传指南正文，同一个仓库的每次生成各占一个对象
func (s *Store) Save(ctx context.Context, guide *domain.Guide) error {
	if err := s.ensureBucket(ctx); err != nil {
		return common.WrapError(common.ErrCodeStorage, fmt.Sprintf("检查存储桶 %s 失败", s.bucket), err)
	}

	key := ObjectKey(guide)
	content := []byte(guide.Content)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/markdown; charset=utf-8",
		UserMetadata: map[string]string{
			"repo":  guide.FullName,
			"model": guide.Model,
		},
	})
	if err != nil {
		return common.WrapError(common.ErrCodeStorage, fmt.Sprintf("上传 %s 失败", key), err)
	}
	return nil
}

// URL 返回一个 1 小时有效的下载链接
func (s *Store) URL(ctx context.Context, guide *domain.Guide) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ObjectKey(guide), time.Hour, nil)
	if err != nil {
		return "", common.WrapError(common.ErrCodeStorage, "生成下载链接失败", err)
	}
	return u.String(), nil
}

// ObjectKey 返回 "<owner>/<repo>/<unix>-<repo>-onboarding.md"
func ObjectKey(guide *domain.Guide) string {
	return fmt.Sprintf("%s/%s/%d-%s", guide.Owner, guide.Repo, guide.CreatedAt.Unix(), guide.FileName())
}
