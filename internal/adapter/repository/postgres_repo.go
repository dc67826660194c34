package repository

import (
	"context"
	"errors"
	"fmt"

	"repo-onboarder/internal/common"
	"repo-onboarder/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DefaultHistoryLimit 是 History 默认返回的最大条数
const DefaultHistoryLimit = 10

// PostgresRepo 把生成的指南存进 Postgres，实现了 port.GuideSink 接口
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	// 1. 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "连接数据库失败", err)
	}

	// 2. 自动迁移，guides 表不存在时自动创建
	if err := db.AutoMigrate(&domain.Guide{}); err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "数据库迁移失败", err)
	}

	return &PostgresRepo{db: db}, nil
}

// Name 返回存储名，用于日志
func (r *PostgresRepo) Name() string {
	return "postgres"
}

// Save 保存或更新指南 (按 ID upsert)
func (r *PostgresRepo) Save(ctx context.Context, guide *domain.Guide) error {
	if err := r.db.WithContext(ctx).Save(guide).Error; err != nil {
		return common.WrapError(common.ErrCodeDatabase, fmt.Sprintf("保存指南 %s 失败", guide.ID), err)
	}
	return nil
}

// Latest 返回某个仓库最近一次生成的指南
func (r *PostgresRepo) Latest(ctx context.Context, fullName string) (*domain.Guide, error) {
	var guide domain.Guide
	err := r.db.WithContext(ctx).
		Where("full_name = ?", fullName).
		Order("created_at desc").
		First(&guide).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.NewError(common.ErrCodeNotFound, fmt.Sprintf("%s 还没有生成过指南", fullName))
	}
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询指南失败", err)
	}
	return &guide, nil
}

// History 按时间倒序列出某个仓库的历史指南
// fullName 为空时列出所有仓库
func (r *PostgresRepo) History(ctx context.Context, fullName string, limit int) ([]*domain.Guide, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var guides []*domain.Guide
	q := r.db.WithContext(ctx)
	if fullName != "" {
		q = q.Where("full_name = ?", fullName)
	}
	err := q.Order("created_at desc").
		Limit(limit).
		Find(&guides).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "查询历史指南失败", err)
	}
	return guides, nil
}
