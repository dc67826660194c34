package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "[INVALID_INPUT] 地址为空", NewError(ErrCodeInvalidInput, "地址为空").Error())
	assert.Equal(t, "[GITHUB_API_ERROR] 获取列表失败: boom", WrapError(ErrCodeGitHubAPI, "获取列表失败", cause).Error())
	assert.ErrorIs(t, WrapError(ErrCodeGitHubAPI, "获取列表失败", cause), cause)
}

func TestIsCode(t *testing.T) {
	inner := NewError(ErrCodeRepoNotFound, "octo/missing")
	outer := WrapError(ErrCodeGitHubAPI, "获取仓库信息失败", inner)

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"直接匹配", inner, ErrCodeRepoNotFound, true},
		{"嵌套匹配", outer, ErrCodeRepoNotFound, true},
		{"外层匹配", outer, ErrCodeGitHubAPI, true},
		{"经过 fmt 包装", fmt.Errorf("run: %w", outer), ErrCodeRepoNotFound, true},
		{"不匹配", outer, ErrCodeDatabase, false},
		{"普通错误", errors.New("plain"), ErrCodeInternal, false},
		{"nil", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}
