package domain

import (
	"net/url"
	"strings"

	"repo-onboarder/internal/common"
)

// ParseRepoURL 从 GitHub 地址中解析出 owner 和仓库名
// 支持 https://github.com/owner/repo、末尾斜杠、.git 后缀以及 owner/repo 简写
func ParseRepoURL(raw string) (RepoRef, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	if s == "" {
		return RepoRef{}, common.NewError(common.ErrCodeInvalidInput, "仓库地址为空")
	}

	path := s
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		if !strings.EqualFold(u.Host, "github.com") && !strings.EqualFold(u.Host, "www.github.com") {
			return RepoRef{}, common.NewError(common.ErrCodeInvalidInput, "不是 GitHub 地址: "+raw)
		}
		path = u.Path
	} else {
		path = strings.TrimPrefix(path, "github.com/")
		path = strings.TrimPrefix(path, "www.github.com/")
	}

	var parts []string
	for _, p := range strings.Split(strings.Trim(path, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RepoRef{}, common.NewError(common.ErrCodeInvalidInput, "无效的 GitHub 地址: "+raw)
	}

	return RepoRef{Owner: parts[0], Name: parts[1]}, nil
}
