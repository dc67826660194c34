package domain

import "strings"

// TruncateLines 保留前 max 行 (以 \n 切分)
// 行数不超过 max 时原样返回；max <= 0 表示不限制
func TruncateLines(content string, max int) (string, bool) {
	if max <= 0 {
		return content, false
	}
	idx := 0
	for i := 0; i < max; i++ {
		j := strings.IndexByte(content[idx:], '\n')
		if j < 0 {
			return content, false
		}
		idx += j + 1
	}
	// idx 指向第 max 个换行符之后，去掉这个换行符
	return content[:idx-1], true
}

// TruncateChars 保留前 max 个字符 (按 rune 计数，不会截断多字节字符)
func TruncateChars(s string, max int) (string, bool) {
	if max <= 0 {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
