package provider

import (
	"fmt"
	"strings"
)

// HTTPStatusError 表示 provider 返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}

// BlockedError 表示 provider 返回了 HTML 页面（通常是验证/拦截页或维护页）而不是 JSON。
// 不尝试绕过，直接视为该 provider 失败，让 Chain 走回退。
type BlockedError struct {
	URL    string
	Reason string // 页面 <title>，例如 "Just a moment..."
}

func (e *BlockedError) Error() string {
	if e == nil {
		return "blocked"
	}
	if strings.TrimSpace(e.Reason) == "" {
		return "blocked"
	}
	return "blocked: " + strings.TrimSpace(e.Reason)
}

// MissingDataError 表示响应可以解析，但缺少“可用”所需的字段（成功标记 / data / 无水印视频）。
type MissingDataError struct {
	Provider string
	Field    string
	Msg      string // provider 自带的错误文本（可能为空）
}

func (e *MissingDataError) Error() string {
	s := fmt.Sprintf("%s 响应缺少 %s", e.Provider, e.Field)
	if m := strings.TrimSpace(e.Msg); m != "" {
		s += "：" + m
	}
	return s
}
