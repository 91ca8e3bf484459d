package lookupurl

import (
	"errors"
	"net/url"
	"regexp"

	"github.com/John-Robertt/ttlookup/internal/domain"
)

// 可选 scheme + 可选 www. + 三种 TikTok 域名。
// 注意：这里是“包含匹配”而非整串匹配，与线上行为保持一致；URL 本身原样透传，不做规范化。
var tiktokRE = regexp.MustCompile(`(https?://)?(www\.)?(tiktok\.com|vm\.tiktok\.com|vt\.tiktok\.com)`)

// Error 是输入校验阶段的结构化错误。
type Error struct {
	// Code: domain.ErrCodeMissingParameter 或 domain.ErrCodeInvalidURL
	Code string
	URL  string
}

func (e *Error) Error() string {
	switch e.Code {
	case domain.ErrCodeMissingParameter:
		return "缺少 url 参数"
	case domain.ErrCodeInvalidURL:
		return "不是 TikTok URL：" + e.URL
	default:
		return "invalid request"
	}
}

// FromQuery 从 query 参数中取出 url 并校验。
// 无副作用；成功时返回的 URL 与输入完全一致。
func FromQuery(q url.Values) (domain.LookupRequest, error) {
	return Validate(q.Get("url"))
}

// Validate 校验单个 URL 字符串（空串视为缺参）。
func Validate(raw string) (domain.LookupRequest, error) {
	if raw == "" {
		return domain.LookupRequest{}, &Error{Code: domain.ErrCodeMissingParameter}
	}
	if !tiktokRE.MatchString(raw) {
		return domain.LookupRequest{}, &Error{Code: domain.ErrCodeInvalidURL, URL: raw}
	}
	return domain.LookupRequest{URL: raw}, nil
}

// IsMissing 判断 err 是否是“缺少 url 参数”。
func IsMissing(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == domain.ErrCodeMissingParameter
}
