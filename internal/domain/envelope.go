package domain

import "time"

const (
	ErrCodeMissingParameter = "missing_parameter"
	ErrCodeInvalidURL       = "invalid_url"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeProviderFailure  = "provider_failure"
	ErrCodeAggregateFailure = "aggregate_failure"
	ErrCodeUnexpectedFault  = "unexpected_fault"
)

const (
	MsgFetched         = "TikTok video fetched successfully"
	MsgInternalError   = "Internal server error"
	MsgProcessFailed   = "Failed to process TikTok URL. Please try again later."
	MsgURLRequired     = "URL parameter is required"
	MsgInvalidURL      = "Invalid TikTok URL"
	MsgInvalidURLHint  = "Please provide a valid TikTok URL"
	MsgMethodNotAllow  = "Method not allowed. Only GET requests are supported."
	UsageHint          = "GET /api/downloader/tiktok?url=https://vm.tiktok.com/..."
	timestampLayoutISO = "2006-01-02T15:04:05.000Z07:00"
)

// SuccessEnvelope 是 200 响应体。
type SuccessEnvelope struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	Data      NormalizedResult `json:"data"`
	Timestamp string           `json:"timestamp"`
}

// FailureEnvelope 是 500 响应体。Details 只在 development 模式下填充，否则整个字段省略。
type FailureEnvelope struct {
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// ClientError 是 400/405 响应体。
type ClientError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

// NewSuccess 构造成功响应；时间统一为 UTC 毫秒精度（形如 2026-10-18T08:00:00.000Z）。
func NewSuccess(r NormalizedResult, now time.Time) SuccessEnvelope {
	r.Finalize()
	return SuccessEnvelope{
		Success:   true,
		Message:   MsgFetched,
		Data:      r,
		Timestamp: FormatTimestamp(now),
	}
}

// NewFailure 构造 500 响应；exposeDetails=false 时不泄露任何内部错误信息。
func NewFailure(err error, exposeDetails bool) FailureEnvelope {
	f := FailureEnvelope{
		Success: false,
		Error:   MsgInternalError,
		Message: MsgProcessFailed,
	}
	if exposeDetails && err != nil {
		d := err.Error()
		f.Details = &d
	}
	return f
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayoutISO)
}
