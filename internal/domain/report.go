package domain

import (
	"encoding/json"
	"time"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const (
	StageFetch = "fetch"
	StageParse = "parse"
	StageOK    = "ok"
)

// LookupReport 是一次查询的可追溯记录（CLI lookup --trace 输出 / 日志）。
// 它解释“为什么最终用了哪个 provider”，不进入 HTTP 响应体。
type LookupReport struct {
	URL          string `json:"url"`
	Outcome      string `json:"outcome"`
	ProviderUsed string `json:"provider_used"`
	ErrorCode    string `json:"error_code"`
	ErrorMsg     string `json:"error_msg"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Attempts []ProviderAttempt `json:"attempts"`
	Result   *NormalizedResult `json:"result,omitempty"`
}

// ProviderAttempt 是单个 provider 的尝试结果。
type ProviderAttempt struct {
	Provider   string `json:"provider"`
	Stage      string `json:"stage"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) attempts 为 nil 时输出 []，保证结构稳定
func (r *LookupReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Attempts == nil {
		r.Attempts = []ProviderAttempt{}
	}
	if r.Outcome == "" {
		r.Outcome = OutcomeFailure
		if r.Result != nil {
			r.Outcome = OutcomeSuccess
		}
	}
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r LookupReport) MarshalJSON() ([]byte, error) {
	type Alias LookupReport
	return json.Marshal(Alias(r))
}
