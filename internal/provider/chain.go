package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/John-Robertt/ttlookup/internal/domain"
)

// AggregateMessage 是所有 provider 都失败时对外的统一说明。
const AggregateMessage = "All TikTok fetch methods failed. The video might be private or the URL is invalid."

// Attempt 记录一次 provider 尝试（用于解释 fallback 原因）。
type Attempt struct {
	Provider string // provider name（小写）
	Stage    string // domain.StageFetch / StageParse / StageOK
	Err      error  // nil when Stage==StageOK
	Duration time.Duration
}

// Report 把 Attempt 转成可序列化的 domain.ProviderAttempt。
func (a Attempt) Report() domain.ProviderAttempt {
	pa := domain.ProviderAttempt{
		Provider:   a.Provider,
		Stage:      a.Stage,
		DurationMS: a.Duration.Milliseconds(),
	}
	if a.Err != nil {
		pa.Error = a.Err.Error()
	}
	return pa
}

// Error 是 provider 阶段的可追溯错误。
type Error struct {
	Provider string // provider name（小写）
	Stage    string // "fetch" 或 "parse"
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider=%s stage=%s: %v", e.Provider, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AggregateError 表示按顺序尝试的所有 provider 都失败了。
// Error() 只返回对外说明；每个 provider 的具体原因在 Attempts / Unwrap 里。
type AggregateError struct {
	Attempts []Attempt
}

func (e *AggregateError) Error() string { return AggregateMessage }

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, &Error{Provider: a.Provider, Stage: a.Stage, Err: a.Err})
		}
	}
	return errs
}

// Chain 按固定优先级依次尝试 provider，首个成功即返回。
//
// 约束：
// - 严格串行：不并发请求多个 provider
// - 每个 provider 每次查询最多调用一次
// - provider 的任何失败（网络、非 2xx、载荷不完整、panic）都在本地吸收，转成 Attempt
// - Chain 本身无可变状态，可被多个请求并发复用
type Chain struct {
	providers []Provider
	client    *http.Client
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Chain)

func WithObserver(o Observer) Option { return func(c *Chain) { c.observer = o } }

func WithLogger(l *slog.Logger) Option { return func(c *Chain) { c.logger = l } }

// NewChain 以 order 指定的顺序从 reg 中组装 Chain。
func NewChain(reg Registry, order []string, client *http.Client, opts ...Option) (*Chain, error) {
	ps, err := reg.Ordered(order)
	if err != nil {
		return nil, err
	}
	c := &Chain{
		providers: ps,
		client:    client,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Names 返回生效的 provider 顺序。
func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		out = append(out, strings.ToLower(p.Name()))
	}
	return out
}

// Lookup 返回首个成功 provider 的结果；全部失败时返回 *AggregateError。
func (c *Chain) Lookup(ctx context.Context, req domain.LookupRequest) (domain.NormalizedResult, error) {
	res, _, _, err := c.LookupTrace(ctx, req)
	return res, err
}

// LookupTrace 与 Lookup 相同，但额外返回最终使用的 provider 与尝试链路。
// 状态流转：Start -> Try[0] -> {Success | Try[1]} -> ... -> {Success | Failure}
func (c *Chain) LookupTrace(ctx context.Context, req domain.LookupRequest) (res domain.NormalizedResult, providerUsed string, attempts []Attempt, err error) {
	if strings.TrimSpace(req.URL) == "" {
		return domain.NormalizedResult{}, "", nil, fmt.Errorf("url 不能为空")
	}

	start := c.now()
	defer func() {
		if c.observer != nil {
			c.observer.OnDone(providerUsed, err, c.now().Sub(start))
		}
	}()

	for _, p := range c.providers {
		if ctx.Err() != nil {
			// 请求已被取消：不再尝试后续 provider，直接按“全部失败”处理。
			attempts = append(attempts, Attempt{Provider: strings.ToLower(p.Name()), Stage: domain.StageFetch, Err: ctx.Err()})
			continue
		}

		a, r := c.try(ctx, p, req.URL)
		attempts = append(attempts, a)
		if c.observer != nil {
			c.observer.OnAttempt(a)
		}
		if a.Err != nil {
			c.logger.Warn("provider failed",
				slog.String("provider", a.Provider),
				slog.String("stage", a.Stage),
				slog.Duration("took", a.Duration),
				slog.Any("error", a.Err),
			)
			continue
		}
		r.Finalize()
		return r, a.Provider, attempts, nil
	}
	return domain.NormalizedResult{}, "", attempts, &AggregateError{Attempts: attempts}
}

// try 执行单个 provider 的 fetch+parse；panic 也被转成该 provider 的失败。
func (c *Chain) try(ctx context.Context, p Provider, videoURL string) (a Attempt, res domain.NormalizedResult) {
	name := strings.ToLower(p.Name())
	a = Attempt{Provider: name, Stage: domain.StageFetch}
	start := c.now()
	defer func() {
		if rec := recover(); rec != nil {
			a.Err = fmt.Errorf("panic: %v", rec)
			res = domain.NormalizedResult{}
		}
		a.Duration = c.now().Sub(start)
	}()

	body, err := p.Fetch(ctx, videoURL, c.client)
	if err != nil {
		a.Err = err
		return a, domain.NormalizedResult{}
	}

	a.Stage = domain.StageParse
	res, err = p.Parse(body)
	if err != nil {
		a.Err = err
		return a, domain.NormalizedResult{}
	}
	a.Stage = domain.StageOK
	return a, res
}

// IsAggregate 判断 err 是否表示“所有 provider 都失败”。
func IsAggregate(err error) bool {
	var ae *AggregateError
	return errors.As(err, &ae)
}
