package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTimeout = 20 * time.Second
	// MaxRetry 是允许配置的最大重试次数：同一个 provider 在一次查询里最多被请求两次。
	MaxRetry = 1
)

// Options 是 provider 查询 client 的网络策略。
type Options struct {
	ProxyURL string
	Timeout  time.Duration // <=0 时使用 DefaultTimeout
	RetryMax int           // 截断到 [0, MaxRetry]
}

// Transport 把“代理 + keep-alive 策略 + 有界重试”固化为统一策略。
//
// 设计目标：provider 只负责“拼接口 URL + 解析 JSON”，不关心网络策略细节。
// 注意：Transport 不注入 User-Agent；需要浏览器 UA 的 provider 自己调用 BrowserUA()。
type Transport struct {
	Base *http.Transport

	// RetryMax 表示最大重试次数（不含首次尝试）。只对传输层错误重试，不对非 2xx 重试。
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只对“可重放”的请求做重试：GET/HEAD 且无 body。
	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
	max := t.RetryMax
	if max < 0 {
		max = 0
	}
	if !canRetry {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		resp, err := t.Base.RoundTrip(req.Clone(req.Context()))
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			// ctx 已取消：不再重试，直接返回最后错误。
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewLookupClient 构造 provider 查询用的 HTTP client。
//
// 规则：
// - ProxyURL 非空：必须走代理，且禁用 keep-alive（每请求新连接）
// - 有界重试（默认不重试）+ 总超时
func NewLookupClient(o Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       60 * time.Second,
	}

	if proxyURL := strings.TrimSpace(o.ProxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		// proxy 模式强制每请求新连接（代理池轮换依赖该行为）。
		base.DisableKeepAlives = true
	}

	retry := o.RetryMax
	if retry < 0 {
		retry = 0
	}
	if retry > MaxRetry {
		retry = MaxRetry
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Transport: &Transport{
			Base:     base,
			RetryMax: retry,
		},
		Timeout: timeout,
	}, nil
}

// BrowserUA 返回一个常见桌面浏览器的 User-Agent（从内置池中随机取）。
func BrowserUA() string { return globalUA.random() }

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
