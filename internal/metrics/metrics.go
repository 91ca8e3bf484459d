package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/John-Robertt/ttlookup/internal/domain"
	"github.com/John-Robertt/ttlookup/internal/provider"
)

const namespace = "ttlookup"

// Recorder 收集查询与 provider 尝试的指标；实现 provider.Observer。
// 所有 Vec 都是并发安全的，可被多个请求同时调用。
type Recorder struct {
	lookups   *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	responses *prometheus.CounterVec
}

// NewRecorder 创建指标并注册到 reg（传 nil 时使用默认 Registerer）。
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Total number of lookups by outcome and provider used",
		}, []string{"outcome", "provider"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Total number of provider attempts by provider and final stage",
		}, []string{"provider", "stage"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Histogram of provider attempt durations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
		}, []string{"provider"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_responses_total",
			Help:      "Total number of HTTP responses by status code",
		}, []string{"code"}),
	}
	for _, c := range []prometheus.Collector{r.lookups, r.attempts, r.duration, r.responses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) OnAttempt(a provider.Attempt) {
	r.attempts.WithLabelValues(a.Provider, a.Stage).Inc()
	r.duration.WithLabelValues(a.Provider).Observe(a.Duration.Seconds())
}

func (r *Recorder) OnDone(providerUsed string, err error, _ time.Duration) {
	if err != nil {
		r.lookups.WithLabelValues(domain.OutcomeFailure, "").Inc()
		return
	}
	r.lookups.WithLabelValues(domain.OutcomeSuccess, providerUsed).Inc()
}

// ObserveResponse 记录一次 HTTP 响应的状态码。
func (r *Recorder) ObserveResponse(status int) {
	r.responses.WithLabelValues(strconv.Itoa(status)).Inc()
}
