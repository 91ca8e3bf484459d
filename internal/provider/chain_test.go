package provider

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/ttlookup/internal/domain"
)

type stubProvider struct {
	name string

	fetchErr   error
	parseErr   error
	fetchPanic bool

	body []byte
	res  domain.NormalizedResult

	fetchCalls int
	parseCalls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(ctx context.Context, videoURL string, c *http.Client) ([]byte, error) {
	p.fetchCalls++
	if p.fetchPanic {
		panic("boom")
	}
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	return p.body, nil
}

func (p *stubProvider) Parse(body []byte) (domain.NormalizedResult, error) {
	p.parseCalls++
	if p.parseErr != nil {
		return domain.NormalizedResult{}, p.parseErr
	}
	return p.res, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []Attempt
	used     string
	err      error
	done     int
}

func (o *recordingObserver) OnAttempt(a Attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, a)
}

func (o *recordingObserver) OnDone(used string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.used, o.err = used, err
	o.done++
}

var req = domain.LookupRequest{URL: "https://vm.tiktok.com/ZM1/"}

func newChain(t *testing.T, opts []Option, ps ...Provider) *Chain {
	t.Helper()
	reg, err := NewRegistry(ps...)
	require.NoError(t, err)
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name())
	}
	c, err := NewChain(reg, names, nil, opts...)
	require.NoError(t, err)
	return c
}

func TestLookup_FirstProviderWins(t *testing.T) {
	a := &stubProvider{name: "a", body: []byte("{}"), res: domain.NormalizedResult{Title: "from a", Video: []string{"https://v/a.mp4"}}}
	b := &stubProvider{name: "b", body: []byte("{}"), res: domain.NormalizedResult{Title: "from b"}}

	res, used, attempts, err := newChain(t, nil, a, b).LookupTrace(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "a", used)
	assert.Equal(t, "from a", res.Title)
	assert.Equal(t, domain.DefaultAuthor, res.Author, "结果应已补齐默认值")
	assert.Equal(t, []string{}, res.Audio)
	assert.Len(t, attempts, 1)
	assert.Zero(t, b.fetchCalls, "首个 provider 成功时不应调用后续 provider")
}

func TestLookup_FallbackOnFetchFail(t *testing.T) {
	a := &stubProvider{name: "a", fetchErr: &HTTPStatusError{StatusCode: 502}}
	b := &stubProvider{name: "b", body: []byte("{}"), res: domain.NormalizedResult{Title: "from b"}}
	obs := &recordingObserver{}

	res, used, attempts, err := newChain(t, []Option{WithObserver(obs)}, a, b).LookupTrace(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "b", used)
	assert.Equal(t, "from b", res.Title)
	require.Len(t, attempts, 2)
	assert.Equal(t, domain.StageFetch, attempts[0].Stage)
	assert.Error(t, attempts[0].Err)
	assert.Equal(t, domain.StageOK, attempts[1].Stage)
	assert.NoError(t, attempts[1].Err)

	assert.Len(t, obs.attempts, 2)
	assert.Equal(t, 1, obs.done)
	assert.Equal(t, "b", obs.used)
}

func TestLookup_FallbackOnParseFail(t *testing.T) {
	a := &stubProvider{name: "a", body: []byte("{}"), parseErr: &MissingDataError{Provider: "a", Field: "data"}}
	b := &stubProvider{name: "b", body: []byte("{}"), res: domain.NormalizedResult{Title: "ok"}}

	_, used, attempts, err := newChain(t, nil, a, b).LookupTrace(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b", used)
	assert.Equal(t, domain.StageParse, attempts[0].Stage)
	assert.Equal(t, 1, a.fetchCalls)
	assert.Equal(t, 1, a.parseCalls)
}

func TestLookup_PanicIsProviderFailure(t *testing.T) {
	a := &stubProvider{name: "a", fetchPanic: true}
	b := &stubProvider{name: "b", body: []byte("{}"), res: domain.NormalizedResult{Title: "ok"}}

	_, used, attempts, err := newChain(t, nil, a, b).LookupTrace(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b", used)
	assert.ErrorContains(t, attempts[0].Err, "panic")
}

func TestLookup_AllFail(t *testing.T) {
	a := &stubProvider{name: "a", fetchErr: errors.New("dial tcp: refused")}
	b := &stubProvider{name: "b", body: []byte("{}"), parseErr: &MissingDataError{Provider: "b", Field: "video.noWatermark"}}
	obs := &recordingObserver{}

	_, used, attempts, err := newChain(t, []Option{WithObserver(obs)}, a, b).LookupTrace(context.Background(), req)
	require.Error(t, err)

	assert.Empty(t, used)
	assert.Len(t, attempts, 2)
	assert.True(t, IsAggregate(err))
	assert.Equal(t, AggregateMessage, err.Error())
	assert.Equal(t, 1, a.fetchCalls, "每个 provider 最多调用一次")
	assert.Equal(t, 1, b.fetchCalls, "每个 provider 最多调用一次")

	var md *MissingDataError
	assert.True(t, errors.As(err, &md), "AggregateError 应能展开到具体原因")

	assert.Equal(t, err, obs.err)
}

func TestLookup_CanceledContextSkipsProviders(t *testing.T) {
	a := &stubProvider{name: "a", body: []byte("{}")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, attempts, err := newChain(t, nil, a).LookupTrace(ctx, req)
	require.Error(t, err)
	assert.True(t, IsAggregate(err))
	assert.Zero(t, a.fetchCalls)
	require.Len(t, attempts, 1)
	assert.ErrorIs(t, attempts[0].Err, context.Canceled)
}

func TestLookup_EmptyURL(t *testing.T) {
	a := &stubProvider{name: "a"}
	_, err := newChain(t, nil, a).Lookup(context.Background(), domain.LookupRequest{})
	require.Error(t, err)
	assert.False(t, IsAggregate(err))
	assert.Zero(t, a.fetchCalls)
}

func TestNewChain_UnknownProvider(t *testing.T) {
	reg, err := NewRegistry(&stubProvider{name: "a"})
	require.NoError(t, err)

	_, err = NewChain(reg, []string{"a", "nope"}, nil)
	assert.Error(t, err)

	_, err = NewChain(reg, []string{"a", "A"}, nil)
	assert.Error(t, err, "重复的顺序项应报错")

	_, err = NewChain(reg, nil, nil)
	assert.Error(t, err)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(&stubProvider{name: "a"}, &stubProvider{name: " A "})
	assert.Error(t, err)

	_, err = NewRegistry(&stubProvider{name: ""})
	assert.Error(t, err)
}

func TestAttempt_Report(t *testing.T) {
	a := Attempt{Provider: "tikwm", Stage: domain.StageFetch, Err: &HTTPStatusError{StatusCode: 403}, Duration: 1500 * time.Millisecond}
	r := a.Report()
	assert.Equal(t, "tikwm", r.Provider)
	assert.Equal(t, domain.StageFetch, r.Stage)
	assert.Equal(t, "HTTP 403", r.Error)
	assert.EqualValues(t, 1500, r.DurationMS)

	assert.Empty(t, Attempt{Provider: "x", Stage: domain.StageOK}.Report().Error)
}
