package main

import (
	"io"
	"log/slog"

	"github.com/John-Robertt/ttlookup/internal/config"
	"github.com/John-Robertt/ttlookup/internal/infra/httpx"
	"github.com/John-Robertt/ttlookup/internal/provider"
	"github.com/John-Robertt/ttlookup/internal/provider/tiklydown"
	"github.com/John-Robertt/ttlookup/internal/provider/tikwm"
)

// newLogger: development 用易读的 text，production 用 JSON（便于日志采集）。
func newLogger(w io.Writer, eff config.EffectiveConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: eff.LogLevel}
	if eff.Development() {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newChain 按配置组装 provider 注册表、查询 client 与回退链。
func newChain(eff config.EffectiveConfig, logger *slog.Logger, obs provider.Observer) (*provider.Chain, error) {
	reg, err := provider.NewRegistry(
		tikwm.Provider{BaseURL: eff.TikwmBaseURL},
		tiklydown.Provider{BaseURL: eff.TiklydownBaseURL},
	)
	if err != nil {
		return nil, err
	}

	client, err := httpx.NewLookupClient(httpx.Options{
		ProxyURL: eff.ProxyURL,
		Timeout:  eff.Timeout,
		RetryMax: eff.RetryMax,
	})
	if err != nil {
		return nil, err
	}

	opts := []provider.Option{provider.WithLogger(logger)}
	if obs != nil {
		opts = append(opts, provider.WithObserver(obs))
	}
	return provider.NewChain(reg, eff.ProviderOrder, client, opts...)
}
