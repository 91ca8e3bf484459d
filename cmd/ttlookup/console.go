package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/ttlookup/internal/config"
	"github.com/John-Robertt/ttlookup/internal/provider"
)

var _ provider.Observer = (*attemptPrinter)(nil)

// attemptPrinter 在交互终端里逐条打印 provider 尝试（写 stderr，不污染 stdout 的 JSON）。
type attemptPrinter struct {
	w  io.Writer
	mu sync.Mutex
}

func newAttemptPrinter(w io.Writer) *attemptPrinter { return &attemptPrinter{w: w} }

func (p *attemptPrinter) OnAttempt(a provider.Attempt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("[%s] %s %s (%s)", time.Now().Format("15:04:05"), a.Provider, a.Stage, formatShortDuration(a.Duration))
	if a.Err != nil {
		line += ": " + truncate(a.Err.Error(), 120)
	}
	fmt.Fprintln(p.w, line)
}

func (p *attemptPrinter) OnDone(used string, err error, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		fmt.Fprintf(p.w, "失败（%s）：%v\n", formatShortDuration(dur), err)
		return
	}
	fmt.Fprintf(p.w, "完成：provider=%s（%s）\n", used, formatShortDuration(dur))
}

// printEffective 打印生效配置，降低“到底用了哪套配置”的排查成本。
func printEffective(w io.Writer, eff config.EffectiveConfig, providers []string) {
	fmt.Fprintln(w, "配置（生效）:")
	fmt.Fprintf(w, "  addr: %s\n", eff.Addr)
	fmt.Fprintf(w, "  mode: %s\n", eff.Mode)
	fmt.Fprintf(w, "  providers: %s\n", strings.Join(providers, " -> "))
	fmt.Fprintf(w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(w, "  timeout: %s\n", eff.Timeout)
	if eff.File != "" {
		fmt.Fprintf(w, "  config: %s\n", eff.File)
	}
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
