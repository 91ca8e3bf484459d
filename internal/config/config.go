package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ErrCodeNotFound 表示显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"
)

const (
	DefaultAddr     = ":8080"
	DefaultMode     = ModeProduction
	DefaultLogLevel = "info"
	DefaultTimeout  = 20 * time.Second
	// EnvPrefix 是环境变量前缀：TTLOOKUP_ADDR、TTLOOKUP_PROVIDERS_ORDER ...
	EnvPrefix = "TTLOOKUP"
	// FileName 是自动发现的配置文件名（不含扩展名，json/yaml/toml 均可）。
	FileName = "ttlookup"
)

// DefaultProviderOrder 是 provider 的默认优先级：tikwm 在前，tiklydown 兜底。
var DefaultProviderOrder = []string{"tikwm", "tiklydown"}

// Overrides 是 CLI 暴露的覆盖项，并保留“是否显式指定”的信息。
type Overrides struct {
	ConfigPath string

	Addr    string
	AddrSet bool

	Mode    string
	ModeSet bool
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Addr     string
	Mode     string
	LogLevel slog.Level

	ProxyURL string
	RetryMax int
	Timeout  time.Duration

	TikwmBaseURL     string
	TiklydownBaseURL string
	ProviderOrder    []string

	// File 是实际读取到的配置文件路径（未读取任何文件时为空）。
	File string
}

// Development 决定 500 响应是否带 details。
func (e EffectiveConfig) Development() bool { return e.Mode == ModeDevelopment }

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Load 读取配置并与 CLI 覆盖项合并为最终配置。
//
// 发现规则（固定）：
// 1) 指定了 ConfigPath：必须存在
// 2) 未指定：尝试读取 <cwd>/ttlookup.{json,yaml,...}（可选）
//
// 覆盖优先级（固定）：CLI > 环境变量 > 配置文件 > 默认值。
// mode 额外接受 NODE_ENV（兼容旧部署的环境变量）：优先级低于 TTLOOKUP_MODE，高于配置文件。
func Load(cwd string, o Overrides) (EffectiveConfig, error) {
	v := viper.New()
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("proxy.url", "")
	v.SetDefault("retry_max", 0)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("providers.tikwm_base_url", "")
	v.SetDefault("providers.tiklydown_base_url", "")
	v.SetDefault("providers.order", DefaultProviderOrder)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("mode", EnvPrefix+"_MODE")

	cfgPath := strings.TrimSpace(o.ConfigPath)
	if cfgPath != "" {
		cfgPath = absCleanFrom(cwd, cfgPath)
		if _, err := os.Stat(cfgPath); err != nil {
			if os.IsNotExist(err) {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: err}
			}
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: filepath.Join(cwd, FileName), Err: err}
			}
		}
	}

	if m, ok := nodeEnvMode(); ok {
		v.Set("mode", m)
	}
	if o.AddrSet {
		v.Set("addr", o.Addr)
	}
	if o.ModeSet {
		v.Set("mode", o.Mode)
	}

	return merge(v, v.ConfigFileUsed())
}

// nodeEnvMode 只在 TTLOOKUP_MODE 未设置时生效。
// NODE_ENV 不做校验：只有 "development" 开启 development，其余值（test/staging/...）都按 production。
func nodeEnvMode() (string, bool) {
	if strings.TrimSpace(os.Getenv(EnvPrefix+"_MODE")) != "" {
		return "", false
	}
	env := strings.TrimSpace(os.Getenv("NODE_ENV"))
	if env == "" {
		return "", false
	}
	if env == ModeDevelopment {
		return ModeDevelopment, true
	}
	return ModeProduction, true
}

func merge(v *viper.Viper, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	addr := strings.TrimSpace(v.GetString("addr"))
	if addr == "" {
		return invalid(fmt.Errorf("addr 不能为空"))
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("mode")))
	switch mode {
	case "":
		mode = DefaultMode
	case ModeProduction, ModeDevelopment:
	default:
		return invalid(fmt.Errorf("mode 只能是 production 或 development，实际是 %q", mode))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v.GetString("log_level")))); err != nil {
		return invalid(fmt.Errorf("log_level 无效：%w", err))
	}

	proxyURL := strings.TrimSpace(v.GetString("proxy.url"))
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return invalid(fmt.Errorf("proxy.url 无效：%w", err))
		}
	}

	retryMax := v.GetInt("retry_max")
	if retryMax < 0 || retryMax > 1 {
		return invalid(fmt.Errorf("retry_max 只能是 0 或 1，实际是 %d", retryMax))
	}

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		return invalid(fmt.Errorf("timeout 必须大于 0，实际是 %v", timeout))
	}

	tikwmBase, err := baseURL("providers.tikwm_base_url", v.GetString("providers.tikwm_base_url"))
	if err != nil {
		return invalid(err)
	}
	tiklyBase, err := baseURL("providers.tiklydown_base_url", v.GetString("providers.tiklydown_base_url"))
	if err != nil {
		return invalid(err)
	}

	order := splitList(v.GetStringSlice("providers.order"))
	if len(order) == 0 {
		order = append([]string(nil), DefaultProviderOrder...)
	}
	for _, name := range order {
		if err := validateProvider(name); err != nil {
			return invalid(err)
		}
	}

	return EffectiveConfig{
		Addr:             addr,
		Mode:             mode,
		LogLevel:         level,
		ProxyURL:         proxyURL,
		RetryMax:         retryMax,
		Timeout:          timeout,
		TikwmBaseURL:     tikwmBase,
		TiklydownBaseURL: tiklyBase,
		ProviderOrder:    order,
		File:             cfgPath,
	}, nil
}

func baseURL(key, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s 无效：%q", key, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s 必须是 http/https：%q", key, raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

func validateProvider(p string) error {
	switch p {
	case "tikwm", "tiklydown":
		return nil
	case "":
		return fmt.Errorf("provider 不能为空")
	default:
		return fmt.Errorf("provider 只能是 tikwm 或 tiklydown，实际是 %q", p)
	}
}

// splitList 兼容两种写法：["a","b"]（配置文件）与 "a,b"（环境变量）。
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
