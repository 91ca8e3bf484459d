package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// clearEnv 保证测试不受宿主机环境变量影响。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NODE_ENV", "TTLOOKUP_MODE", "TTLOOKUP_ADDR", "TTLOOKUP_LOG_LEVEL", "TTLOOKUP_RETRY_MAX",
		"TTLOOKUP_TIMEOUT", "TTLOOKUP_PROXY_URL", "TTLOOKUP_PROVIDERS_ORDER",
		"TTLOOKUP_PROVIDERS_TIKWM_BASE_URL", "TTLOOKUP_PROVIDERS_TIKLYDOWN_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	eff, err := Load(cwd, Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Addr != DefaultAddr || eff.Mode != ModeProduction || eff.Development() {
		t.Fatalf("默认值不正确：%+v", eff)
	}
	if eff.LogLevel != slog.LevelInfo {
		t.Fatalf("期望默认 info，实际 %v", eff.LogLevel)
	}
	if eff.Timeout != DefaultTimeout || eff.RetryMax != 0 {
		t.Fatalf("网络默认值不正确：%+v", eff)
	}
	if !reflect.DeepEqual(eff.ProviderOrder, DefaultProviderOrder) {
		t.Fatalf("期望默认顺序 %v，实际 %v", DefaultProviderOrder, eff.ProviderOrder)
	}
	if eff.File != "" {
		t.Fatalf("未提供配置文件时 File 应为空，实际 %q", eff.File)
	}
}

func TestLoad_FileThenEnvThenCLI(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "ttlookup.json"), []byte(`{
		"addr": ":9000",
		"mode": "development",
		"timeout": "5s",
		"providers": {"order": ["tiklydown", "tikwm"], "tikwm_base_url": "https://www.tikwm.com/"}
	}`))

	eff, err := Load(cwd, Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Addr != ":9000" || !eff.Development() || eff.Timeout != 5*time.Second {
		t.Fatalf("配置文件未生效：%+v", eff)
	}
	if eff.TikwmBaseURL != "https://www.tikwm.com" {
		t.Fatalf("base url 应去掉尾部 /，实际 %q", eff.TikwmBaseURL)
	}
	if !reflect.DeepEqual(eff.ProviderOrder, []string{"tiklydown", "tikwm"}) {
		t.Fatalf("顺序未生效：%v", eff.ProviderOrder)
	}

	// 环境变量覆盖配置文件。
	t.Setenv("TTLOOKUP_ADDR", ":9100")
	eff, err = Load(cwd, Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Addr != ":9100" {
		t.Fatalf("期望 env 覆盖 addr，实际 %q", eff.Addr)
	}

	// CLI 覆盖环境变量。
	eff, err = Load(cwd, Overrides{Addr: ":9200", AddrSet: true, Mode: "production", ModeSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Addr != ":9200" || eff.Development() {
		t.Fatalf("期望 CLI 覆盖，实际 %+v", eff)
	}
}

func TestLoad_NodeEnvSelectsDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NODE_ENV", "development")

	eff, err := Load(t.TempDir(), Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !eff.Development() {
		t.Fatalf("NODE_ENV=development 应开启 development 模式")
	}
}

func TestLoad_NodeEnvOtherValuesMeanProduction(t *testing.T) {
	for _, env := range []string{"staging", "test", "Development"} {
		t.Run(env, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("NODE_ENV", env)

			eff, err := Load(t.TempDir(), Overrides{})
			if err != nil {
				t.Fatalf("NODE_ENV=%q 不应导致配置错误：%v", env, err)
			}
			if eff.Mode != ModeProduction {
				t.Fatalf("期望 mode=%q，实际=%q", ModeProduction, eff.Mode)
			}
		})
	}
}

func TestLoad_NodeEnvPrecedence(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "ttlookup.json"), []byte(`{"mode":"production"}`))
	t.Setenv("NODE_ENV", "development")

	eff, err := Load(cwd, Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mode != ModeDevelopment {
		t.Fatalf("NODE_ENV 应覆盖配置文件，实际 mode=%q", eff.Mode)
	}

	t.Setenv("TTLOOKUP_MODE", "production")
	eff, err = Load(cwd, Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mode != ModeProduction {
		t.Fatalf("TTLOOKUP_MODE 应优先于 NODE_ENV，实际 mode=%q", eff.Mode)
	}

	eff, err = Load(cwd, Overrides{Mode: ModeDevelopment, ModeSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Mode != ModeDevelopment {
		t.Fatalf("--mode 应优先于环境变量，实际 mode=%q", eff.Mode)
	}
}

func TestLoad_StrictModeStillValidated(t *testing.T) {
	clearEnv(t)
	t.Setenv("TTLOOKUP_MODE", "staging")

	_, err := Load(t.TempDir(), Overrides{})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}

	clearEnv(t)
	_, err = Load(t.TempDir(), Overrides{Mode: "staging", ModeSet: true})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoad_ProviderOrderFromEnvList(t *testing.T) {
	clearEnv(t)
	t.Setenv("TTLOOKUP_PROVIDERS_ORDER", "tiklydown, tikwm")

	eff, err := Load(t.TempDir(), Overrides{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !reflect.DeepEqual(eff.ProviderOrder, []string{"tiklydown", "tikwm"}) {
		t.Fatalf("env 顺序未生效：%v", eff.ProviderOrder)
	}
}

func TestLoad_ExplicitConfigNotFound(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()

	_, err := Load(cwd, Overrides{ConfigPath: "missing.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoad_ExplicitYAML(t *testing.T) {
	clearEnv(t)
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "conf.yaml"), []byte("log_level: debug\nretry_max: 1\nproxy:\n  url: http://127.0.0.1:7890\n"))

	eff, err := Load(cwd, Overrides{ConfigPath: "conf.yaml"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.LogLevel != slog.LevelDebug || eff.RetryMax != 1 || eff.ProxyURL != "http://127.0.0.1:7890" {
		t.Fatalf("yaml 未生效：%+v", eff)
	}
	if eff.File != filepath.Join(cwd, "conf.yaml") {
		t.Fatalf("File 不正确：%q", eff.File)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"broken json":   `{`,
		"bad mode":      `{"mode":"staging"}`,
		"bad level":     `{"log_level":"loud"}`,
		"bad retry":     `{"retry_max":3}`,
		"bad timeout":   `{"timeout":"-1s"}`,
		"bad provider":  `{"providers":{"order":["tikwm","nope"]}}`,
		"bad base url":  `{"providers":{"tiklydown_base_url":"ftp://x"}}`,
		"bad proxy url": `{"proxy":{"url":"http://[::1"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			cwd := t.TempDir()
			writeFile(t, filepath.Join(cwd, "ttlookup.json"), []byte(body))

			_, err := Load(cwd, Overrides{})
			if Code(err) != ErrCodeInvalid {
				t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
			}
		})
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
