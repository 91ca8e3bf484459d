package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/ttlookup/internal/config"
)

var version = "dev"

// exitError 携带进程退出码；cobra 只负责解析，退出码由 main 统一决定。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type rootFlags struct {
	configPath string
	mode       string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		if ee == nil || ee.err != nil {
			fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		}
		os.Exit(code)
	}
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "ttlookup",
		Short:         "TikTok 视频元数据查询服务（多 provider 回退）",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rf.configPath, "config", "", "配置文件路径（默认读取 ./ttlookup.{json,yaml}，可选）")
	root.PersistentFlags().StringVar(&rf.mode, "mode", "", "运行模式：production|development（覆盖配置与 NODE_ENV）")

	root.AddCommand(newServeCmd(rf), newLookupCmd(rf))
	return root
}

// loadConfig 合并 CLI 覆盖项并加载最终配置；配置错误统一映射为退出码 2。
func loadConfig(cmd *cobra.Command, rf *rootFlags, o config.Overrides) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, fmt.Errorf("读取当前目录失败：%w", err)
	}
	o.ConfigPath = rf.configPath
	if cmd.Flags().Changed("mode") {
		o.Mode = rf.mode
		o.ModeSet = true
	}
	eff, err := config.Load(cwd, o)
	if err != nil {
		return config.EffectiveConfig{}, &exitError{code: 2, err: err}
	}
	return eff, nil
}
