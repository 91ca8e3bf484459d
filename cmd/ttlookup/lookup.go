package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/ttlookup/internal/config"
	"github.com/John-Robertt/ttlookup/internal/domain"
	"github.com/John-Robertt/ttlookup/internal/lookupurl"
	"github.com/John-Robertt/ttlookup/internal/provider"
)

func newLookupCmd(rf *rootFlags) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "lookup <url>",
		Short: "查询一次并把响应 JSON 输出到 stdout（与 HTTP 接口的响应体一致）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := loadConfig(cmd, rf, config.Overrides{})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runLookup(ctx, eff, args[0], trace, os.Stdout, os.Stderr)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "输出带 provider 尝试链路的 LookupReport，而不是响应体")
	return cmd
}

// runLookup 的输出契约：stdout 必须且仅输出一个 JSON；过程信息只走 stderr。
// 退出码：0 成功；1 所有 provider 失败；2 输入不合法。
func runLookup(ctx context.Context, eff config.EffectiveConfig, raw string, trace bool, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, eff)
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	req, err := lookupurl.Validate(raw)
	if err != nil {
		body := domain.ClientError{Error: domain.MsgInvalidURL, Message: domain.MsgInvalidURLHint}
		if lookupurl.IsMissing(err) {
			body = domain.ClientError{Error: domain.MsgURLRequired, Usage: domain.UsageHint}
		}
		_ = enc.Encode(body)
		return &exitError{code: 2}
	}

	var obs provider.Observer
	if isTTY(stderr) {
		obs = newAttemptPrinter(stderr)
	}
	chain, err := newChain(eff, logger, obs)
	if err != nil {
		return err
	}

	started := time.Now()
	res, used, attempts, lerr := chain.LookupTrace(ctx, req)

	if trace {
		rr := domain.LookupReport{
			URL:          req.URL,
			ProviderUsed: used,
			StartedAt:    started,
			FinishedAt:   time.Now(),
		}
		for _, a := range attempts {
			rr.Attempts = append(rr.Attempts, a.Report())
		}
		if lerr != nil {
			rr.ErrorCode = domain.ErrCodeUnexpectedFault
			if provider.IsAggregate(lerr) {
				rr.ErrorCode = domain.ErrCodeAggregateFailure
			}
			rr.ErrorMsg = lerr.Error()
		} else {
			rr.Result = &res
		}
		rr.Finalize()
		_ = enc.Encode(rr)
	} else if lerr != nil {
		_ = enc.Encode(domain.NewFailure(lerr, eff.Development()))
	} else {
		_ = enc.Encode(domain.NewSuccess(res, time.Now()))
	}

	if lerr != nil {
		return &exitError{code: 1}
	}
	return nil
}
