package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/ttlookup/internal/config"
	"github.com/John-Robertt/ttlookup/internal/metrics"
	"github.com/John-Robertt/ttlookup/internal/server"
)

func newServeCmd(rf *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务（GET " + server.LookupPath + "?url=...）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o := config.Overrides{}
			if cmd.Flags().Changed("addr") {
				o.Addr, o.AddrSet = addr, true
			}
			eff, err := loadConfig(cmd, rf, o)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), eff)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "监听地址")
	return cmd
}

func runServe(ctx context.Context, eff config.EffectiveConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(os.Stderr, eff)
	if !eff.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return err
	}

	chain, err := newChain(eff, logger, rec)
	if err != nil {
		return err
	}

	if isTTY(os.Stderr) {
		printEffective(os.Stderr, eff, chain.Names())
	}
	logger.Info("starting ttlookup",
		slog.String("version", version),
		slog.String("mode", eff.Mode),
		slog.Any("providers", chain.Names()),
		slog.String("config", eff.File),
	)

	srv, err := server.New(server.Options{
		Lookup:      chain,
		Development: eff.Development(),
		Logger:      logger,
		Metrics:     rec,
		Gatherer:    reg,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, eff.Addr)
}
