package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/John-Robertt/ttlookup/internal/domain"
	"github.com/John-Robertt/ttlookup/internal/metrics"
)

// LookupPath 是对外暴露的查询路径（沿用线上部署的路径）。
const LookupPath = "/api/downloader/tiktok"

const shutdownTimeout = 10 * time.Second

// Lookuper 是 handler 对回退链的唯一依赖（便于测试替换）。
type Lookuper interface {
	Lookup(ctx context.Context, req domain.LookupRequest) (domain.NormalizedResult, error)
}

// Options 是构造 Server 所需的依赖；Development 由配置显式传入，handler 不读取环境变量。
type Options struct {
	Lookup      Lookuper
	Development bool
	Logger      *slog.Logger
	Metrics     *metrics.Recorder   // 可选
	Gatherer    prometheus.Gatherer // 可选；为 nil 时不挂 /metrics
	Now         func() time.Time
}

// Server 持有 gin 路由；所有状态只读，可并发处理请求。
type Server struct {
	router  *gin.Engine
	lookup  Lookuper
	dev     bool
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

func New(o Options) (*Server, error) {
	if o.Lookup == nil {
		return nil, errors.New("lookup 不能为空")
	}
	s := &Server{
		lookup:  o.Lookup,
		dev:     o.Development,
		logger:  o.Logger,
		metrics: o.Metrics,
		now:     o.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	router := gin.New()
	router.Use(s.requestLogger())
	router.Use(gin.CustomRecovery(s.recoverFault))
	router.Use(corsMiddleware())

	router.Any(LookupPath, s.handleLookup)
	// Any 只覆盖标准方法；PROPFIND 之类的扩展方法走 NoMethod，同样返回 405。
	router.HandleMethodNotAllowed = true
	router.NoMethod(RespondWithMethodNotAllowed)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if o.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{})))
	}

	s.router = router
	return s, nil
}

// Handler 返回可直接挂到 http.Server 的 handler。
func (s *Server) Handler() http.Handler { return s.router }

// Run 监听 addr 直到 ctx 被取消，然后优雅关闭。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger 记录每个请求的方法、路径、状态码与耗时，并顺带统计状态码指标。
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()
		status := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.ObserveResponse(status)
		}
		s.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("took", s.now().Sub(start)),
		)
	}
}
