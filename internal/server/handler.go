package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/John-Robertt/ttlookup/internal/domain"
	"github.com/John-Robertt/ttlookup/internal/lookupurl"
	"github.com/John-Robertt/ttlookup/internal/provider"
)

// handleLookup: 校验 -> 回退链 -> 序列化。
//
// 所有 provider 都失败时按 500 返回（不是 4xx/502），与线上既有行为保持一致。
func (s *Server) handleLookup(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		RespondWithMethodNotAllowed(c)
		return
	}

	req, err := lookupurl.FromQuery(c.Request.URL.Query())
	if err != nil {
		if lookupurl.IsMissing(err) {
			RespondWithMissingURL(c)
			return
		}
		RespondWithInvalidURL(c)
		return
	}

	res, err := s.lookup.Lookup(c.Request.Context(), req)
	if err != nil {
		code := domain.ErrCodeUnexpectedFault
		if provider.IsAggregate(err) {
			code = domain.ErrCodeAggregateFailure
		}
		s.logger.Error("tiktok lookup failed",
			slog.String("url", req.URL),
			slog.String("code", code),
			slog.Any("error", err),
		)
		RespondWithFailure(c, err, s.dev)
		return
	}

	c.JSON(http.StatusOK, domain.NewSuccess(res, s.now()))
}

// recoverFault 把 handler 中的 panic 转成 500 envelope（UnexpectedFault）。
func (s *Server) recoverFault(c *gin.Context, rec any) {
	err := fmt.Errorf("panic: %v", rec)
	s.logger.Error("handler panic",
		slog.String("path", c.Request.URL.Path),
		slog.String("code", domain.ErrCodeUnexpectedFault),
		slog.Any("error", err),
	)
	RespondWithFailure(c, err, s.dev)
	c.Abort()
}
