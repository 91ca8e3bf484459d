package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/John-Robertt/ttlookup/internal/domain"
)

// RespondWithMissingURL sends a 400 with a usage hint
func RespondWithMissingURL(c *gin.Context) {
	c.JSON(http.StatusBadRequest, domain.ClientError{
		Error: domain.MsgURLRequired,
		Usage: domain.UsageHint,
	})
}

// RespondWithInvalidURL sends a 400 for URLs outside the TikTok domains
func RespondWithInvalidURL(c *gin.Context) {
	c.JSON(http.StatusBadRequest, domain.ClientError{
		Error:   domain.MsgInvalidURL,
		Message: domain.MsgInvalidURLHint,
	})
}

// RespondWithMethodNotAllowed sends a 405
func RespondWithMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, domain.ClientError{
		Error: domain.MsgMethodNotAllow,
	})
}

// RespondWithFailure sends the generic 500 envelope; err is only exposed when exposeDetails is set
func RespondWithFailure(c *gin.Context, err error, exposeDetails bool) {
	c.JSON(http.StatusInternalServerError, domain.NewFailure(err, exposeDetails))
}
