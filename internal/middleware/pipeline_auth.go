package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
)

// PipelineAPIKeyHeader carries the shared secret of the sweeper job.
const PipelineAPIKeyHeader = "X-API-Key"

// PipelineAuthMiddleware guards the machine-to-machine pipeline routes with a
// shared API key. With no key configured every call gets 503.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	log := logger.Named("pipeline")
	return func(c *gin.Context) {
		if apiKey == "" {
			RespondError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader(PipelineAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			log.Warnw("rejected pipeline call",
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
				"key_present", key != "",
			)
			RespondError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
