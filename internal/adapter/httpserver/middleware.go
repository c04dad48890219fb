package httpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const secretHeader = "X-Agent-Secret"

func authMiddleware(secret string) gin.HandlerFunc {
	expected := strings.TrimSpace(secret)
	if expected == "" {
		expected = "hostpulse_local"
	}

	return func(c *gin.Context) {
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(secretHeader)), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response{
				Ok:    false,
				Error: "unauthorized",
			})
			return
		}
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Debug("http request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func recoveryWithLog(logger *zap.Logger) gin.RecoveryFunc {
	return func(c *gin.Context, err any) {
		logger.Error("panic in http handler",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response{
			Ok:    false,
			Error: "internal error",
		})
	}
}
