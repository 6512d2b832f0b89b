package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request with slog after it is handled.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("ip", c.ClientIP()),
			slog.Duration("latency", time.Since(start)),
		}

		if userID, ok := GetUserID(c); ok {
			fields = append(fields, slog.Uint64("user_id", userID))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, slog.String("error", c.Errors.String()))
			slog.Error("request failed", fields...)
		} else if c.Writer.Status() >= 500 {
			slog.Error("request failed", fields...)
		} else {
			slog.Info("request processed", fields...)
		}
	}
}
