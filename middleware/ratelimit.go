// Package middleware 提供 Gin 的通用中间件。
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/autocomplete/limiter"
	"github.com/wyfcoding/autocomplete/response"
)

// RateLimitMiddleware 使用客户端 IP 作为标识进行限流。
func RateLimitMiddleware(l limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			// fail-open
			slog.ErrorContext(c.Request.Context(), "rate limiter internal error, fail-open applied", "key", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			slog.WarnContext(c.Request.Context(), "request rejected by rate limiter", "key", key, "path", c.Request.URL.Path)
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "too many requests", "access rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

// NewLocalRateLimitMiddleware 创建按客户端 IP 独立计数的本地限流中间件。
func NewLocalRateLimitMiddleware(limit int, burst int) gin.HandlerFunc {
	return RateLimitMiddleware(limiter.NewKeyedLimiter(rate.Limit(limit), burst))
}
