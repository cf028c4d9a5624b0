package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/autocomplete/contextx"
	"github.com/wyfcoding/autocomplete/idgen"
)

const HeaderXRequestID = "X-Request-ID"

// RequestID 透传或生成请求 ID，并写入 Context 与响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = idgen.GenIDString()
		}

		ctx := contextx.WithRequestID(c.Request.Context(), requestID)
		ctx = contextx.WithIP(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}
