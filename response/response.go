// Package response 提供统一的 HTTP 响应封装，负责业务错误码与 gRPC 状态码到 HTTP 的映射。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wyfcoding/autocomplete/contextx"
	"github.com/wyfcoding/autocomplete/xerrors"
)

// HTTPStatusProvider 定义了能够提供 HTTP 状态码的错误接口。
type HTTPStatusProvider interface {
	HTTPStatus() int
}

// Body 统一响应体。
type Body struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      any    `json:"data,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 发送 HTTP 200、业务码 0 的成功响应。
func Success(c *gin.Context, data any) {
	SuccessWithStatus(c, http.StatusOK, data)
}

// SuccessWithStatus 发送带有指定 HTTP 状态码的成功响应。
func SuccessWithStatus(c *gin.Context, status int, data any) {
	c.JSON(status, Body{
		Code:      0,
		Msg:       "success",
		Data:      data,
		RequestID: contextx.GetRequestID(c.Request.Context()),
	})
}

// SuccessWithRawData 发送不带包装的原始数据，用于健康检查等系统接口。
func SuccessWithRawData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Error 识别 xerrors 业务错误或 gRPC Status 并映射状态码，无法识别时返回 500。
func Error(c *gin.Context, err error) {
	if err == nil {
		Success(c, nil)
		return
	}

	statusCode := http.StatusInternalServerError
	code := http.StatusInternalServerError
	msg := err.Error()
	detail := ""

	if xe, ok := xerrors.FromError(err); ok {
		statusCode = xe.HTTPStatus()
		code = xe.Code
		msg = xe.Message
		detail = xe.Detail
	} else if e, ok := err.(HTTPStatusProvider); ok {
		statusCode = e.HTTPStatus()
		code = statusCode
	} else if st, ok := status.FromError(err); ok {
		statusCode = grpcCodeToHTTP(st.Code())
		code = statusCode
		msg = st.Message()
	}

	c.JSON(statusCode, Body{
		Code:      code,
		Msg:       msg,
		Detail:    detail,
		RequestID: contextx.GetRequestID(c.Request.Context()),
	})
}

// ErrorWithStatus 发送带有指定 HTTP 状态码、消息和详情的错误响应。
func ErrorWithStatus(c *gin.Context, status int, msg string, detail string) {
	c.JSON(status, Body{
		Code:      status,
		Msg:       msg,
		Detail:    detail,
		RequestID: contextx.GetRequestID(c.Request.Context()),
	})
}

func grpcCodeToHTTP(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.Canceled:
		return 499 // Client Closed Request
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
