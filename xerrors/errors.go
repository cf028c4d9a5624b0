// Package xerrors 提供了带业务错误码的结构化错误，并负责映射到 HTTP 与 gRPC 状态码。
package xerrors

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorType 错误的大类
type ErrorType uint

const (
	ErrUnknown ErrorType = iota
	ErrInternal
	ErrInvalidArg
	ErrNotFound
	ErrLimitExceeded
)

func (t ErrorType) String() string {
	switch t {
	case ErrInternal:
		return "Internal"
	case ErrInvalidArg:
		return "InvalidArg"
	case ErrNotFound:
		return "NotFound"
	case ErrLimitExceeded:
		return "LimitExceeded"
	default:
		return "Unknown"
	}
}

// Error 带错误码的结构化错误
type Error struct {
	Type    ErrorType `json:"type"`
	Code    int       `json:"code"`    // 业务错误码
	Message string    `json:"message"` // 对外展示的消息
	Detail  string    `json:"detail"`  // 对内调试信息
	Cause   error     `json:"-"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %d: %s (Cause: %v)", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %d: %s", e.Type, e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按业务错误码判等，使 WithDetail 派生出的副本仍能与包级哨兵错误匹配。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// New 创建新错误
func New(errType ErrorType, code int, message, detail string, cause error) *Error {
	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// WithDetail 返回附带调试信息的副本，哨兵错误本身不被修改。
func (e *Error) WithDetail(format string, args ...any) *Error {
	cp := *e
	cp.Detail = fmt.Sprintf(format, args...)
	return &cp
}

func InvalidArg(msg string) *Error {
	return New(ErrInvalidArg, 400, msg, "", nil)
}

func NotFound(msg string) *Error {
	return New(ErrNotFound, 404, msg, "", nil)
}

// Wrap 包装现有错误
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	return New(errType, int(errType), msg, "", err)
}

// WrapInternal 快速包装内部错误
func WrapInternal(err error, msg string) *Error {
	return Wrap(err, ErrInternal, msg)
}

// HTTPStatus 映射 HTTP 状态码
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case ErrInvalidArg:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode 映射 gRPC 状态码
func (e *Error) GRPCCode() codes.Code {
	switch e.Type {
	case ErrInvalidArg:
		return codes.InvalidArgument
	case ErrNotFound:
		return codes.NotFound
	case ErrLimitExceeded:
		return codes.ResourceExhausted
	default:
		return codes.Internal
	}
}

// ToGRPCStatus 转换为 gRPC Status
func (e *Error) ToGRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Message)
}

// FromError 尝试将 err 转换为 *Error，支持被 fmt.Errorf 包装过的错误。
func FromError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
