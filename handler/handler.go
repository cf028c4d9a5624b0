// Package handler 暴露自动补全字典的 HTTP 接口。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/autocomplete/dictionary"
	"github.com/wyfcoding/autocomplete/response"
	"github.com/wyfcoding/autocomplete/tracing"
	"github.com/wyfcoding/autocomplete/xerrors"
)

// AddTermsRequest 是 POST /v1/terms 的请求体。
type AddTermsRequest struct {
	Terms []string `json:"terms" binding:"required,min=1,max=1000,dive,required,max=256"`
}

// AddTermsResponse 是 POST /v1/terms 的响应数据。
type AddTermsResponse struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// TermResponse 是 GET /v1/terms/:term 的响应数据。
type TermResponse struct {
	Term string `json:"term"`
}

// Handler 处理字典相关的 HTTP 请求。
type Handler struct {
	dict   *dictionary.Dictionary
	logger *slog.Logger
}

// New 创建 Handler。
func New(dict *dictionary.Dictionary, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{dict: dict, logger: logger}
}

// Register 在 r 上注册全部路由。
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/sys/health", h.Health)

	v1 := r.Group("/v1")
	v1.GET("/completions", h.Complete)
	v1.GET("/terms/:term", h.GetTerm)
	v1.POST("/terms", h.AddTerms)
}

// Complete 处理 GET /v1/completions?prefix=，无匹配时返回空的 terms。
func (h *Handler) Complete(c *gin.Context) {
	ctx, span := tracing.StartSpan(c.Request.Context(), "dictionary.complete")
	defer span.End()

	prefix := c.Query("prefix")
	if prefix == "" {
		tracing.SetError(ctx, xerrors.ErrEmptyPrefix)
		response.Error(c, xerrors.ErrEmptyPrefix)
		return
	}

	completion, _ := h.dict.Complete(prefix)
	tracing.AddTag(ctx, "autocomplete.prefix", prefix)
	tracing.AddTag(ctx, "autocomplete.terms", len(completion.Terms))

	response.Success(c, completion)
}

// GetTerm 处理 GET /v1/terms/:term。
func (h *Handler) GetTerm(c *gin.Context) {
	term := c.Param("term")
	if !h.dict.Contains(term) {
		response.Error(c, xerrors.ErrTermNotFound.WithDetail("term %q is not in the dictionary", term))
		return
	}
	response.Success(c, TermResponse{Term: term})
}

// AddTerms 处理 POST /v1/terms。
func (h *Handler) AddTerms(c *gin.Context) {
	ctx, span := tracing.StartSpan(c.Request.Context(), "dictionary.add_terms")
	defer span.End()

	var req AddTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid add terms request", "error", err)
		response.Error(c, xerrors.InvalidArg("invalid request body").WithDetail("%v", err))
		return
	}

	added, err := h.dict.AddAll(req.Terms)
	if err != nil {
		tracing.SetError(ctx, err)
		response.Error(c, err)
		return
	}
	tracing.AddTag(ctx, "autocomplete.added", added)

	response.SuccessWithStatus(c, http.StatusCreated, AddTermsResponse{Added: added, Total: h.dict.Len()})
}

// Health 处理 GET /sys/health。
func (h *Handler) Health(c *gin.Context) {
	response.SuccessWithRawData(c, gin.H{"status": "UP", "terms": h.dict.Len()})
}
