// Package metrics 提供基于 Prometheus 的指标注册表，以及 HTTP 与字典查询的标准指标。
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 字典查询结果标签。
const (
	ResultHit     = "hit"
	ResultPartial = "partial"
	ResultMiss    = "miss"
)

// 词条写入状态标签。
const (
	StatusAdded    = "added"
	StatusReplaced = "replaced"
	StatusRejected = "rejected"
)

// Metrics 封装独立的 Prometheus 注册表及预定义指标。
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec   // 维度: method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // 维度: method, path
	HTTPInFlight        prometheus.Gauge

	DictionaryLookups        *prometheus.CounterVec   // 维度: result
	DictionaryLookupDuration *prometheus.HistogramVec // 维度: op
	DictionaryTermsAdded     *prometheus.CounterVec   // 维度: status
	DictionaryTerms          prometheus.Gauge

	RedisOps      *prometheus.CounterVec   // 维度: addr, command, status
	RedisDuration *prometheus.HistogramVec // 维度: addr, command

	BreakerState *prometheus.GaugeVec // 维度: name
	breakerOnce  sync.Once

	BuildInfo *prometheus.GaugeVec
}

// NewMetrics 初始化指标采集器，并自动注册 Go 运行时与进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.HTTPInFlight = m.NewGauge(prometheus.GaugeOpts{
		Name: "http_server_requests_in_flight",
		Help: "Number of HTTP requests currently being served",
	})

	m.DictionaryLookups = m.NewCounterVec(prometheus.CounterOpts{
		Name: "dictionary_lookups_total",
		Help: "Total number of dictionary lookups by outcome",
	}, []string{"result"})

	m.DictionaryLookupDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dictionary_lookup_duration_seconds",
		Help:    "Dictionary lookup latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{"op"})

	m.DictionaryTermsAdded = m.NewCounterVec(prometheus.CounterOpts{
		Name: "dictionary_terms_added_total",
		Help: "Total number of terms offered to the dictionary by status",
	}, []string{"status"})

	m.DictionaryTerms = m.NewGauge(prometheus.GaugeOpts{
		Name: "dictionary_terms",
		Help: "Number of distinct terms stored in the dictionary",
	})

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGauge 创建并注册一个无标签的仪表盘指标。
func (m *Metrics) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	m.registry.MustRegister(g)
	return g
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回内部注册表，供测试读取指标值。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHTTP 在指定端口启动独立的指标服务器，返回用于优雅关闭的清理函数。
func (m *Metrics) ExposeHTTP(port, path string) func() {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
