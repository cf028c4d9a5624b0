// Package breaker 提供基于 gobreaker 的熔断器，集成 Prometheus 状态指标与日志。
package breaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"

	"github.com/wyfcoding/autocomplete/metrics"
)

// ErrServiceUnavailable 表示熔断器处于打开状态。
var ErrServiceUnavailable = errors.New("service unavailable: circuit breaker is open")

// Breaker 封装 gobreaker 实例。
type Breaker struct {
	circuitBreaker *gobreaker.CircuitBreaker
}

// Settings 定义熔断器参数。
type Settings struct {
	Name         string
	Enabled      bool
	MaxRequests  uint32        // 半开状态允许通过的请求数
	Interval     time.Duration // 关闭状态下清零计数的周期
	Timeout      time.Duration // 打开状态持续时间
	FailureRatio float64
	MinRequests  uint32
}

// NewBreaker 创建熔断器，未启用时 Execute 直接调用 fn。
func NewBreaker(st Settings, m *metrics.Metrics) *Breaker {
	if !st.Enabled {
		return &Breaker{}
	}

	failureRatio := st.FailureRatio
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	minRequests := st.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}

	var stateVec *prometheus.GaugeVec
	if m != nil {
		stateVec = m.RegisterBreakerMetrics()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        st.Name,
		MaxRequests: st.MaxRequests,
		Interval:    st.Interval,
		Timeout:     st.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && ratio >= failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if stateVec != nil {
				stateVec.WithLabelValues(name).Set(float64(to))
			}
		},
	})

	return &Breaker{circuitBreaker: cb}
}

// State 返回当前状态，未启用时恒为关闭。
func (b *Breaker) State() gobreaker.State {
	if b == nil || b.circuitBreaker == nil {
		return gobreaker.StateClosed
	}
	return b.circuitBreaker.State()
}

// ExecuteTyped 执行受熔断保护的函数，熔断打开时返回 ErrServiceUnavailable。
func ExecuteTyped[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil || b.circuitBreaker == nil {
		return fn()
	}

	res, err := b.circuitBreaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, ErrServiceUnavailable
		}
		return zero, err
	}

	return res.(T), nil
}
