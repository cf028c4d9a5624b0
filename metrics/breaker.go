package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterBreakerMetrics 注册熔断器状态指标并返回，重复调用返回同一实例。
func (m *Metrics) RegisterBreakerMetrics() *prometheus.GaugeVec {
	m.breakerOnce.Do(func() {
		m.BreakerState = m.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0: Closed, 1: Half-Open, 2: Open)",
		}, []string{"name"})
	})
	return m.BreakerState
}
