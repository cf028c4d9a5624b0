package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterRedisMetrics 注册 Redis 命令指标，重复调用无副作用。
func (m *Metrics) RegisterRedisMetrics() {
	if m == nil || m.RedisOps != nil {
		return
	}

	m.RedisOps = m.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_ops_total",
		Help: "The total number of redis operations",
	}, []string{"addr", "command", "status"})

	m.RedisDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redis_duration_seconds",
		Help:    "The duration of redis operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"addr", "command"})
}
