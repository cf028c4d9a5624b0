// Package redis 封装带指标采集的 go-redis 客户端.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/autocomplete/config"
	"github.com/wyfcoding/autocomplete/logging"
	"github.com/wyfcoding/autocomplete/metrics"
)

// Client 是 redis.Client 的别名。
type Client = redis.Client

type metricsHook struct {
	addr string
	m    *metrics.Metrics
}

func (h *metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.Name(), start, err)
		return err
	}
}

func (h *metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", start, err)
		return err
	}
}

func (h *metricsHook) observe(command string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, redis.Nil) {
		status = "error"
	}
	h.m.RedisOps.WithLabelValues(h.addr, command, status).Inc()
	h.m.RedisDuration.WithLabelValues(h.addr, command).Observe(time.Since(start).Seconds())
}

// NewClient 根据配置创建 Redis 客户端并 Ping 验证连接，返回客户端与清理函数。
func NewClient(cfg config.RedisConfig, m *metrics.Metrics, logger *logging.Logger) (*redis.Client, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if m != nil {
		m.RegisterRedisMetrics()
		client.AddHook(&metricsHook{addr: cfg.Addr, m: m})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("successfully connected to Redis", "addr", cfg.Addr, "db", cfg.DB)

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close Redis client", "error", err)
		}
	}

	return client, cleanup, nil
}
