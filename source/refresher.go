package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wyfcoding/autocomplete/breaker"
)

// Refresher 按固定间隔重新读取一个来源并写入 Sink，读取经过熔断器保护。
type Refresher struct {
	src      Source
	sink     Sink
	interval time.Duration
	breaker  *breaker.Breaker
	logger   *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewRefresher 创建周期刷新任务，b 可为 nil。
func NewRefresher(src Source, sink Sink, interval time.Duration, b *breaker.Breaker, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		src:      src,
		sink:     sink,
		interval: interval,
		breaker:  b,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start 阻塞运行，直到 ctx 取消或 Stop 被调用。
func (r *Refresher) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("source refresher started", "source", r.src.Name(), "interval", r.interval)
	for {
		select {
		case <-ticker.C:
			_, _ = r.Refresh(ctx)
		case <-r.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop 停止刷新，可重复调用。
func (r *Refresher) Stop(context.Context) error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}

// Refresh 立即执行一次刷新，返回新增的词条数。
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	terms, err := breaker.ExecuteTyped(r.breaker, func() ([]string, error) {
		return r.src.Terms(ctx)
	})
	if err != nil {
		r.logger.WarnContext(ctx, "source refresh failed", "source", r.src.Name(), "error", err)
		return 0, err
	}

	added, err := r.sink.AddAll(terms)
	if added > 0 {
		r.logger.InfoContext(ctx, "source refreshed", "source", r.src.Name(), "added", added)
	}
	return added, err
}
