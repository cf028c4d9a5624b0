// Package limiter 提供基于令牌桶的进程内限流器.
package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter 定义了限流器的通用行为。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter 是一个全局共享令牌桶的本地限流器，忽略 key。
type LocalLimiter struct {
	limiter *rate.Limiter
}

// NewLocalLimiter 创建 LocalLimiter，r 为每秒令牌数，b 为突发容量。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{
		limiter: rate.NewLimiter(r, b),
	}
}

// Allow 尝试取出一个令牌。
func (l *LocalLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return l.limiter.Allow(), nil
}

// KeyedLimiter 为每个 key（通常是客户端 IP）维护独立的令牌桶。
type KeyedLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	r       rate.Limit
	b       int
}

// NewKeyedLimiter 创建 KeyedLimiter。
func NewKeyedLimiter(r rate.Limit, b int) *KeyedLimiter {
	return &KeyedLimiter{
		buckets: make(map[string]*rate.Limiter),
		r:       r,
		b:       b,
	}
}

// Allow 从 key 对应的令牌桶中取出一个令牌，桶不存在时按需创建。
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.r, l.b)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow(), nil
}

// Len 返回当前维护的令牌桶数量。
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
