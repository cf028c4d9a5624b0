package source

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultScanCount = 500

// SetScanner 是 RedisSetSource 依赖的最小 Redis 能力，*redis.Client 满足该接口。
type SetScanner interface {
	SScan(ctx context.Context, key string, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisSetSource 用 SSCAN 遍历一个 Redis Set 的全部成员。
type RedisSetSource struct {
	client SetScanner
	key    string
	count  int64
}

// NewRedisSetSource 创建 Redis Set 来源，count 为每批 SSCAN 的提示数量，<=0 时使用默认值。
func NewRedisSetSource(client SetScanner, key string, count int64) *RedisSetSource {
	if count <= 0 {
		count = defaultScanCount
	}
	return &RedisSetSource{client: client, key: key, count: count}
}

func (s *RedisSetSource) Name() string {
	return "redis:" + s.key
}

func (s *RedisSetSource) Terms(ctx context.Context) ([]string, error) {
	var (
		terms  []string
		cursor uint64
	)
	for {
		members, next, err := s.client.SScan(ctx, s.key, cursor, "", s.count).Result()
		if err != nil {
			return nil, fmt.Errorf("sscan %s: %w", s.key, err)
		}
		terms = append(terms, members...)
		if next == 0 {
			return terms, nil
		}
		cursor = next
	}
}
