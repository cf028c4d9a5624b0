// Package idgen 提供基于雪花算法的唯一 ID 生成器，用于请求 ID 等场景.
package idgen

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// ErrCreateNode 创建 Snowflake 节点失败.
var ErrCreateNode = errors.New("failed to create snowflake node")

// Generator 定义 ID 生成器接口.
type Generator interface {
	Generate() int64
}

// SnowflakeGenerator 使用雪花算法实现 Generator.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator 使用指定机器号创建生成器，机器号范围为 0-1023.
func NewSnowflakeGenerator(machineID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(machineID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateNode, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

// Generate 生成一个新的 ID.
func (g *SnowflakeGenerator) Generate() int64 {
	return g.node.Generate().Int64()
}

var (
	defaultGenerator Generator
	defaultOnce      sync.Once
)

func defaultGen() Generator {
	defaultOnce.Do(func() {
		g, err := NewSnowflakeGenerator(1)
		if err != nil {
			// 机器号 1 总是合法
			panic(err)
		}
		defaultGenerator = g
		slog.Debug("default snowflake generator initialized", "machine_id", 1)
	})
	return defaultGenerator
}

// GenID 使用默认生成器生成 ID.
func GenID() int64 {
	return defaultGen().Generate()
}

// GenIDString 以十进制字符串形式返回 GenID 的结果.
func GenIDString() string {
	return strconv.FormatInt(GenID(), 10)
}
