// Package source 定义自动补全字典的词条来源：文件、内联配置与 Redis Set。
package source

import (
	"context"
	"slices"
)

// Source 是一组词条的来源。
type Source interface {
	// Name 用于日志与错误信息。
	Name() string
	// Terms 读取全部词条。
	Terms(ctx context.Context) ([]string, error)
}

// Sink 接收从来源读到的词条，通常是 *dictionary.Dictionary。
type Sink interface {
	AddAll(terms []string) (int, error)
}

// StaticSource 返回固定的词条列表。
type StaticSource struct {
	name  string
	terms []string
}

// NewStaticSource 创建内存词条来源，terms 会被复制。
func NewStaticSource(name string, terms []string) *StaticSource {
	return &StaticSource{name: name, terms: slices.Clone(terms)}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Terms(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.terms), nil
}
