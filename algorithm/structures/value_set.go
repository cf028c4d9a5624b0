package structures

import (
	"iter"
	"slices"
)

// ValueSet 是按比较函数排序、去重后的只读值集合。
// 同一个实例会被多个调用方共享，因此不提供任何修改方法。
type ValueSet[V any] struct {
	values  []V
	compare func(a, b V) int
}

func newValueSet[V any](values []V, compare func(a, b V) int) *ValueSet[V] {
	slices.SortFunc(values, compare)
	values = slices.CompactFunc(values, func(a, b V) bool { return compare(a, b) == 0 })
	return &ValueSet[V]{values: slices.Clip(values), compare: compare}
}

// EmptyValueSet 返回一个空集合。
func EmptyValueSet[V any]() *ValueSet[V] {
	return &ValueSet[V]{}
}

// Len 返回集合大小。
func (s *ValueSet[V]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// IsEmpty 判断集合是否为空。
func (s *ValueSet[V]) IsEmpty() bool {
	return s.Len() == 0
}

// Contains 二分查找判断 v 是否在集合中。
func (s *ValueSet[V]) Contains(v V) bool {
	if s.Len() == 0 {
		return false
	}
	_, found := slices.BinarySearchFunc(s.values, v, s.compare)
	return found
}

// Values 按顺序返回集合元素的副本。
func (s *ValueSet[V]) Values() []V {
	if s.Len() == 0 {
		return []V{}
	}
	return slices.Clone(s.values)
}

// All 按顺序遍历集合元素。
func (s *ValueSet[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		if s == nil {
			return
		}
		for _, v := range s.values {
			if !yield(v) {
				return
			}
		}
	}
}
