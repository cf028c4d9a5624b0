package structures

import "github.com/wyfcoding/autocomplete/xerrors"

// LookupResult 是一次遍历的结果：实际消费的键片段与到达的节点。
// 结果只借用树中的节点，节点的值仍可能被之后的 Put 修改。
type LookupResult[V any] struct {
	key  string
	node *LookupNode[V]
}

// NewLookupResult 创建查找结果，键为空或节点为 nil 时返回 xerrors.ErrInvalidLookupResult。
func NewLookupResult[V any](key string, node *LookupNode[V]) (*LookupResult[V], error) {
	if key == "" || node == nil {
		return nil, xerrors.ErrInvalidLookupResult
	}
	return &LookupResult[V]{key: key, node: node}, nil
}

// Key 返回到达节点所消费的完整键片段，部分查找时可能比查询键更长。
func (r *LookupResult[V]) Key() string {
	return r.key
}

// Node 返回到达的节点，可用于读取值或子树集合；在它上面调用 Put 会返回 xerrors.ErrNotRootNode。
func (r *LookupResult[V]) Node() *LookupNode[V] {
	return r.node
}
