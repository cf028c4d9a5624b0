package structures

import (
	"cmp"
	"sync"
	"unicode/utf8"

	"github.com/wyfcoding/autocomplete/xerrors"
)

// LookupNode 是按字符分层的查找树节点，支持精确查找与前缀（部分键）查找。
// 每个节点缓存其子树内全部值的有序集合，并在插入经过该节点时失效。
//
// 每个节点持有一把互斥锁，保护 children、value 与缓存。遍历总是先持有父节点的锁
// 再获取子节点的锁，且在递归返回前不释放父节点的锁，因此加锁顺序始终自上而下。
// 名称以 Locked 结尾的方法要求调用方已持有该节点的锁，且不会再次获取它。
type LookupNode[V any] struct {
	mu       sync.Mutex
	children map[rune]*LookupNode[V]
	value    V
	hasValue bool
	cached   *ValueSet[V] // nil 表示自上次结构变更后尚未重新计算
	compare  func(a, b V) int
	root     bool
}

// NewLookupNode 使用 V 的自然顺序创建一个空的根节点。
func NewLookupNode[V cmp.Ordered]() *LookupNode[V] {
	return NewLookupNodeFunc[V](cmp.Compare[V])
}

// NewLookupNodeFunc 使用外部提供的全序比较函数创建一个空的根节点。
func NewLookupNodeFunc[V any](compare func(a, b V) int) *LookupNode[V] {
	if compare == nil {
		panic("structures: nil compare function for LookupNode")
	}
	return &LookupNode[V]{
		children: make(map[rune]*LookupNode[V], 1),
		compare:  compare,
		root:     true,
	}
}

func (n *LookupNode[V]) newChild() *LookupNode[V] {
	return &LookupNode[V]{
		children: make(map[rune]*LookupNode[V]),
		compare:  n.compare,
	}
}

// Value 返回节点自身的值。
func (n *LookupNode[V]) Value() (V, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value, n.hasValue
}

// Put 沿 key 逐字符插入 v，返回该键之前的值。
// 插入路径上每个节点的缓存都会失效，兄弟子树不受影响。
// 只能在根节点上调用，子节点上的插入无法让祖先节点的缓存失效，返回 xerrors.ErrNotRootNode。
func (n *LookupNode[V]) Put(key string, v V) (prev V, replaced bool, err error) {
	if err := checkKey(key); err != nil {
		return prev, false, err
	}
	if !n.root {
		return prev, false, xerrors.ErrNotRootNode
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	prev, replaced = n.putLocked([]rune(key), v)
	return prev, replaced, nil
}

func (n *LookupNode[V]) putLocked(key []rune, v V) (prev V, replaced bool) {
	c := key[0]
	child, ok := n.children[c]
	if !ok {
		child = n.newChild()
		n.children[c] = child
	}

	child.mu.Lock()
	if len(key) == 1 {
		prev, replaced = child.value, child.hasValue
		child.value, child.hasValue = v, true
		child.cached = nil
	} else {
		prev, replaced = child.putLocked(key[1:], v)
	}
	child.mu.Unlock()

	n.cached = nil
	return prev, replaced
}

// PossibleValues 返回子树（含节点自身）中全部值的有序集合。
// 结果被缓存并共享，直到下一次经过该节点的插入。
func (n *LookupNode[V]) PossibleValues() *ValueSet[V] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.possibleValuesLocked()
}

func (n *LookupNode[V]) possibleValuesLocked() *ValueSet[V] {
	if n.cached == nil {
		var values []V
		n.collectLocked(&values)
		n.cached = newValueSet(values, n.compare)
	}
	return n.cached
}

// collectLocked 深度优先收集子树的值；子节点缓存仍有效时直接复用。
func (n *LookupNode[V]) collectLocked(values *[]V) {
	if n.hasValue {
		*values = append(*values, n.value)
	}
	for _, child := range n.children {
		child.mu.Lock()
		if child.cached != nil {
			*values = append(*values, child.cached.values...)
		} else {
			child.collectLocked(values)
		}
		child.mu.Unlock()
	}
}

// Resolve 从该节点出发解析 key。
//
// partial 为 false 时，只有到达的节点本身带值才算成功。
// partial 为 true 时，若到达的节点没有值且其下只有一条无分叉的路径，会继续沿该路径
// 下探，直到遇到带值的节点或分叉点；返回结果的键包含下探所经过的字符。
//
// 查找失败返回 nil 结果而非错误。空键返回 xerrors.ErrEmptyKey，
// 非法 UTF-8 键返回 xerrors.ErrInvalidKey。
func (n *LookupNode[V]) Resolve(key string, partial bool) (*LookupResult[V], error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	return n.resolveLocked([]rune(key), 0, partial), nil
}

// checkKey 拒绝空键与非法 UTF-8 键。
func checkKey(key string) error {
	if key == "" {
		return xerrors.ErrEmptyKey
	}
	if !utf8.ValidString(key) {
		return xerrors.ErrInvalidKey
	}
	return nil
}

func (n *LookupNode[V]) resolveLocked(key []rune, depth int, partial bool) *LookupResult[V] {
	child, ok := n.children[key[depth]]
	if !ok {
		return nil
	}

	child.mu.Lock()
	defer child.mu.Unlock()

	if depth < len(key)-1 {
		return child.resolveLocked(key, depth+1, partial)
	}
	if partial {
		return child.walkStraightLocked(key)
	}
	if !child.hasValue {
		return nil
	}
	return &LookupResult[V]{key: string(key), node: child}
}

// Explore 从字符 c 对应的子节点出发沿无分叉路径下探，c 不存在时返回 nil。
func (n *LookupNode[V]) Explore(c rune) *LookupResult[V] {
	n.mu.Lock()
	defer n.mu.Unlock()

	child, ok := n.children[c]
	if !ok {
		return nil
	}

	child.mu.Lock()
	defer child.mu.Unlock()

	return child.walkStraightLocked([]rune{c})
}

// walkStraightLocked 沿单子节点链下探，在带值节点或分叉点停下。
// 子树内只有一个值但存在多个子节点（不同键映射到同一值）时同样视为分叉。
func (n *LookupNode[V]) walkStraightLocked(segment []rune) *LookupResult[V] {
	if n.hasValue || len(n.children) != 1 || n.possibleValuesLocked().Len() > 1 {
		return &LookupResult[V]{key: string(segment), node: n}
	}

	for c, child := range n.children {
		child.mu.Lock()
		defer child.mu.Unlock()
		return child.walkStraightLocked(append(segment, c))
	}
	return nil
}
