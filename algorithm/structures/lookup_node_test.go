package structures

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/autocomplete/xerrors"
)

func newTermTree(t *testing.T, terms ...string) *LookupNode[string] {
	t.Helper()
	root := NewLookupNode[string]()
	for _, term := range terms {
		_, _, err := root.Put(term, term)
		require.NoError(t, err)
	}
	return root
}

// uncachedValues 不经过缓存直接遍历子树。
func uncachedValues[V any](n *LookupNode[V]) []V {
	var out []V
	if n.hasValue {
		out = append(out, n.value)
	}
	for _, child := range n.children {
		out = append(out, uncachedValues(child)...)
	}
	return out
}

func TestLookupNodePutAndResolveExact(t *testing.T) {
	root := NewLookupNode[string]()

	prev, replaced, err := root.Put("Apfel", "v1")
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Empty(t, prev)

	res, err := root.Resolve("Apfel", false)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Apfel", res.Key())
	v, ok := res.Node().Value()
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	prev, replaced, err = root.Put("Apfel", "v2")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "v1", prev)

	res, err = root.Resolve("Apfel", false)
	require.NoError(t, err)
	v, _ = res.Node().Value()
	assert.Equal(t, "v2", v)
	assert.Equal(t, []string{"v2"}, res.Node().PossibleValues().Values())
	assert.Equal(t, []string{"v2"}, root.PossibleValues().Values())
}

func TestLookupNodeResolveExactMisses(t *testing.T) {
	root := newTermTree(t, "Apfelbrand")

	res, err := root.Resolve("Apfel", false)
	require.NoError(t, err)
	assert.Nil(t, res, "intermediate node carries no value")

	res, err = root.Resolve("Birne", false)
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = root.Resolve("Apfelbrandwein", true)
	require.NoError(t, err)
	assert.Nil(t, res, "key runs past the end of the tree")
}

func TestLookupNodeEmptyKeyRejected(t *testing.T) {
	root := NewLookupNode[int]()

	_, _, err := root.Put("", 1)
	assert.ErrorIs(t, err, xerrors.ErrEmptyKey)

	_, err = root.Resolve("", true)
	assert.ErrorIs(t, err, xerrors.ErrEmptyKey)
	_, err = root.Resolve("", false)
	assert.ErrorIs(t, err, xerrors.ErrEmptyKey)
}

func TestLookupNodeInvalidUTF8KeyRejected(t *testing.T) {
	root := NewLookupNode[string]()

	_, _, err := root.Put("a\xff", "a\xff")
	assert.ErrorIs(t, err, xerrors.ErrInvalidKey)
	_, replaced, err := root.Put("a\xfe", "a\xfe")
	assert.ErrorIs(t, err, xerrors.ErrInvalidKey)
	assert.False(t, replaced)

	_, err = root.Resolve("a\xff", false)
	assert.ErrorIs(t, err, xerrors.ErrInvalidKey)
	_, err = root.Resolve("a\xfe", true)
	assert.ErrorIs(t, err, xerrors.ErrInvalidKey)
	assert.True(t, root.PossibleValues().IsEmpty())

	_, _, err = root.Put("a\uFFFD", "replacement")
	require.NoError(t, err, "an encoded U+FFFD is a valid key")
	res, err := root.Resolve("a\uFFFD", false)
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestLookupNodePutOnlyThroughRoot(t *testing.T) {
	root := newTermTree(t, "Velo", "Vakuumpumpe")

	v := root.Explore('V').Node()
	_, _, err := v.Put("eronika", "Veronika")
	assert.ErrorIs(t, err, xerrors.ErrNotRootNode)

	assert.Equal(t, []string{"Vakuumpumpe", "Velo"}, root.PossibleValues().Values())
	assert.Equal(t, []string{"Vakuumpumpe", "Velo"}, v.PossibleValues().Values())
}

func TestLookupNodePartialUnambiguousPath(t *testing.T) {
	root := newTermTree(t, "Hallo")

	res, err := root.Resolve("Hal", true)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Hallo", res.Key(), "straight path suffix is appended to the prefix")
	assert.Equal(t, []string{"Hallo"}, res.Node().PossibleValues().Values())
}

func TestLookupNodePartialStopsAtFork(t *testing.T) {
	root := newTermTree(t, "Apfel", "Apfelbrand", "Adalbert", "Halhalhalhalhal", "Hallo")

	res, err := root.Resolve("Apfel", true)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Apfel", res.Key())
	assert.Equal(t, []string{"Apfel", "Apfelbrand"}, res.Node().PossibleValues().Values())

	res, err = root.Resolve("A", true)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Key())
	assert.Equal(t, 3, res.Node().PossibleValues().Len())

	res, err = root.Resolve("Ha", true)
	require.NoError(t, err)
	assert.Equal(t, "Ha", res.Key(), "two values below the prefix: no single best continuation")
	assert.Equal(t, []string{"Halhalhalhalhal", "Hallo"}, res.Node().PossibleValues().Values())

	res, err = root.Resolve("Halh", true)
	require.NoError(t, err)
	assert.Equal(t, "Halhalhalhalhal", res.Key())
}

func TestLookupNodePartialForkIsDecidedByValueCount(t *testing.T) {
	// "Ap" 下面只有一个子节点，但子树中有两个值。
	root := newTermTree(t, "Apfel", "Apfelbrand")

	res, err := root.Resolve("Ap", true)
	require.NoError(t, err)
	assert.Equal(t, "Ap", res.Key(), "two values below: the prefix node is already a fork")

	root = newTermTree(t, "Apfel")
	res, err = root.Resolve("Apfel", true)
	require.NoError(t, err)
	assert.Equal(t, "Apfel", res.Key())
}

func TestLookupNodeExplore(t *testing.T) {
	root := newTermTree(t, "Mango", "Melone", "Yoghurt")

	res := root.Explore('Y')
	require.NotNil(t, res)
	assert.Equal(t, "Yoghurt", res.Key())

	res = root.Explore('M')
	require.NotNil(t, res)
	assert.Equal(t, "M", res.Key())
	assert.Equal(t, []string{"Mango", "Melone"}, res.Node().PossibleValues().Values())

	assert.Nil(t, root.Explore('Z'))
}

func TestLookupNodeDuplicateValuesStopWalk(t *testing.T) {
	root := NewLookupNode[string]()
	for _, key := range []string{"xab", "xac"} {
		_, _, err := root.Put(key, "same")
		require.NoError(t, err)
	}

	res, err := root.Resolve("x", true)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "xa", res.Key(), "two children below xa make the next step ambiguous")
	assert.Equal(t, 1, res.Node().PossibleValues().Len())
}

func TestLookupNodeUnicodeKeys(t *testing.T) {
	root := newTermTree(t, "Polobär", "Polizei")

	res, err := root.Resolve("Polob", true)
	require.NoError(t, err)
	assert.Equal(t, "Polobär", res.Key())

	res = root.Explore('P')
	assert.Equal(t, "P", res.Key())
	assert.Equal(t, 2, res.Node().PossibleValues().Len())
}

func TestLookupNodeCustomComparator(t *testing.T) {
	desc := func(a, b int) int { return b - a }
	root := NewLookupNodeFunc(desc)
	for i, key := range []string{"a", "ab", "abc"} {
		_, _, err := root.Put(key, i)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{2, 1, 0}, root.PossibleValues().Values())

	assert.Panics(t, func() { NewLookupNodeFunc[int](nil) })
}

func TestLookupNodeCacheIsInvalidatedOnlyAlongPath(t *testing.T) {
	root := newTermTree(t, "Velo", "Vakuumpumpe", "Peter")

	v := root.Explore('V').Node()
	p, err := root.Resolve("Peter", false)
	require.NoError(t, err)

	assert.Equal(t, 2, v.PossibleValues().Len())
	peterSet := p.Node().PossibleValues()

	_, _, err = root.Put("Veronika", "Veronika")
	require.NoError(t, err)

	assert.Nil(t, root.cached)
	assert.Nil(t, v.cached)
	assert.Same(t, peterSet, p.Node().PossibleValues(), "sibling subtree cache survives")
	assert.Equal(t, []string{"Vakuumpumpe", "Velo", "Veronika"}, v.PossibleValues().Values())
}

func TestLookupNodeCacheCoherenceProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	root := NewLookupNode[string]()

	randomKey := func() string {
		var b strings.Builder
		for range 1 + rng.IntN(5) {
			b.WriteByte("abc"[rng.IntN(3)])
		}
		return b.String()
	}

	for i := range 300 {
		key := randomKey()
		_, _, err := root.Put(key, fmt.Sprintf("%s#%d", key, i%7))
		require.NoError(t, err)

		if i%10 == 0 {
			// 读取任意前缀以填充路径上的缓存，制造后续失效。
			_, err = root.Resolve(randomKey()[:1], true)
			require.NoError(t, err)
		}
	}

	var check func(n *LookupNode[string])
	check = func(n *LookupNode[string]) {
		want := uncachedValues(n)
		slices.Sort(want)
		want = slices.Compact(want)
		if len(want) == 0 {
			want = []string{}
		}
		assert.Equal(t, want, n.PossibleValues().Values())
		for _, child := range n.children {
			check(child)
		}
	}
	check(root)
}

func TestLookupNodePartialMonotonicity(t *testing.T) {
	terms := []string{"Peter", "Pneu", "Polobär", "Velo", "Vakuumpumpe", "Adalbert", "Apfelbrand", "Apfel", "Halhalhalhalhal", "Hallo"}
	root := newTermTree(t, terms...)

	lookup := func(prefix string) *ValueSet[string] {
		res, err := root.Resolve(prefix, true)
		require.NoError(t, err)
		if res == nil {
			return EmptyValueSet[string]()
		}
		return res.Node().PossibleValues()
	}

	for _, term := range terms {
		runes := []rune(term)
		for i := 1; i < len(runes); i++ {
			outer := lookup(string(runes[:i]))
			inner := lookup(string(runes[:i+1]))
			require.False(t, outer.IsEmpty())
			for v := range inner.All() {
				assert.True(t, outer.Contains(v), "%q ⊄ lookup(%q)", v, string(runes[:i]))
			}
		}
	}
}

func TestLookupNodeConcurrentDisjointPuts(t *testing.T) {
	root := NewLookupNode[string]()
	const writers, perWriter = 8, 200

	var wg conc.WaitGroup
	for w := range writers {
		wg.Go(func() {
			for i := range perWriter {
				key := fmt.Sprintf("%c-%d", 'a'+w, i)
				if _, _, err := root.Put(key, key); err != nil {
					t.Error(err)
				}
			}
		})
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, root.PossibleValues().Len())
	for w := range writers {
		res := root.Explore(rune('a' + w))
		require.NotNil(t, res)
		assert.Equal(t, perWriter, res.Node().PossibleValues().Len())
	}
}

func TestLookupNodeConcurrentReadersAndWriters(t *testing.T) {
	root := newTermTree(t, "seed")
	var misses atomic.Int64

	var wg conc.WaitGroup
	for w := range 4 {
		wg.Go(func() {
			for i := range 100 {
				key := fmt.Sprintf("k%d-%d", w, i)
				_, _, _ = root.Put(key, key)
			}
		})
		wg.Go(func() {
			for range 100 {
				res, err := root.Resolve("k", true)
				if err != nil || res == nil {
					misses.Add(1)
					continue
				}
				_ = res.Node().PossibleValues().Len()
				_ = root.Explore('s')
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 401, root.PossibleValues().Len())
	assert.LessOrEqual(t, misses.Load(), int64(400))
}

func TestNewLookupResultValidation(t *testing.T) {
	node := NewLookupNode[int]()

	_, err := NewLookupResult("", node)
	assert.ErrorIs(t, err, xerrors.ErrInvalidLookupResult)

	_, err = NewLookupResult[int]("k", nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidLookupResult)

	res, err := NewLookupResult("k", node)
	require.NoError(t, err)
	assert.Equal(t, "k", res.Key())
	assert.Same(t, node, res.Node())
}

func TestValueSet(t *testing.T) {
	set := newValueSet([]int{3, 1, 2, 3, 1}, func(a, b int) int { return a - b })
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []int{1, 2, 3}, set.Values())
	assert.True(t, set.Contains(2))
	assert.False(t, set.Contains(4))

	copied := set.Values()
	copied[0] = 99
	assert.Equal(t, []int{1, 2, 3}, set.Values(), "Values returns a copy")

	var seen []int
	for v := range set.All() {
		if v == 3 {
			break
		}
		seen = append(seen, v)
	}
	assert.Equal(t, []int{1, 2}, seen)

	empty := EmptyValueSet[string]()
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.Contains("x"))
	assert.Equal(t, []string{}, empty.Values())

	var nilSet *ValueSet[string]
	assert.Equal(t, 0, nilSet.Len())
	for range nilSet.All() {
		t.Fatal("nil set yields nothing")
	}
}
