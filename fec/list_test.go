package fec

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathChain(t *testing.T) {
	c := newPathChain(16)
	c.reset()
	a := c.pushAll(chainRoot, []uint8{1, 0, 1})
	b := c.push(a, 1)
	d := c.push(a, 0)

	got := make([]uint8, 4)
	c.read(b, got)
	assert.Equal(t, []uint8{1, 0, 1, 1}, got)
	c.read(d, got)
	assert.Equal(t, []uint8{1, 0, 1, 0}, got)

	c.overwrite(d, []uint8{1, 1})
	c.read(d, got)
	assert.Equal(t, []uint8{1, 0, 1, 1}, got)
	// The shared prefix changed under b too.
	c.read(b, got)
	assert.Equal(t, []uint8{1, 0, 1, 1}, got)
}

func TestPathChainExhausted(t *testing.T) {
	c := newPathChain(3)
	c.reset()
	h := c.pushAll(chainRoot, []uint8{0, 1})
	assert.Panics(t, func() { c.push(h, 1) })
}

func TestYPool(t *testing.T) {
	p := newYPool(2, 2)
	a := p.pop()
	b := p.pop()
	require.Len(t, a, 4)
	require.Len(t, b, 4)
	a = append(a, 9)
	assert.Zero(t, b[0], "append must not spill into the next buffer")
	assert.Panics(t, func() { p.pop() })
	p.reset()
	assert.Len(t, p.pop(), 4)
}

func newTestList(t *testing.T, maxL int) *listState[LLR] {
	t.Helper()
	const m, k = 3, 4
	mask := AllFree(SubRMLeaves(m, 1))
	s, err := newListState(LLR{}, m, k, NewNodeTable(mask, maxL), maxL, IdentityPermutations(m, k))
	require.NoError(t, err)
	s.start(make([]float64, 1<<m), 1)
	return s
}

func TestPruneKeepsLargestMetrics(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		s := newTestList(t, 8)
		root := s.order[0]
		total := 2 + rng.Intn(len(s.free)-2)
		for s.size < total {
			s.branch(root, chainRoot)
		}
		vals := rng.Perm(s.size)
		for i, c := range s.order[:s.size] {
			s.metric[c] = float64(vals[i])
		}
		l := 1 + rng.Intn(s.size)

		s.prune(l)

		require.Equal(t, l, s.size)
		kept := make([]float64, 0, l)
		for _, c := range s.order[:s.size] {
			kept = append(kept, s.metric[c])
		}
		slices.Sort(kept)
		for i, v := range kept {
			assert.Equal(t, float64(total-l+i), v, "trial %d", trial)
		}
		// Every slot is either live or free.
		seen := map[int32]bool{}
		for _, c := range s.order[:s.size] {
			seen[c] = true
		}
		for _, c := range s.free[s.freeTop:] {
			assert.False(t, seen[c])
			seen[c] = true
		}
		assert.Len(t, seen, len(s.free))
	}
}

func TestSortListAndInherit(t *testing.T) {
	s := newTestList(t, 4)
	root := s.order[0]
	a := s.branch(root, s.chain.push(chainRoot, 1))
	b := s.branch(root, s.chain.push(chainRoot, 0))
	s.metric[root], s.metric[a], s.metric[b] = -2, -0.5, -1

	s.inheritRows()
	assert.Equal(t, int32(-1), s.parent[a])
	assert.Equal(t, s.y(root, s.m), s.y(a, s.m))

	require.Equal(t, 3, s.sortList())
	assert.Equal(t, []int32{a, b, root}, s.order[:3])

	info := make([]uint8, 1)
	s.k = 1
	assert.Equal(t, -0.5, s.bestBits(info))
	assert.Equal(t, []uint8{1}, info)
	assert.Equal(t, -1.0, s.candidateBits(1, info))
	assert.Equal(t, []uint8{0}, info)
}

func TestNewListStateLimits(t *testing.T) {
	perms := IdentityPermutations(3, 4)
	table := NewNodeTable(AllFree(3), 1)

	_, err := newListState(LLR{}, 3, 4, table, 0, perms)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)

	_, err = newListState(LLR{}, 3, 4, table, MaxSlots, perms)
	var re *ResourceError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, MaxSlots, re.Limit)
}
