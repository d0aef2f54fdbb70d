package fec

import (
	"cmp"
	"slices"
)

// listState is the candidate list shared by the RM and Polar list decoders.
// Candidates live in slots; order[:size] lists the live slots and free[freeTop:]
// the unused ones. Per-slot level buffers are kept in rows, one slice header
// per (slot, level) pair, pointing into the per-level pools.
type listState[F Format] struct {
	f      F
	m      int
	k      int
	levels int
	table  NodeTable
	perms  *Permutations
	node   int

	metric []float64
	order  []int32
	parent []int32
	perm   []int32
	head   []int32
	free   []int32

	freeTop int
	size    int

	chain pathChain
	pools []yPool
	rows  [][]float64

	yin   []float64
	xtmp  []uint8
	xtmp2 []uint8
}

// newListState sizes every pool for list sizes up to maxL and the given
// permutations. Nothing is allocated after this returns.
func newListState[F Format](f F, m, k int, table NodeTable, maxL int, perms *Permutations) (*listState[F], error) {
	if m < 1 || m > MaxM {
		return nil, configErrorf("m", "must be in 1..%d", MaxM)
	}
	if maxL < 1 {
		return nil, configErrorf("list_size", "must be positive")
	}
	p := perms.Len()
	if p < 1 {
		return nil, configErrorf("permutations", "at least one permutation is required")
	}
	slots := 4 * max(maxL, p)
	if slots > MaxSlots {
		return nil, &ResourceError{What: "candidate slots", Need: slots, Limit: MaxSlots}
	}
	cells := k*slots + 1
	if cells > MaxCells {
		return nil, &ResourceError{What: "path cells", Need: cells, Limit: MaxCells}
	}
	n := 1 << m
	s := &listState[F]{
		f:      f,
		m:      m,
		k:      k,
		levels: m + 1,
		table:  table,
		perms:  perms,
		metric: make([]float64, slots),
		order:  make([]int32, slots),
		parent: make([]int32, slots),
		perm:   make([]int32, slots),
		head:   make([]int32, slots),
		free:   make([]int32, slots),
		chain:  newPathChain(cells),
		pools:  make([]yPool, m+1),
		rows:   make([][]float64, slots*(m+1)),
		yin:    make([]float64, n),
		xtmp:   make([]uint8, max(n, k)),
		xtmp2:  make([]uint8, max(n, k)),
	}
	for l := range s.pools {
		s.pools[l] = newYPool(l, slots)
	}
	return s, nil
}

func (s *listState[F]) y(c int32, level int) []float64 {
	return s.rows[int(c)*s.levels+level]
}

func (s *listState[F]) setY(c int32, level int, b []float64) {
	s.rows[int(c)*s.levels+level] = b
}

// start converts the channel and seeds one candidate per permutation.
func (s *listState[F]) start(channel []float64, scale float64) {
	toFormat(s.f, channel, s.yin, scale)
	s.chain.reset()
	for l := range s.pools {
		s.pools[l].reset()
	}
	for i := range s.free {
		s.free[i] = int32(i)
	}
	s.freeTop = 0
	s.size = 0
	s.node = 0
	for i, py := range s.perms.Y {
		c := s.free[s.freeTop]
		s.freeTop++
		s.order[s.size] = c
		s.size++
		s.metric[c] = 0
		s.head[c] = chainRoot
		s.perm[c] = int32(i)
		s.parent[c] = -1
		buf := s.pools[s.m].pop()
		for j, pj := range py {
			buf[j] = s.yin[pj]
		}
		s.setY(c, s.m, buf)
	}
}

// branch clones candidate c0 into a free slot whose path continues from head.
func (s *listState[F]) branch(c0, head int32) int32 {
	c := s.free[s.freeTop]
	s.freeTop++
	s.parent[c] = c0
	s.head[c] = head
	s.metric[c] = s.metric[c0]
	s.perm[c] = s.perm[c0]
	s.order[s.size] = c
	s.size++
	return c
}

// prune keeps the l candidates with the largest metrics.
func (s *listState[F]) prune(l int) {
	if s.size <= l {
		return
	}
	s.partition(s.order[:s.size], l)
	for s.size > l {
		s.size--
		s.freeTop--
		s.free[s.freeTop] = s.order[s.size]
	}
}

// partition moves the k largest metrics of v to its front (quickselect with
// Lomuto partitioning around the last element).
func (s *listState[F]) partition(v []int32, k int) {
	for len(v) > k {
		last := len(v) - 1
		pivot := s.metric[v[last]]
		st := 0
		for i := 0; i < last; i++ {
			if s.metric[v[i]] < pivot {
				continue
			}
			v[i], v[st] = v[st], v[i]
			st++
		}
		v[last], v[st] = v[st], v[last]
		switch {
		case st == k || st+1 == k:
			return
		case st > k:
			v = v[:st]
		default:
			v = v[st+1:]
			k -= st + 1
		}
	}
}

// inheritRows gives every surviving child its parent's level buffers.
func (s *listState[F]) inheritRows() {
	for _, c := range s.order[:s.size] {
		p := s.parent[c]
		if p < 0 {
			continue
		}
		dst := int(c) * s.levels
		src := int(p) * s.levels
		copy(s.rows[dst:dst+s.levels], s.rows[src:src+s.levels])
		s.parent[c] = -1
	}
}

// bits writes the information bits of candidate c, undoing its permutation.
func (s *listState[F]) bits(c int32, info []uint8) {
	xt := s.xtmp[:s.k]
	s.chain.read(s.head[c], xt)
	px := s.perms.X[s.perm[c]]
	for j, b := range xt {
		info[px[j]] = b
	}
}

// bestBits extracts the first candidate with the largest metric.
func (s *listState[F]) bestBits(info []uint8) float64 {
	best := s.order[0]
	for _, c := range s.order[1:s.size] {
		if s.metric[c] > s.metric[best] {
			best = c
		}
	}
	s.bits(best, info)
	return s.metric[best]
}

// sortList orders the live candidates by descending metric and returns their count.
func (s *listState[F]) sortList() int {
	slices.SortStableFunc(s.order[:s.size], func(a, b int32) int {
		return cmp.Compare(s.metric[b], s.metric[a])
	})
	return s.size
}

// candidateBits extracts the i-th candidate of the sorted list.
func (s *listState[F]) candidateBits(i int, info []uint8) float64 {
	c := s.order[i]
	s.bits(c, info)
	return s.metric[c]
}
