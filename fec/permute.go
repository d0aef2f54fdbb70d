package fec

import (
	"errors"
	"math/bits"
)

// Permutations holds the coordinate permutations used by the RM list decoder.
// Each permutation acts on the m bits of a channel index; Y maps channel
// positions and X maps information bit positions.
type Permutations struct {
	Y [][]int
	X [][]int
}

// Len returns the number of permutations.
func (p *Permutations) Len() int { return len(p.Y) }

// IdentityPermutations returns the single identity permutation.
func IdentityPermutations(m, k int) *Permutations {
	y := make([]int, 1<<m)
	for i := range y {
		y[i] = i
	}
	x := make([]int, k)
	for i := range x {
		x[i] = i
	}
	return &Permutations{Y: [][]int{y}, X: [][]int{x}}
}

// NewPermutations builds the index maps for the RM(m, r) subcode selected by
// mask. Every entry of perms must be a permutation of 0..m-1 that maps the
// monomials carrying information onto themselves.
//
// The full code indexes its information bits by the monomials of weight at
// most r in reverse lexicographic order. Each free leaf of the recursion owns a
// contiguous run of them: one for an (m, 0) leaf, 2^m for an (m, m) leaf.
func NewPermutations(m, r int, mask []bool, perms [][]int) (*Permutations, error) {
	if len(mask) != SubRMLeaves(m, r) {
		return nil, configErrorf("permutations", "mask has %d border nodes, RM(%d,%d) has %d", len(mask), m, r, SubRMLeaves(m, r))
	}
	n := 1 << m
	coeff := make([]int, 0, n)
	for i := n - 1; i >= 0; i-- {
		if bits.OnesCount(uint(i)) <= r {
			coeff = append(coeff, i)
		}
	}
	free := freeMonomials(m, r, mask)
	pos := make(map[int]int, len(free))
	for j, f := range free {
		pos[coeff[f]] = j
	}
	out := &Permutations{}
	for pn, p := range perms {
		if err := checkPermutation(m, p); err != nil {
			return nil, configErrorf("permutations", "entry %d: %v", pn, err)
		}
		py := make([]int, n)
		for i := range py {
			py[i] = permuteBits(i, p)
		}
		px := make([]int, len(free))
		for i, f := range free {
			j, ok := pos[permuteBits(coeff[f], p)]
			if !ok {
				return nil, configErrorf("permutations", "entry %d does not preserve the code", pn)
			}
			px[i] = j
		}
		out.Y = append(out.Y, py)
		out.X = append(out.X, px)
	}
	return out, nil
}

// freeMonomials returns the full-code information positions owned by the free
// leaves of mask, in encoding order.
func freeMonomials(m, r int, mask []bool) []int {
	w := leafWalk{mask: mask}
	var out []int
	off := 0
	var walk func(m, r int)
	walk = func(m, r int) {
		if r != 0 && r != m {
			walk(m-1, r-1)
			walk(m-1, r)
			return
		}
		size := 1
		if r == m {
			size = 1 << m
		}
		if w.next() {
			for i := 0; i < size; i++ {
				out = append(out, off+i)
			}
		}
		off += size
	}
	walk(m, r)
	return out
}

func permuteBits(i int, p []int) int {
	v := 0
	for j, to := range p {
		v |= ((i >> j) & 1) << to
	}
	return v
}

func checkPermutation(m int, p []int) error {
	if len(p) != m {
		return errors.New("wrong length")
	}
	seen := make([]bool, m)
	for _, v := range p {
		if v < 0 || v >= m || seen[v] {
			return errors.New("not a permutation")
		}
		seen[v] = true
	}
	return nil
}
