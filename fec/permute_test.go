package fec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityPermutations(t *testing.T) {
	p := IdentityPermutations(4, 11)
	require.Equal(t, 1, p.Len())
	for i, v := range p.Y[0] {
		assert.Equal(t, i, v)
	}
	for i, v := range p.X[0] {
		assert.Equal(t, i, v)
	}
}

func TestNewPermutationsMaps(t *testing.T) {
	p, err := NewPermutations(3, 1, AllFree(3), [][]int{{2, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0, 3}, p.X[0])
	// Bit 0 moves to bit 2, bit 1 to bit 0, bit 2 to bit 1.
	assert.Equal(t, []int{0, 4, 1, 5, 2, 6, 3, 7}, p.Y[0])
}

// A permuted codeword is the codeword of the permuted information bits.
func TestPermutationsPreserveCode(t *testing.T) {
	cases := []struct {
		m, r int
		mask string
		perm []int
	}{
		{4, 2, "", []int{3, 2, 1, 0}},
		{4, 2, "", []int{1, 0, 3, 2}},
		{3, 1, "", []int{2, 0, 1}},
		{5, 3, "", []int{4, 0, 3, 1, 2}},
		{3, 1, "110", []int{0, 2, 1}},
		{4, 2, "111011", []int{3, 1, 2, 0}},
		{4, 2, "111011", []int{3, 2, 1, 0}},
		{4, 2, "101101", []int{0, 3, 2, 1}},
	}
	rng := rand.New(rand.NewSource(1))
	for _, tc := range cases {
		n := 1 << tc.m
		mask := AllFree(SubRMLeaves(tc.m, tc.r))
		if tc.mask != "" {
			var err error
			mask, err = ParseMask("border_node_mask", tc.mask)
			require.NoError(t, err)
		}
		k := SubRMDimension(tc.m, tc.r, mask)
		p, err := NewPermutations(tc.m, tc.r, mask, [][]int{tc.perm})
		require.NoError(t, err)
		require.Len(t, p.X[0], k)
		py, px := p.Y[0], p.X[0]

		x := make([]uint8, k)
		xp := make([]uint8, k)
		c := make([]uint8, n)
		cp := make([]uint8, n)
		for trial := 0; trial < 20; trial++ {
			for i := range x {
				x[i] = uint8(rng.Intn(2))
			}
			for j := range xp {
				xp[j] = x[px[j]]
			}
			EncodeSubRM(tc.m, tc.r, mask, x, c)
			EncodeSubRM(tc.m, tc.r, mask, xp, cp)
			for j := range cp {
				require.Equal(t, c[py[j]], cp[j], "RM(%d,%d) perm %v position %d", tc.m, tc.r, tc.perm, j)
			}
		}
	}
}

func TestNewPermutationsErrors(t *testing.T) {
	var ce *ConfigError

	full := AllFree(3)

	_, err := NewPermutations(3, 1, full, [][]int{{0, 1}})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "permutations", ce.Key)

	_, err = NewPermutations(3, 1, full, [][]int{{0, 0, 1}})
	require.ErrorAs(t, err, &ce)

	// Mask 110 keeps x2 and x1; swapping x2 and x0 leaves the subcode.
	_, err = NewPermutations(3, 1, []bool{true, true, false}, [][]int{{2, 1, 0}})
	require.ErrorAs(t, err, &ce)

	// The first leaf owns x3x2; swapping x3 and x1 maps x2x1 onto it.
	_, err = NewPermutations(4, 2, []bool{false, true, true, true, true, true}, [][]int{{0, 3, 2, 1}})
	require.ErrorAs(t, err, &ce)

	_, err = NewPermutations(3, 1, AllFree(4), [][]int{{0, 1, 2}})
	require.ErrorAs(t, err, &ce)
}
