package fec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRMDimension(t *testing.T) {
	for m := 1; m <= 8; m++ {
		assert.Equal(t, 1, RMDimension(m, 0), "K(%d,0)", m)
		assert.Equal(t, 1<<m, RMDimension(m, m), "K(%d,%d)", m, m)
		assert.Equal(t, m+1, RMDimension(m, 1), "K(%d,1)", m)
	}
	assert.Equal(t, 11, RMDimension(4, 2))
	assert.Equal(t, 26, RMDimension(5, 3))
	assert.Equal(t, 42, RMDimension(6, 3))
}

func TestSubRMLeaves(t *testing.T) {
	assert.Equal(t, 3, SubRMLeaves(3, 1))
	assert.Equal(t, 6, SubRMLeaves(4, 2))
	assert.Equal(t, 1, SubRMLeaves(5, 5))
	assert.Equal(t, 16, Par0Leaves(4, 4))
}

func TestSubRMDimension(t *testing.T) {
	assert.Equal(t, 11, SubRMDimension(4, 2, AllFree(6)))
	mask, err := ParseMask("border_node_mask", "011001")
	require.NoError(t, err)
	assert.Equal(t, 7, SubRMDimension(4, 2, mask))

	polar, err := ParseMask("info_bits_mask", "0000001101111111")
	require.NoError(t, err)
	assert.Equal(t, 9, Par0Dimension(4, 4, polar))
}

func TestParseMask(t *testing.T) {
	mask, err := ParseMask("k", "0110")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, mask)

	_, err = ParseMask("border_node_mask", "")
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "border_node_mask", ce.Key)
}

func TestNodeTable(t *testing.T) {
	mask := []bool{true, false, true}
	tab := NewNodeTable(mask, 8)
	assert.Equal(t, NodeTable{8, 0, 8}, tab)
	tab.SetListSize(mask, 2)
	assert.Equal(t, NodeTable{2, 0, 2}, tab)
}

func TestEncodeMMIsInvolution(t *testing.T) {
	const m = 3
	x := make([]uint8, 1<<m)
	y := make([]uint8, 1<<m)
	z := make([]uint8, 1<<m)
	for v := 0; v < 1<<(1<<m); v++ {
		for i := range x {
			x[i] = uint8(v>>i) & 1
		}
		require.Equal(t, 1<<m, EncodeMM(m, x, y))
		EncodeMM(m, y, z)
		require.Equal(t, x, z, "v=%d", v)
	}
}

func TestEncodeRM31(t *testing.T) {
	cw := make([]uint8, 8)
	out := make([]float64, 8)
	k := EncodeSubRM(3, 1, AllFree(3), []uint8{0, 1, 1, 0}, cw)
	assert.Equal(t, 4, k)
	BPSK(cw, out)
	assert.Equal(t, []float64{-1, 1, 1, -1, -1, 1, 1, -1}, out)
}

func TestEncodeSubRMFrozenLeaves(t *testing.T) {
	// RM(3,1) leaves: (2,0) (1,0) (1,1). Freezing the first leaves only the
	// RM(2,1) part in the second half, repeated into the first.
	mask := []bool{false, true, true}
	require.Equal(t, 3, SubRMDimension(3, 1, mask))
	cw := make([]uint8, 8)
	k := EncodeSubRM(3, 1, mask, []uint8{1, 1, 0}, cw)
	assert.Equal(t, 3, k)
	assert.Equal(t, cw[:4], cw[4:])

	all := make([]uint8, 8)
	EncodeSubRM(3, 1, AllFree(3), []uint8{0, 1, 1, 0}, all)
	assert.Equal(t, all, cw)
}

func TestEncodeSubRMIsLinear(t *testing.T) {
	const m, r = 4, 2
	k := RMDimension(m, r)
	mask := AllFree(SubRMLeaves(m, r))
	a := []uint8{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0}
	b := []uint8{0, 1, 1, 0, 1, 0, 0, 1, 1, 0, 1}
	s := make([]uint8, k)
	for i := range s {
		s[i] = a[i] ^ b[i]
	}
	ca, cb, cs := make([]uint8, 16), make([]uint8, 16), make([]uint8, 16)
	EncodeSubRM(m, r, mask, a, ca)
	EncodeSubRM(m, r, mask, b, cb)
	EncodeSubRM(m, r, mask, s, cs)
	for i := range cs {
		assert.Equal(t, ca[i]^cb[i], cs[i], "bit %d", i)
	}
}

func TestEncodePar0MatchesMMWhenAllFree(t *testing.T) {
	const m = 4
	x := []uint8{1, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 1, 0}
	y1 := make([]uint8, 16)
	y2 := make([]uint8, 16)
	assert.Equal(t, 16, EncodePar0(m, m, AllFree(16), x, y1))
	EncodeMM(m, x, y2)
	assert.Equal(t, y2, y1)
}

func TestEncodeCAPolarExample(t *testing.T) {
	mask, err := ParseMask("info_bits_mask", "0000001101111111")
	require.NoError(t, err)
	info := []uint8{0, 1, 1, 0, 1, 0, 1, 1}
	poly := []uint8{1}
	x := append(append([]uint8(nil), info...), CRCRemainder(make([]uint8, 8), info, poly)...)
	cw := make([]uint8, 16)
	out := make([]float64, 16)
	EncodePar0(4, 4, mask, x, cw)
	BPSK(cw, out)
	assert.Equal(t, []float64{-1, 1, -1, 1, -1, 1, 1, -1, 1, -1, 1, -1, 1, -1, -1, 1}, out)
}
