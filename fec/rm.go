package fec

// Plotkin (u|u+v) structure shared by the RM and Polar codecs. A mask lists the
// recursion leaves in decoding order; false marks a frozen leaf.

// NodeTable maps each recursion leaf to the list size kept when it branches.
// Zero marks a frozen leaf.
type NodeTable []int

// NewNodeTable assigns list size l to every free leaf of mask.
func NewNodeTable(mask []bool, l int) NodeTable {
	t := make(NodeTable, len(mask))
	t.SetListSize(mask, l)
	return t
}

// SetListSize rewrites the capacity of every free leaf.
func (t NodeTable) SetListSize(mask []bool, l int) {
	for i, free := range mask {
		if free {
			t[i] = l
		} else {
			t[i] = 0
		}
	}
}

// ParseMask converts a '0'/'1' string into a leaf mask.
func ParseMask(key, s string) ([]bool, error) {
	if s == "" {
		return nil, configErrorf(key, "empty mask")
	}
	mask := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		mask[i] = s[i] != '0'
	}
	return mask, nil
}

// AllFree returns a mask with n free leaves.
func AllFree(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// RMDimension returns the dimension of RM(m, r), the sum of C(m, i) for i <= r.
func RMDimension(m, r int) int {
	if r == 0 {
		return 1
	}
	if m == r {
		return 1 << m
	}
	return RMDimension(m-1, r-1) + RMDimension(m-1, r)
}

// SubRMLeaves returns the number of recursion leaves of RM(m, r), which is the
// length of its node table.
func SubRMLeaves(m, r int) int {
	if r == 0 || r == m {
		return 1
	}
	return SubRMLeaves(m-1, r-1) + SubRMLeaves(m-1, r)
}

type leafWalk struct {
	mask []bool
	i    int
}

func (w *leafWalk) next() bool {
	free := w.mask[w.i]
	w.i++
	return free
}

// SubRMDimension returns the dimension of the RM(m, r) subcode selected by mask.
func SubRMDimension(m, r int, mask []bool) int {
	w := leafWalk{mask: mask}
	return w.subRMDim(m, r)
}

func (w *leafWalk) subRMDim(m, r int) int {
	if r == 0 {
		if w.next() {
			return 1
		}
		return 0
	}
	if r == m {
		if w.next() {
			return 1 << m
		}
		return 0
	}
	return w.subRMDim(m-1, r-1) + w.subRMDim(m-1, r)
}

// Par0Dimension returns the dimension of the code whose leaves are all
// repetition nodes; with r == m this is the Polar code of mask.
func Par0Dimension(m, r int, mask []bool) int {
	w := leafWalk{mask: mask}
	return w.par0Dim(m, r)
}

func (w *leafWalk) par0Dim(m, r int) int {
	if r == 0 {
		if w.next() {
			return 1
		}
		return 0
	}
	return w.par0Dim(m-1, r-1) + w.par0Dim(m-1, par0Right(m, r))
}

// Par0Leaves returns the node table length of the par0 recursion.
func Par0Leaves(m, r int) int {
	if r == 0 {
		return 1
	}
	return Par0Leaves(m-1, r-1) + Par0Leaves(m-1, par0Right(m, r))
}

func par0Right(m, r int) int {
	if r == m {
		return r - 1
	}
	return r
}

// EncodeMM applies the full-rate (m, m) transform to x and writes y. It is its
// own inverse. It returns the number of bits consumed, 2^m.
func EncodeMM(m int, x, y []uint8) int {
	if m == 0 {
		y[0] = x[0]
		return 1
	}
	n2 := 1 << (m - 1)
	EncodeMM(m-1, x[:n2], y[:n2])
	EncodeMM(m-1, x[n2:], y[n2:])
	for i := 0; i < n2; i++ {
		y[i] ^= y[i+n2]
	}
	return 2 * n2
}

// EncodeSubRM encodes x into the 2^m bits of y for the RM(m, r) subcode selected
// by mask and returns the number of information bits consumed.
func EncodeSubRM(m, r int, mask []bool, x, y []uint8) int {
	w := leafWalk{mask: mask}
	return w.encodeSubRM(m, r, x, y)
}

func (w *leafWalk) encodeSubRM(m, r int, x, y []uint8) int {
	n := 1 << m
	if r == 0 {
		if !w.next() {
			clear(y[:n])
			return 0
		}
		for i := 0; i < n; i++ {
			y[i] = x[0]
		}
		return 1
	}
	if r == m {
		if !w.next() {
			clear(y[:n])
			return 0
		}
		return EncodeMM(m, x, y)
	}
	n2 := n / 2
	kv := w.encodeSubRM(m-1, r-1, x, y[:n2])
	ku := w.encodeSubRM(m-1, r, x[kv:], y[n2:n])
	for i := 0; i < n2; i++ {
		y[i] ^= y[i+n2]
	}
	return kv + ku
}

// EncodePar0 encodes with the par0 recursion (repetition leaves only). With
// r == m it is the Polar encoder for mask.
func EncodePar0(m, r int, mask []bool, x, y []uint8) int {
	w := leafWalk{mask: mask}
	return w.encodePar0(m, r, x, y)
}

func (w *leafWalk) encodePar0(m, r int, x, y []uint8) int {
	n := 1 << m
	if r == 0 {
		if !w.next() {
			clear(y[:n])
			return 0
		}
		for i := 0; i < n; i++ {
			y[i] = x[0]
		}
		return 1
	}
	n2 := n / 2
	kv := w.encodePar0(m-1, r-1, x, y[:n2])
	ku := w.encodePar0(m-1, par0Right(m, r), x[kv:], y[n2:n])
	for i := 0; i < n2; i++ {
		y[i] ^= y[i+n2]
	}
	return kv + ku
}

// BPSK maps bit 0 to -1 and bit 1 to +1.
func BPSK(c []uint8, y []float64) {
	for i, b := range c {
		y[i] = float64(2*int(b) - 1)
	}
}
