package fec

import "github.com/observe-l/sclfec/internal/spf"

// listStep is one stage of variable list decoding: decode with list size L
// and accept when the squared distance to the channel is below D.
type listStep struct {
	L int
	D float64
}

// RMCodec is an RM(m, r) subcode decoded by the permutation list decoder.
type RMCodec struct {
	m, r, n, k int
	mask       []bool
	table      NodeTable
	lsize      int
	steps      []listStep
	perms      *Permutations
	format     string
	eng        engine
	sg22       float64

	cw   []uint8
	yhat []float64
}

// NewRMCodec reads RM_m, RM_r, border_node_mask, border_node_lsize (or
// list_size), permutations and the variable list settings.
func NewRMCodec(p *spf.Params) (*RMCodec, error) {
	m, r, err := rmOrder(p)
	if err != nil {
		return nil, err
	}
	leaves := SubRMLeaves(m, r)
	mask := AllFree(leaves)
	if s, ok, err := stringParam(p, "border_node_mask"); err != nil {
		return nil, err
	} else if ok {
		if mask, err = ParseMask("border_node_mask", s); err != nil {
			return nil, err
		}
		if len(mask) != leaves {
			return nil, configErrorf("border_node_mask", "length %d, RM(%d,%d) has %d border nodes", len(mask), m, r, leaves)
		}
	}
	lsize, err := requireInt(p, "border_node_lsize", "list_size")
	if err != nil {
		return nil, err
	}
	if lsize < 1 {
		return nil, configErrorf("border_node_lsize", "must be positive")
	}
	k := SubRMDimension(m, r, mask)
	if k == 0 {
		return nil, configErrorf("border_node_mask", "every border node is frozen")
	}
	format, err := formatParam(p)
	if err != nil {
		return nil, err
	}
	perms, err := permutationsParam(p, m, r, mask, k)
	if err != nil {
		return nil, err
	}
	var steps []listStep
	if p.Switch("use_variable_list") {
		if steps, err = listSteps(p); err != nil {
			return nil, err
		}
	}
	maxL := lsize
	for _, st := range steps {
		maxL = max(maxL, st.L)
	}
	n := 1 << m
	c := &RMCodec{
		m: m, r: r, n: n, k: k,
		mask:   mask,
		table:  NewNodeTable(mask, lsize),
		lsize:  lsize,
		steps:  steps,
		perms:  perms,
		format: format,
		sg22:   sg22(1),
		cw:     make([]uint8, n),
		yhat:   make([]float64, n),
	}
	switch format {
	case FormatLLR:
		c.eng, err = newRMList(LLR{}, m, r, k, c.table, maxL, perms)
	case FormatMinSum:
		c.eng, err = newRMList(MinSum{}, m, r, k, c.table, maxL, perms)
	default:
		c.eng, err = newRMList(Prob{}, m, r, k, c.table, maxL, perms)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func rmOrder(p *spf.Params) (m, r int, err error) {
	if m, err = requireInt(p, "RM_m"); err != nil {
		return 0, 0, err
	}
	if r, err = requireInt(p, "RM_r"); err != nil {
		return 0, 0, err
	}
	if m < 1 || m > MaxM {
		return 0, 0, configErrorf("RM_m", "must be in 1..%d", MaxM)
	}
	if r < 1 || r > m {
		return 0, 0, configErrorf("RM_r", "must be in 1..%d", m)
	}
	return m, r, nil
}

func permutationsParam(p *spf.Params, m, r int, mask []bool, k int) (*Permutations, error) {
	vals, ok, err := p.Ints("permutations")
	if err != nil {
		return nil, configErrorf("permutations", "%v", unwrapValue(err))
	}
	if !ok || len(vals) == 0 {
		return IdentityPermutations(m, k), nil
	}
	if len(vals)%m != 0 {
		return nil, configErrorf("permutations", "%d values is not a multiple of RM_m=%d", len(vals), m)
	}
	perms := make([][]int, 0, len(vals)/m)
	for i := 0; i < len(vals); i += m {
		perms = append(perms, vals[i:i+m])
	}
	return NewPermutations(m, r, mask, perms)
}

func listSteps(p *spf.Params) ([]listStep, error) {
	vals, ok, err := p.Floats("distance_threshold")
	if err != nil {
		return nil, configErrorf("distance_threshold", "%v", unwrapValue(err))
	}
	if !ok || len(vals) == 0 {
		return nil, configErrorf("distance_threshold", "missing while use_variable_list is on")
	}
	if len(vals)%2 != 0 {
		return nil, configErrorf("distance_threshold", "expected list size and threshold pairs")
	}
	steps := make([]listStep, 0, len(vals)/2)
	for i := 0; i < len(vals); i += 2 {
		l := int(vals[i])
		if l < 1 || float64(l) != vals[i] {
			return nil, configErrorf("distance_threshold", "list size %g is not a positive integer", vals[i])
		}
		steps = append(steps, listStep{L: l, D: vals[i+1]})
	}
	return steps, nil
}

func (c *RMCodec) N() int { return c.n }
func (c *RMCodec) K() int { return c.k }

func (c *RMCodec) SetNoiseSigma(sigma float64) { c.sg22 = sg22(sigma) }

// Mask returns the border node mask.
func (c *RMCodec) Mask() []bool { return append([]bool(nil), c.mask...) }

func (c *RMCodec) Encode(info []uint8, out []float64) error {
	if c.eng == nil {
		return ErrClosed
	}
	if err := checkLen(info, c.k, out, c.n); err != nil {
		return err
	}
	EncodeSubRM(c.m, c.r, c.mask, info, c.cw)
	BPSK(c.cw, out)
	return nil
}

func (c *RMCodec) Decode(channel []float64, info []uint8) (Outcome, error) {
	if c.eng == nil {
		return OK, ErrClosed
	}
	if err := checkLen(info, c.k, channel, c.n); err != nil {
		return OK, err
	}
	if len(c.steps) == 0 {
		c.eng.decode(channel, c.sg22)
		c.eng.bestBits(info)
		return OK, nil
	}
	for _, st := range c.steps {
		c.table.SetListSize(c.mask, st.L)
		c.eng.decode(channel, c.sg22)
		c.eng.bestBits(info)
		EncodeSubRM(c.m, c.r, c.mask, info, c.cw)
		BPSK(c.cw, c.yhat)
		if sqDist(channel, c.yhat)*c.sg22/2 < st.D {
			break
		}
	}
	return OK, nil
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		e := a[i] - b[i]
		d += e * e
	}
	return d
}

// Close drops the decoder pools. Later Encode and Decode calls fail with
// ErrClosed.
func (c *RMCodec) Close() error {
	c.eng, c.table, c.perms = nil, nil, nil
	c.cw, c.yhat = nil, nil
	return nil
}
