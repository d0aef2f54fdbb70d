package fec

import "github.com/observe-l/sclfec/internal/spf"

// rm1Decoder is the maximum-likelihood decoder of RM(m, 1). Every repetition
// bit of the recursion is tried both ways, which keeps all 2^m paths; the last
// bit is decided per path.
type rm1Decoder[F Format] struct {
	f     F
	m     int
	ylist []float64 // level blocks of 2^m estimates, m+1 of them
	slist []float64 // path metrics
}

func newRM1Decoder[F Format](f F, m int) *rm1Decoder[F] {
	n := 1 << m
	return &rm1Decoder[F]{
		f:     f,
		m:     m,
		ylist: make([]float64, n*(m+1)),
		slist: make([]float64, n),
	}
}

func (d *rm1Decoder[F]) decode(channel []float64, scale float64, x []uint8) {
	f := d.f
	cn := 1 << d.m
	toFormat(f, channel, d.ylist[:cn], scale)
	clear(d.slist)

	base := 0
	for n := cn; n > 1; n /= 2 {
		n2 := n / 2
		for i := 0; i < cn; i += n {
			y1 := d.ylist[base+i : base+i+n2]
			y2 := d.ylist[base+i+n2 : base+i+n]
			u0 := d.ylist[base+cn+i : base+cn+i+n2]
			u1 := d.ylist[base+cn+i+n2 : base+cn+i+n]
			s0, s1 := 0.0, 0.0
			for j := range y1 {
				e := f.Xor(y1[j], y2[j])
				if f.LeansZero(e) {
					s0 += f.Est0LnP0(e)
					s1 += f.Est0LnP1(e)
				} else {
					s0 += f.Est1LnP0(e)
					s1 += f.Est1LnP1(e)
				}
				u0[j] = f.Add(y1[j], y2[j])
				u1[j] = f.Add(f.Invert(y1[j]), y2[j])
			}
			d.slist[i+n2] = d.slist[i] + s1
			d.slist[i] += s0
		}
		base += cn
	}

	last := d.ylist[base : base+cn]
	best := d.slist[0] + f.LnP0(last[0])
	j := 0
	for i, e := range last {
		if s := d.slist[i] + f.LnP0(e); s > best {
			best, j = s, i<<1
		}
		if s := d.slist[i] + f.LnP1(e); s > best {
			best, j = s, i<<1|1
		}
	}
	for i := d.m; i >= 0; i-- {
		x[i] = uint8(j & 1)
		j >>= 1
	}
}

// RM1Codec is RM(m, 1) with maximum-likelihood decoding.
type RM1Codec struct {
	m, n, k int
	mask    []bool
	dec     blockDecoder
	sg22    float64
	cw      []uint8
}

// NewRM1Codec reads RM_m, RM_r (must be 1 when given) and format.
func NewRM1Codec(p *spf.Params) (*RM1Codec, error) {
	m, err := requireInt(p, "RM_m")
	if err != nil {
		return nil, err
	}
	if m < 1 || m > MaxM {
		return nil, configErrorf("RM_m", "must be in 1..%d", MaxM)
	}
	if r, ok, err := intParam(p, "RM_r"); err != nil {
		return nil, err
	} else if ok && r != 1 {
		return nil, configErrorf("RM_r", "rm1_ml decodes first-order codes only")
	}
	format, err := formatParam(p)
	if err != nil {
		return nil, err
	}
	c := &RM1Codec{
		m: m, n: 1 << m, k: m + 1,
		mask: AllFree(SubRMLeaves(m, 1)),
		sg22: sg22(1),
		cw:   make([]uint8, 1<<m),
	}
	switch format {
	case FormatLLR:
		c.dec = newRM1Decoder(LLR{}, m)
	case FormatMinSum:
		c.dec = newRM1Decoder(MinSum{}, m)
	default:
		c.dec = newRM1Decoder(Prob{}, m)
	}
	return c, nil
}

func (c *RM1Codec) N() int { return c.n }
func (c *RM1Codec) K() int { return c.k }

func (c *RM1Codec) SetNoiseSigma(sigma float64) { c.sg22 = sg22(sigma) }

func (c *RM1Codec) Encode(info []uint8, out []float64) error {
	if c.dec == nil {
		return ErrClosed
	}
	if err := checkLen(info, c.k, out, c.n); err != nil {
		return err
	}
	EncodeSubRM(c.m, 1, c.mask, info, c.cw)
	BPSK(c.cw, out)
	return nil
}

func (c *RM1Codec) Decode(channel []float64, info []uint8) (Outcome, error) {
	if c.dec == nil {
		return OK, ErrClosed
	}
	if err := checkLen(info, c.k, channel, c.n); err != nil {
		return OK, err
	}
	c.dec.decode(channel, c.sg22, info)
	return OK, nil
}

func (c *RM1Codec) Close() error {
	c.dec, c.cw = nil, nil
	return nil
}
