package fec

import "github.com/observe-l/sclfec/internal/spf"

// scDecoder is the plain successive-cancellation decoder of a full RM(m, r)
// code, recursing on the (u|u+v) structure down to repetition and full-rate
// leaves.
type scDecoder[F Format] struct {
	f    F
	m, r int
	yin  []float64
	ydec []float64
	aux  []float64
	tmp  []uint8
}

func newSCDecoder[F Format](f F, m, r int) *scDecoder[F] {
	n := 1 << m
	return &scDecoder[F]{
		f: f, m: m, r: r,
		yin:  make([]float64, n),
		ydec: make([]float64, n),
		aux:  make([]float64, n),
		tmp:  make([]uint8, n),
	}
}

func (d *scDecoder[F]) decode(channel []float64, scale float64, x []uint8) {
	toFormat(d.f, channel, d.yin, scale)
	d.tri(d.yin, d.r, d.m, d.ydec, x, d.aux)
}

// tri decodes y as RM(m, r), writes the ±1 codeword decisions to ydec and the
// information bits to x, and returns the number of bits written.
func (d *scDecoder[F]) tri(y []float64, r, m int, ydec []float64, x []uint8, aux []float64) int {
	f := d.f
	n := 1 << m
	if r == 0 {
		s0, s1 := 0.0, 0.0
		for _, e := range y[:n] {
			s0 += f.LnP0(e)
			s1 += f.LnP1(e)
		}
		var b uint8
		if s1 > s0 {
			b = 1
		}
		x[0] = b
		v := decision(b)
		for i := range ydec[:n] {
			ydec[i] = v
		}
		return 1
	}
	if r == m {
		hard := d.tmp[:n]
		for i, e := range y[:n] {
			if f.LeansZero(e) {
				hard[i], ydec[i] = 0, dec0
			} else {
				hard[i], ydec[i] = 1, dec1
			}
		}
		return EncodeMM(m, hard, x)
	}
	n2 := n / 2
	y1, y2 := y[:n2], y[n2:n]
	a := aux[:n2]
	for i := range a {
		a[i] = f.Xor(y1[i], y2[i])
	}
	k1 := d.tri(a, r-1, m-1, ydec[:n2], x, aux[n2:])
	for i := range a {
		a[i] = f.Add(y1[i]*ydec[i], y2[i])
	}
	k2 := d.tri(a, r, m-1, ydec[n2:n], x[k1:], aux[n2:])
	for i := 0; i < n2; i++ {
		ydec[i] *= ydec[n2+i]
	}
	return k1 + k2
}

// blockDecoder hides the format parameter of the single-path decoders.
type blockDecoder interface {
	decode(channel []float64, scale float64, x []uint8)
}

// RMSCCodec is a full RM(m, r) code with successive-cancellation decoding.
type RMSCCodec struct {
	m, r, n, k int
	mask       []bool
	dec        blockDecoder
	sg22       float64
	cw         []uint8
}

// NewRMSCCodec reads RM_m, RM_r and format.
func NewRMSCCodec(p *spf.Params) (*RMSCCodec, error) {
	m, r, err := rmOrder(p)
	if err != nil {
		return nil, err
	}
	format, err := formatParam(p)
	if err != nil {
		return nil, err
	}
	c := &RMSCCodec{
		m: m, r: r, n: 1 << m,
		k:    RMDimension(m, r),
		mask: AllFree(SubRMLeaves(m, r)),
		sg22: sg22(1),
		cw:   make([]uint8, 1<<m),
	}
	switch format {
	case FormatLLR:
		c.dec = newSCDecoder(LLR{}, m, r)
	case FormatMinSum:
		c.dec = newSCDecoder(MinSum{}, m, r)
	default:
		c.dec = newSCDecoder(Prob{}, m, r)
	}
	return c, nil
}

func (c *RMSCCodec) N() int { return c.n }
func (c *RMSCCodec) K() int { return c.k }

func (c *RMSCCodec) SetNoiseSigma(sigma float64) { c.sg22 = sg22(sigma) }

func (c *RMSCCodec) Encode(info []uint8, out []float64) error {
	if c.dec == nil {
		return ErrClosed
	}
	if err := checkLen(info, c.k, out, c.n); err != nil {
		return err
	}
	EncodeSubRM(c.m, c.r, c.mask, info, c.cw)
	BPSK(c.cw, out)
	return nil
}

func (c *RMSCCodec) Decode(channel []float64, info []uint8) (Outcome, error) {
	if c.dec == nil {
		return OK, ErrClosed
	}
	if err := checkLen(info, c.k, channel, c.n); err != nil {
		return OK, err
	}
	c.dec.decode(channel, c.sg22, info)
	return OK, nil
}

func (c *RMSCCodec) Close() error {
	c.dec, c.cw = nil, nil
	return nil
}
