package fec

import (
	"errors"

	"github.com/observe-l/sclfec/internal/spf"
)

// PolarCodec is a CRC-aided Polar code decoded by a successive-cancellation
// list. Without a CRC it returns the most likely list entry.
type PolarCodec struct {
	m, n   int
	k      int // information bits including the CRC
	effK   int
	lsize  int
	mask   []bool
	table  NodeTable
	crc    []uint8
	format string
	eng    engine
	sg22   float64

	xcrc []uint8
	cw   []uint8
	buf  []uint8
}

// NewPolarCodec reads c_m (or m), the information set and the list size.
// The information set is either info_bits_mask or polar_k together with
// polar_design_eps or reliability_table.
func NewPolarCodec(p *spf.Params) (*PolarCodec, error) {
	m, err := requireInt(p, "c_m", "m")
	if err != nil {
		return nil, err
	}
	if m < 1 || m > MaxM {
		return nil, configErrorf("c_m", "must be in 1..%d", MaxM)
	}
	n := 1 << m
	mask, err := polarMask(p, m)
	if err != nil {
		return nil, err
	}
	lsize, err := requireInt(p, "list_size")
	if err != nil {
		return nil, err
	}
	if lsize < 1 {
		return nil, configErrorf("list_size", "must be positive")
	}
	crcStr, _, err := stringParam(p, "ca_polar_crc")
	if err != nil {
		return nil, err
	}
	format, err := formatParam(p)
	if err != nil {
		return nil, err
	}
	k := 0
	for _, free := range mask {
		if free {
			k++
		}
	}
	if k == 0 {
		return nil, configErrorf("info_bits_mask", "every leaf is frozen")
	}
	crc := ParseBits(crcStr)
	effK := k - len(crc)
	if len(crc) > 0 && (effK <= 0 || effK < len(crc)) {
		return nil, configErrorf("ca_polar_crc", "%d CRC bits do not fit %d information bits", len(crc), k)
	}
	c := &PolarCodec{
		m:      m,
		n:      n,
		k:      k,
		effK:   effK,
		lsize:  lsize,
		mask:   mask,
		table:  NewNodeTable(mask, lsize),
		crc:    crc,
		format: format,
		sg22:   sg22(1),
		xcrc:   make([]uint8, k),
		cw:     make([]uint8, n),
		buf:    make([]uint8, k),
	}
	switch format {
	case FormatLLR:
		c.eng, err = newPolarList(LLR{}, m, k, c.table, lsize)
	case FormatMinSum:
		c.eng, err = newPolarList(MinSum{}, m, k, c.table, lsize)
	default:
		c.eng, err = newPolarList(Prob{}, m, k, c.table, lsize)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func polarMask(p *spf.Params, m int) ([]bool, error) {
	n := 1 << m
	if s, ok, err := stringParam(p, "info_bits_mask"); err != nil {
		return nil, err
	} else if ok {
		mask, err := ParseMask("info_bits_mask", s)
		if err != nil {
			return nil, err
		}
		if len(mask) != n {
			return nil, configErrorf("info_bits_mask", "length %d, want %d", len(mask), n)
		}
		return mask, nil
	}
	k, ok, err := intParam(p, "polar_k")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, configErrorf("info_bits_mask", "missing (or polar_k)")
	}
	if table, ok, err := stringParam(p, "reliability_table"); err != nil {
		return nil, err
	} else if ok {
		order, err := LoadReliabilityTable(p.Resolve(table))
		var ce *ConfigError
		if errors.As(err, &ce) {
			return nil, err
		} else if err != nil {
			return nil, configErrorf("reliability_table", "%v", err)
		}
		return PolarMaskFromReliability(order, n, k)
	}
	eps := 0.5
	if v, ok, err := p.Float("polar_design_eps"); err != nil {
		return nil, configErrorf("polar_design_eps", "%v", unwrapValue(err))
	} else if ok {
		eps = v
	}
	return PolarMaskBEC(m, k, eps)
}

func (c *PolarCodec) N() int { return c.n }

// K returns the number of user bits, excluding the CRC.
func (c *PolarCodec) K() int { return c.effK }

func (c *PolarCodec) SetNoiseSigma(sigma float64) { c.sg22 = sg22(sigma) }

// Mask returns the information set, one entry per leaf.
func (c *PolarCodec) Mask() []bool { return append([]bool(nil), c.mask...) }

func (c *PolarCodec) Encode(info []uint8, out []float64) error {
	if c.eng == nil {
		return ErrClosed
	}
	if err := checkLen(info, c.effK, out, c.n); err != nil {
		return err
	}
	copy(c.xcrc, info)
	if len(c.crc) > 0 {
		copy(c.xcrc[c.effK:], CRCRemainder(c.buf, info, c.crc))
	}
	EncodePar0(c.m, c.m, c.mask, c.xcrc, c.cw)
	BPSK(c.cw, out)
	return nil
}

func (c *PolarCodec) Decode(channel []float64, info []uint8) (Outcome, error) {
	if c.eng == nil {
		return OK, ErrClosed
	}
	if err := checkLen(info, c.effK, channel, c.n); err != nil {
		return OK, err
	}
	c.eng.decode(channel, c.sg22)
	if len(c.crc) == 0 {
		c.eng.bestBits(c.xcrc)
		copy(info, c.xcrc[:c.effK])
		return OK, nil
	}
	size := c.eng.sortList()
	for i := 0; i < size; i++ {
		c.eng.candidateBits(i, c.xcrc)
		if IsValidCRC(c.xcrc, c.effK, c.crc, c.buf) {
			copy(info, c.xcrc[:c.effK])
			return OK, nil
		}
	}
	c.eng.candidateBits(0, c.xcrc)
	copy(info, c.xcrc[:c.effK])
	return Erasure, nil
}

// DecodeList decodes channel and returns the whole list, most likely first.
// Bits of each candidate include the CRC.
func (c *PolarCodec) DecodeList(channel []float64) ([]Candidate, error) {
	if c.eng == nil {
		return nil, ErrClosed
	}
	if len(channel) != c.n {
		return nil, ErrLength
	}
	c.eng.decode(channel, c.sg22)
	size := c.eng.sortList()
	out := make([]Candidate, size)
	for i := range out {
		b := make([]uint8, c.k)
		out[i] = Candidate{Bits: b, Metric: c.eng.candidateBits(i, b)}
	}
	return out, nil
}

// CRCLen returns the number of CRC bits appended to the user bits.
func (c *PolarCodec) CRCLen() int { return len(c.crc) }

// Close drops the decoder pools. Later calls fail with ErrClosed.
func (c *PolarCodec) Close() error {
	c.eng, c.table = nil, nil
	c.xcrc, c.cw, c.buf = nil, nil, nil
	return nil
}
