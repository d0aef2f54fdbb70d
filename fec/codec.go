package fec

import (
	"errors"

	"github.com/observe-l/sclfec/internal/spf"
)

// Outcome is the result of one decode call.
type Outcome int

const (
	OK Outcome = iota
	// Erasure means the decoder detected that its output is unreliable.
	Erasure
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Erasure:
		return "erasure"
	}
	return "unknown"
}

// Codec is a binary block code with BPSK modulation over AWGN. Channel symbols
// are bipolar: bit 0 is sent as -1 and bit 1 as +1. A Codec is not safe for
// concurrent use.
type Codec interface {
	N() int
	K() int
	// SetNoiseSigma sets the channel noise deviation used to scale the input
	// of Decode. The default is 1.
	SetNoiseSigma(sigma float64)
	Encode(info []uint8, out []float64) error
	Decode(channel []float64, info []uint8) (Outcome, error)
	Close() error
}

// Candidate is one entry of a decoder's output list.
type Candidate struct {
	Bits   []uint8
	Metric float64
}

// Codec names accepted by the "codec" parameter.
const (
	CodecRMList  = "rm_list"
	CodecCAPolar = "ca_polar"
	CodecRMSC    = "rm_sc"
	CodecRM1ML   = "rm1_ml"
)

// engine is a list decoder instantiated for one format.
type engine interface {
	decode(channel []float64, scale float64)
	bestBits(info []uint8) float64
	sortList() int
	candidateBits(i int, info []uint8) float64
}

// New builds the codec described by p. The "codec" key selects it; without
// the key the codec is inferred from the parameters present.
func New(p *spf.Params) (Codec, error) {
	name, ok, err := p.String("codec")
	if err != nil {
		return nil, configErrorf("codec", "%v", err)
	}
	if !ok {
		name = inferCodec(p)
	}
	switch name {
	case CodecRMList:
		return NewRMCodec(p)
	case CodecCAPolar:
		return NewPolarCodec(p)
	case CodecRMSC:
		return NewRMSCCodec(p)
	case CodecRM1ML:
		return NewRM1Codec(p)
	case "":
		return nil, configErrorf("codec", "cannot infer the codec from the parameters")
	}
	return nil, configErrorf("codec", "unknown codec %q", name)
}

func inferCodec(p *spf.Params) string {
	switch {
	case p.Has("info_bits_mask") || p.Has("polar_k") || p.Has("ca_polar_crc"):
		return CodecCAPolar
	case p.Has("RM_m") && (p.Has("border_node_lsize") || p.Has("list_size") || p.Has("border_node_mask")):
		return CodecRMList
	case p.Has("RM_m"):
		return CodecRMSC
	}
	return ""
}

// intParam reads the first key present among names.
func intParam(p *spf.Params, names ...string) (int, bool, error) {
	for _, k := range names {
		v, ok, err := p.Int(k)
		if err != nil {
			return 0, true, configErrorf(k, "%v", unwrapValue(err))
		}
		if ok {
			return v, true, nil
		}
	}
	return 0, false, nil
}

func requireInt(p *spf.Params, names ...string) (int, error) {
	v, ok, err := intParam(p, names...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, configErrorf(names[0], "missing")
	}
	return v, nil
}

func stringParam(p *spf.Params, key string) (string, bool, error) {
	v, ok, err := p.String(key)
	if err != nil {
		return "", true, configErrorf(key, "%v", unwrapValue(err))
	}
	return v, ok, nil
}

func formatParam(p *spf.Params) (string, error) {
	name, _, err := stringParam(p, "format")
	if err != nil {
		return "", err
	}
	return FormatByName(name)
}

func unwrapValue(err error) string {
	var ve *spf.ValueError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}

func sg22(sigma float64) float64 { return 2 / (sigma * sigma) }

func checkLen(info []uint8, k int, ch []float64, n int) error {
	if len(info) != k || len(ch) != n {
		return ErrLength
	}
	return nil
}
