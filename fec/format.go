package fec

import "math"

// Format is a numeric representation of a soft bit estimate together with the
// node arithmetic the decoders run on it. Implementations are small value types
// so that decoders instantiated with them avoid interface dispatch.
type Format interface {
	Name() string
	// FromLLR converts a channel log-likelihood ratio ln(P1/P0) into an estimate.
	FromLLR(llr float64) float64
	// ToLLR converts an estimate back into ln(P0/P1).
	ToLLR(e float64) float64
	// Xor estimates the XOR of two independent bits.
	Xor(a, b float64) float64
	// Add combines two estimates of the same bit.
	Add(a, b float64) float64
	Invert(e float64) float64
	LeansZero(e float64) bool
	// StrongerZero reports whether a is a stronger vote for 0 than b.
	StrongerZero(a, b float64) bool
	LnP0(e float64) float64
	LnP1(e float64) float64
	Est0LnP0(e float64) float64
	Est0LnP1(e float64) float64
	Est1LnP0(e float64) float64
	Est1LnP1(e float64) float64
	// FlipCost is Est0LnP1(e) - Est0LnP0(e).
	FlipCost(e float64) float64
	Strongest() float64
}

// Format names accepted by the "format" parameter.
const (
	FormatProb   = "prob"
	FormatLLR    = "llr"
	FormatMinSum = "minsum"
)

// Hard decision values stored in level buffers. Folding a decision into an
// estimate of any format is a product.
const (
	dec0 = 1.0
	dec1 = -1.0
)

func decision(bit uint8) float64 {
	if bit != 0 {
		return dec1
	}
	return dec0
}

// FormatByName validates a format name; the empty name selects FormatProb.
func FormatByName(name string) (string, error) {
	switch name {
	case "":
		return FormatProb, nil
	case FormatProb, FormatLLR, FormatMinSum:
		return name, nil
	}
	return "", &ConfigError{Key: "format", Reason: "unknown format " + name}
}

type signRules struct{}

func (signRules) Invert(e float64) float64 { return -e }
func (signRules) LeansZero(e float64) bool { return e > 0 }
func (signRules) StrongerZero(a, b float64) bool { return a > b }

// Prob holds P(0)-P(1), clipped away from ±1.
type Prob struct{ signRules }

const probClip = 1.0 - 1e-8

func clipProb(e float64) float64 {
	if e > probClip {
		return probClip
	}
	if e < -probClip {
		return -probClip
	}
	return e
}

func (Prob) Name() string { return FormatProb }

// FromLLR is (1-e^y)/(1+e^y), written as -tanh(y/2) so large inputs stay finite.
func (Prob) FromLLR(llr float64) float64 { return clipProb(-math.Tanh(llr / 2)) }
func (Prob) ToLLR(e float64) float64 { return math.Log((1 + e) / (1 - e)) }
func (Prob) Xor(a, b float64) float64 { return a * b }
func (Prob) Add(a, b float64) float64 { return clipProb((a + b) / (1 + a*b)) }
func (Prob) LnP0(e float64) float64 { return math.Log1p(e) }
func (Prob) LnP1(e float64) float64 { return math.Log1p(-e) }
func (Prob) Est0LnP0(e float64) float64 { return math.Log1p(e) }
func (Prob) Est0LnP1(e float64) float64 { return math.Log1p(-e) }
func (Prob) Est1LnP0(e float64) float64 { return math.Log1p(e) }
func (Prob) Est1LnP1(e float64) float64 { return math.Log1p(-e) }
func (Prob) FlipCost(e float64) float64 { return math.Log((1 - e) / (1 + e)) }
func (Prob) Strongest() float64 { return 1 }

// softplus is ln(1+e^x).
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// logAddExp is ln(e^a+e^b).
func logAddExp(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

type llrCommon struct{ signRules }

func (llrCommon) FromLLR(llr float64) float64 { return -llr }
func (llrCommon) ToLLR(e float64) float64 { return e }
func (llrCommon) Add(a, b float64) float64 { return a + b }
func (llrCommon) LnP0(e float64) float64 { return -softplus(-e) }
func (llrCommon) LnP1(e float64) float64 { return -softplus(e) }
func (llrCommon) Est0LnP0(e float64) float64 { return -softplus(-e) }
func (llrCommon) Est0LnP1(e float64) float64 { return -softplus(e) }
func (llrCommon) Est1LnP0(e float64) float64 { return -softplus(-e) }
func (llrCommon) Est1LnP1(e float64) float64 { return -softplus(e) }
func (llrCommon) FlipCost(e float64) float64 { return -e }
func (llrCommon) Strongest() float64 { return math.MaxFloat64 }

// LLR holds ln(P0/P1) with exact node arithmetic.
type LLR struct{ llrCommon }

func (LLR) Name() string { return FormatLLR }

// Xor is ln((1+e^(a+b))/(e^a+e^b)).
func (LLR) Xor(a, b float64) float64 { return softplus(a+b) - logAddExp(a, b) }

// MinSum holds ln(P0/P1) and approximates the XOR combine by sign·min.
type MinSum struct{ llrCommon }

func (MinSum) Name() string { return FormatMinSum }

func (MinSum) Xor(a, b float64) float64 {
	aa, ab := math.Abs(a), math.Abs(b)
	m := ab
	if aa < ab {
		m = aa
	}
	if a*b > 0 {
		return m
	}
	return -m
}

func toFormat[F Format](f F, llr, dst []float64, scale float64) {
	for i, y := range llr {
		dst[i] = f.FromLLR(y * scale)
	}
}
