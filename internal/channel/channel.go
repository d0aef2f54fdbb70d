// Package channel simulates the binary source and the BPSK/AWGN channel.
package channel

import (
	"math"
	"math/rand"
)

// Bernoulli implements a simple u<p decision.
type Bernoulli struct {
	p   float64
	rng *rand.Rand
}

func NewBernoulli(p float64, rng *rand.Rand) *Bernoulli { return &Bernoulli{p: p, rng: rng} }

func (b *Bernoulli) Draw() bool {
	if b.p <= 0 {
		return false
	}
	if b.p >= 1 {
		return true
	}
	return b.rng.Float64() < b.p
}

// Bits fills dst with independent draws, 1 for true.
func (b *Bernoulli) Bits(dst []uint8) {
	for i := range dst {
		dst[i] = 0
		if b.Draw() {
			dst[i] = 1
		}
	}
}

// AWGN adds white Gaussian noise of a fixed deviation.
type AWGN struct {
	sigma float64
	rng   *rand.Rand
}

func NewAWGN(sigma float64, rng *rand.Rand) *AWGN { return &AWGN{sigma: sigma, rng: rng} }

func (a *AWGN) Sigma() float64 { return a.sigma }

func (a *AWGN) SetSigma(sigma float64) { a.sigma = sigma }

// Add writes src plus noise to dst. Samples are drawn in pairs with the
// Marsaglia polar method; for odd lengths the last second sample is dropped.
func (a *AWGN) Add(src, dst []float64) {
	for i := 0; i < len(src); i += 2 {
		v1, v2 := a.pair()
		dst[i] = src[i] + v1*a.sigma
		if i+1 < len(src) {
			dst[i+1] = src[i+1] + v2*a.sigma
		}
	}
}

func (a *AWGN) pair() (float64, float64) {
	for {
		v1 := 2*a.rng.Float64() - 1
		v2 := 2*a.rng.Float64() - 1
		r := v1*v1 + v2*v2
		if r >= 1 || r == 0 {
			continue
		}
		s := math.Sqrt(-2 * math.Log(r) / r)
		return v1 * s, v2 * s
	}
}

// SigmaForSNR returns the noise deviation for an Eb/N0 of snrDB decibels at
// code rate rate, with unit symbol energy.
func SigmaForSNR(snrDB, rate float64) float64 {
	return 1 / math.Sqrt(2*rate*math.Pow(10, snrDB/10))
}
