package channel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBernoulliEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	never := NewBernoulli(0, rng)
	always := NewBernoulli(1, rng)
	for i := 0; i < 100; i++ {
		require.False(t, never.Draw())
		require.True(t, always.Draw())
	}
}

func TestBernoulliBits(t *testing.T) {
	b := NewBernoulli(0.5, rand.New(rand.NewSource(2)))
	bits := make([]uint8, 20000)
	b.Bits(bits)
	ones := 0
	for _, v := range bits {
		require.LessOrEqual(t, v, uint8(1))
		ones += int(v)
	}
	assert.InDelta(t, 0.5, float64(ones)/float64(len(bits)), 0.02)
}

func TestAWGNMoments(t *testing.T) {
	const n = 200001
	a := NewAWGN(0.7, rand.New(rand.NewSource(3)))
	src := make([]float64, n)
	for i := range src {
		src[i] = -1
	}
	dst := make([]float64, n)
	a.Add(src, dst)

	var sum, sq float64
	for i := range dst {
		e := dst[i] - src[i]
		sum += e
		sq += e * e
	}
	mean := sum / n
	assert.InDelta(t, 0, mean, 0.01)
	assert.InDelta(t, 0.7, math.Sqrt(sq/n-mean*mean), 0.01)
	assert.NotZero(t, dst[n-1]-src[n-1], "odd tail must get noise")
}

func TestAWGNZeroSigma(t *testing.T) {
	a := NewAWGN(1, rand.New(rand.NewSource(4)))
	a.SetSigma(0)
	assert.Equal(t, 0.0, a.Sigma())
	src := []float64{-1, 1, 1}
	dst := make([]float64, 3)
	a.Add(src, dst)
	assert.Equal(t, src, dst)
}

func TestSigmaForSNR(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2*0.5), SigmaForSNR(0, 0.5), 1e-12)
	assert.InDelta(t, 1/math.Sqrt(20), SigmaForSNR(10, 1), 1e-12)
	assert.Less(t, SigmaForSNR(3, 0.5), SigmaForSNR(2, 0.5))
}
