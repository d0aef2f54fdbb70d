package fec_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/observe-l/sclfec/fec"
	"github.com/observe-l/sclfec/internal/channel"
	"github.com/observe-l/sclfec/internal/spf"
)

// wordErrors decodes the same noisy transmissions with every codec and
// counts the words each one gets wrong.
func wordErrors(t *testing.T, codecs []fec.Codec, snr float64, trials int, seed int64) []int {
	t.Helper()
	n, k := codecs[0].N(), codecs[0].K()
	sigma := channel.SigmaForSNR(snr, float64(k)/float64(n))
	rng := rand.New(rand.NewSource(seed))
	src := channel.NewBernoulli(0.5, rng)
	noise := channel.NewAWGN(sigma, rng)
	for _, c := range codecs {
		c.SetNoiseSigma(sigma)
	}

	x := make([]uint8, k)
	got := make([]uint8, k)
	cin := make([]float64, n)
	cout := make([]float64, n)
	errs := make([]int, len(codecs))
	for i := 0; i < trials; i++ {
		src.Bits(x)
		if err := codecs[0].Encode(x, cin); err != nil {
			t.Fatalf("encode: %v", err)
		}
		noise.Add(cin, cout)
		for j, c := range codecs {
			if _, err := c.Decode(cout, got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for b := range x {
				if x[b] != got[b] {
					errs[j]++
					break
				}
			}
		}
	}
	return errs
}

func mustCodec(t *testing.T, p *spf.Params) fec.Codec {
	t.Helper()
	c, err := fec.New(p)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRMListSizeLowersWordErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	const trials = 3000
	for _, format := range []string{fec.FormatProb, fec.FormatLLR, fec.FormatMinSum} {
		var codecs []fec.Codec
		for _, l := range []int{1, 4, 32} {
			codecs = append(codecs, mustCodec(t, spf.New().
				Set("RM_m", "5").Set("RM_r", "2").
				Set("border_node_lsize", fmt.Sprint(l)).
				Set("format", format)))
		}
		errs := wordErrors(t, codecs, 2, trials, 11)
		t.Logf("RM(5,2) %s at 2 dB: L=1 %d, L=4 %d, L=32 %d of %d", format, errs[0], errs[1], errs[2], trials)
		if errs[0] == 0 {
			t.Fatalf("%s: no errors with L=1, the channel is too clean for this test", format)
		}
		if errs[1] > errs[0] || errs[2] > errs[1]+trials/200 {
			t.Fatalf("%s: word errors do not fall with the list size: %v", format, errs)
		}
	}
}

func TestRM1MaximumLikelihoodBound(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	const trials = 3000
	sc := mustCodec(t, spf.New().Set("RM_m", "5").Set("RM_r", "1"))
	list := mustCodec(t, spf.New().Set("RM_m", "5").Set("RM_r", "1").Set("border_node_lsize", "64").Set("format", fec.FormatLLR))
	ml := mustCodec(t, spf.New().Set("RM_m", "5").Set("RM_r", "1").Set("codec", fec.CodecRM1ML))

	errs := wordErrors(t, []fec.Codec{sc, list, ml}, 0, trials, 5)
	t.Logf("RM(5,1) at 0 dB: SC %d, L=64 %d, ML %d of %d", errs[0], errs[1], errs[2], trials)
	if errs[2] > errs[0] {
		t.Fatalf("ML decoding lost to SC decoding: %v", errs)
	}
	// A list as large as the code finds the ML word up to ties.
	if d := errs[1] - errs[2]; d > trials/100 || -d > trials/100 {
		t.Fatalf("full list and ML decoding disagree: %v", errs)
	}
}

func TestCAPolarListSizeLowersWordErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical test")
	}
	const trials = 3000
	var codecs []fec.Codec
	for _, l := range []int{1, 8} {
		codecs = append(codecs, mustCodec(t, spf.New().
			Set("c_m", "6").Set("polar_k", "34").
			Set("ca_polar_crc", "11").
			Set("list_size", fmt.Sprint(l)).
			Set("format", fec.FormatLLR)))
	}
	errs := wordErrors(t, codecs, 2, trials, 3)
	t.Logf("CA-Polar(64,32) at 2 dB: L=1 %d, L=8 %d of %d", errs[0], errs[1], trials)
	if errs[0] == 0 || errs[1] > errs[0] {
		t.Fatalf("word errors do not fall with the list size: %v", errs)
	}
}
