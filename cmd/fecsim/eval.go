package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/francoispqt/gojay"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/observe-l/sclfec/fec"
	"github.com/observe-l/sclfec/internal/channel"
	"github.com/observe-l/sclfec/internal/spf"
)

type evalOptions struct {
	snrs   string
	trials int
	out    string
	seed   int64
}

type resultKey struct {
	Code string
	SNR  float64
}

type agg struct {
	N, K        int
	Runs        int
	BlockErrors int
	Erasures    int
	EncTotal    time.Duration
	DecTotal    time.Duration
}

type allResults map[resultKey]*agg

func newEvalCmd() *cobra.Command {
	var o evalOptions
	cmd := &cobra.Command{
		Use:   "eval <param-file>...",
		Short: "Compare codecs: error rate and encode/decode time per SNR",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			snrs, err := parseFloats(o.snrs)
			if err != nil {
				return err
			}
			if o.trials < 1 {
				return fmt.Errorf("trials must be positive")
			}
			res, err := evaluate(args, snrs, o.trials, o.seed)
			if err != nil {
				return err
			}
			mdPath, jsonPath, err := writeReports(o.out, res, time.Now())
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"markdown": mdPath, "json": jsonPath}).Info("report written")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.snrs, "snr", "1,2,3", "comma-separated list of Eb/N0 values in dB")
	f.IntVar(&o.trials, "trials", 10000, "trials per (codec, SNR)")
	f.StringVar(&o.out, "out", "docs/reports/fecsim_eval.md", "output markdown report path")
	f.Int64Var(&o.seed, "seed", 42, "random seed")
	return cmd
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscanf(p, "%g", &f); err != nil {
			return nil, fmt.Errorf("bad value %q: %w", p, err)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %q", s)
	}
	return out, nil
}

func codeName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

// codeLabels names every file by its base name, falling back to the path
// without extension where base names collide.
func codeLabels(files []string) ([]string, error) {
	count := map[string]int{}
	for _, f := range files {
		count[codeName(f)]++
	}
	labels := make([]string, len(files))
	seen := map[string]bool{}
	for i, f := range files {
		l := codeName(f)
		if count[l] > 1 {
			f = filepath.Clean(f)
			l = strings.TrimSuffix(f, filepath.Ext(f))
		}
		if seen[l] {
			return nil, fmt.Errorf("%s: listed twice", files[i])
		}
		seen[l] = true
		labels[i] = l
	}
	return labels, nil
}

// evaluate runs every codec on its own goroutine with its own random source.
func evaluate(files []string, snrs []float64, trials int, seed int64) (allResults, error) {
	labels, err := codeLabels(files)
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex
	res := make(allResults)
	var g errgroup.Group
	for i, file := range files {
		g.Go(func() error {
			p, err := spf.Load(file)
			if err != nil {
				return err
			}
			codec, err := fec.New(p)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			defer codec.Close()
			rng := rand.New(rand.NewSource(seed + int64(i)))
			for _, snr := range snrs {
				a, err := evalPoint(codec, snr, trials, rng)
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				mu.Lock()
				res[resultKey{Code: labels[i], SNR: snr}] = a
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func evalPoint(codec fec.Codec, snr float64, trials int, rng *rand.Rand) (*agg, error) {
	n, k := codec.N(), codec.K()
	sigma := channel.SigmaForSNR(snr, float64(k)/float64(n))
	codec.SetNoiseSigma(sigma)
	src := channel.NewBernoulli(0.5, rng)
	noise := channel.NewAWGN(sigma, rng)
	x := make([]uint8, k)
	xdec := make([]uint8, k)
	cin := make([]float64, n)
	cout := make([]float64, n)

	a := &agg{N: n, K: k}
	for t := 0; t < trials; t++ {
		src.Bits(x)
		t0 := time.Now()
		if err := codec.Encode(x, cin); err != nil {
			return nil, err
		}
		a.EncTotal += time.Since(t0)
		noise.Add(cin, cout)
		t0 = time.Now()
		out, err := codec.Decode(cout, xdec)
		if err != nil {
			return nil, err
		}
		a.DecTotal += time.Since(t0)
		a.Runs++
		if out == fec.Erasure {
			a.Erasures++
		}
		for i := range x {
			if x[i] != xdec[i] {
				a.BlockErrors++
				break
			}
		}
	}
	return a, nil
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// writeReports writes a markdown report and a JSON record file next to it,
// both stamped with ts.
func writeReports(out string, res allResults, ts time.Time) (string, string, error) {
	if err := ensureDir(out); err != nil {
		return "", "", err
	}
	base := strings.TrimSuffix(out, ".md") + "_" + ts.Format("20060102_150405")
	mdPath, jsonPath := base+".md", base+".json"

	jf, err := os.Create(jsonPath)
	if err != nil {
		return "", "", fmt.Errorf("create json: %w", err)
	}
	enc := gojay.BorrowEncoder(jf)
	err = enc.EncodeObject(jsonReport(res))
	enc.Release()
	if cerr := jf.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", "", fmt.Errorf("write json: %w", err)
	}

	mf, err := os.Create(mdPath)
	if err != nil {
		return "", "", err
	}
	defer mf.Close()
	var b strings.Builder
	writeMarkdown(&b, res, ts)
	if _, err := mf.WriteString(b.String()); err != nil {
		return "", "", err
	}
	return mdPath, jsonPath, nil
}

func sortedKeys(res allResults) ([]string, []float64) {
	codes := map[string]struct{}{}
	snrs := map[float64]struct{}{}
	for k := range res {
		codes[k.Code] = struct{}{}
		snrs[k.SNR] = struct{}{}
	}
	cs := make([]string, 0, len(codes))
	for c := range codes {
		cs = append(cs, c)
	}
	sort.Strings(cs)
	ss := make([]float64, 0, len(snrs))
	for s := range snrs {
		ss = append(ss, s)
	}
	sort.Float64s(ss)
	return cs, ss
}

func writeMarkdown(b *strings.Builder, res allResults, ts time.Time) {
	codes, snrs := sortedKeys(res)

	fmt.Fprintf(b, "# Codec Evaluation Report\n\n")
	fmt.Fprintf(b, "Generated: %s\n\n", ts.Format(time.RFC3339))

	header := func() {
		fmt.Fprintf(b, "| Code | N | K | %s |\n", joinSNRHeaders(snrs))
		fmt.Fprintf(b, "|---|---:|---:|%s\n", strings.Repeat("---:|", len(snrs)))
	}
	table := func(title string, cell func(a *agg) string) {
		fmt.Fprintf(b, "## %s\n\n", title)
		header()
		for _, c := range codes {
			var n, k int
			cells := make([]string, len(snrs))
			for i, s := range snrs {
				a := res[resultKey{Code: c, SNR: s}]
				if a == nil || a.Runs == 0 {
					continue
				}
				n, k = a.N, a.K
				cells[i] = cell(a)
			}
			fmt.Fprintf(b, "| %s | %d | %d | %s |\n", c, n, k, strings.Join(cells, " | "))
		}
		fmt.Fprintf(b, "\n")
	}

	table("Word Error Rate", func(a *agg) string {
		return fmt.Sprintf("%.3e", float64(a.BlockErrors)/float64(a.Runs))
	})
	table("Erasure Rate", func(a *agg) string {
		return fmt.Sprintf("%.3e", float64(a.Erasures)/float64(a.Runs))
	})
	table("Encoding Time (us/word)", func(a *agg) string {
		return fmt.Sprintf("%.3f", float64(a.EncTotal.Microseconds())/float64(a.Runs))
	})
	table("Decoding Time (us/word)", func(a *agg) string {
		return fmt.Sprintf("%.3f", float64(a.DecTotal.Microseconds())/float64(a.Runs))
	})

	fmt.Fprintf(b, "---\n\nNotes:\n\n- Channel: BPSK over AWGN, random information words, SNR is Eb/N0 at the code rate.\n")
}

func joinSNRHeaders(snrs []float64) string {
	parts := make([]string, len(snrs))
	for i, s := range snrs {
		parts[i] = fmt.Sprintf("%g dB", s)
	}
	return strings.Join(parts, " | ")
}

type jsonReport allResults

func (r jsonReport) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("records", jsonRecords(r))
}

func (r jsonReport) IsNil() bool { return r == nil }

type jsonRecords allResults

func (r jsonRecords) MarshalJSONArray(enc *gojay.Encoder) {
	codes, snrs := sortedKeys(allResults(r))
	for _, c := range codes {
		for _, s := range snrs {
			if a := r[resultKey{Code: c, SNR: s}]; a != nil {
				enc.Object(jsonRecord{key: resultKey{Code: c, SNR: s}, a: a})
			}
		}
	}
}

func (r jsonRecords) IsNil() bool { return r == nil }

type jsonRecord struct {
	key resultKey
	a   *agg
}

func (r jsonRecord) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("code", r.key.Code)
	enc.IntKey("N", r.a.N)
	enc.IntKey("K", r.a.K)
	enc.Float64Key("snr", r.key.SNR)
	enc.IntKey("runs", r.a.Runs)
	enc.IntKey("block_errors", r.a.BlockErrors)
	enc.IntKey("erasures", r.a.Erasures)
	enc.Int64Key("enc_us_total", r.a.EncTotal.Microseconds())
	enc.Int64Key("dec_us_total", r.a.DecTotal.Microseconds())
}

func (r jsonRecord) IsNil() bool { return r.a == nil }
