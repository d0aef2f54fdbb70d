// Package results reads, merges and writes simulation result files.
//
// A result file is a parameter file with one group per counter, indexed by
// SNR in ascending order, followed by a commented summary table:
//
//	code_n 16
//	code_k 11
//
//	SNR { 1 2 }
//	tr_num { 1000 1000 }
//	...
//
//	% SNR   BER         WER         ERR         ML LB
//	% 1.00  1.200e-02  4.000e-02  0.000e+00  0.000e+00
package results

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/observe-l/sclfec/internal/spf"
)

// ErrInvalid is wrapped by errors about malformed result files.
var ErrInvalid = errors.New("results: invalid result file")

const (
	keyN        = "code_n"
	keyK        = "code_k"
	keySNR      = "SNR"
	keyTrials   = "tr_num"
	keyBitErr   = "en_bit"
	keyBlockErr = "en_bl"
	keyErasures = "er_n"
	keyMLTrials = "ml_tr_num"
	keyMLErr    = "enml_bl"
)

// Point holds the counters of one SNR value.
type Point struct {
	Trials      int64
	BitErrors   int64
	BlockErrors int64
	Erasures    int64
	MLTrials    int64
	MLErrors    int64
}

func (p Point) Add(q Point) Point {
	return Point{
		Trials:      p.Trials + q.Trials,
		BitErrors:   p.BitErrors + q.BitErrors,
		BlockErrors: p.BlockErrors + q.BlockErrors,
		Erasures:    p.Erasures + q.Erasures,
		MLTrials:    p.MLTrials + q.MLTrials,
		MLErrors:    p.MLErrors + q.MLErrors,
	}
}

func (p Point) Sub(q Point) Point {
	return Point{
		Trials:      p.Trials - q.Trials,
		BitErrors:   p.BitErrors - q.BitErrors,
		BlockErrors: p.BlockErrors - q.BlockErrors,
		Erasures:    p.Erasures - q.Erasures,
		MLTrials:    p.MLTrials - q.MLTrials,
		MLErrors:    p.MLErrors - q.MLErrors,
	}
}

func ratio(a, b int64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// BER is the information bit error rate for dimension k.
func (p Point) BER(k int) float64 { return ratio(p.BitErrors, p.Trials*int64(k)) }

// WER is the block error rate.
func (p Point) WER() float64 { return ratio(p.BlockErrors, p.Trials) }

// ERR is the erasure rate.
func (p Point) ERR() float64 { return ratio(p.Erasures, p.Trials) }

// MLER is the maximum-likelihood lower bound on the block error rate.
func (p Point) MLER() float64 { return ratio(p.MLErrors, p.MLTrials) }

// Row is one SNR value with its counters.
type Row struct {
	SNR float64
	Point
}

// File is the content of a result file.
type File struct {
	N, K int
	Rows []Row
}

// Read loads a result file. A missing file yields an error matching
// os.ErrNotExist.
func Read(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(string(b), filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes result file text.
func Parse(src, dir string) (*File, error) {
	p, err := spf.Parse(src, dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	f := &File{}
	if f.N, _, err = p.Int(keyN); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if f.K, _, err = p.Int(keyK); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	snr, _, err := p.Floats(keySNR)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	f.Rows = make([]Row, len(snr))
	for i, s := range snr {
		f.Rows[i].SNR = s
	}
	counters := []struct {
		key string
		set func(*Point, int64)
	}{
		{keyTrials, func(p *Point, v int64) { p.Trials = v }},
		{keyBitErr, func(p *Point, v int64) { p.BitErrors = v }},
		{keyBlockErr, func(p *Point, v int64) { p.BlockErrors = v }},
		{keyErasures, func(p *Point, v int64) { p.Erasures = v }},
		{keyMLTrials, func(p *Point, v int64) { p.MLTrials = v }},
		{keyMLErr, func(p *Point, v int64) { p.MLErrors = v }},
	}
	for _, c := range counters {
		vals, _, err := p.Ints(c.key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if len(vals) != len(snr) {
			return nil, fmt.Errorf("%w: %s has %d values for %d SNR values", ErrInvalid, c.key, len(vals), len(snr))
		}
		for i, v := range vals {
			c.set(&f.Rows[i].Point, int64(v))
		}
	}
	return f, nil
}

// Merge adds delta to the row of snr, inserting the row in SNR order when it
// does not exist yet.
func (f *File) Merge(snr float64, delta Point) {
	i := sort.Search(len(f.Rows), func(i int) bool { return f.Rows[i].SNR >= snr })
	if i == len(f.Rows) || f.Rows[i].SNR != snr {
		f.Rows = append(f.Rows, Row{})
		copy(f.Rows[i+1:], f.Rows[i:])
		f.Rows[i] = Row{SNR: snr}
	}
	f.Rows[i].Point = f.Rows[i].Point.Add(delta)
}

// WriteTo writes the file in the text format.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d\n%s %d\n\n", keyN, f.N, keyK, f.K)

	group := func(key string, item func(r Row) string) {
		b.WriteString(key + " { ")
		for _, r := range f.Rows {
			b.WriteString(item(r) + " ")
		}
		b.WriteString("}\n")
	}
	count := func(v int64) string { return fmt.Sprintf("%d", v) }
	rate := func(v float64) string { return fmt.Sprintf("%.3e", v) }

	group(keySNR, func(r Row) string { return fmt.Sprintf("%g", r.SNR) })
	group(keyTrials, func(r Row) string { return count(r.Trials) })
	group(keyBitErr, func(r Row) string { return count(r.BitErrors) })
	group(keyBlockErr, func(r Row) string { return count(r.BlockErrors) })
	group(keyErasures, func(r Row) string { return count(r.Erasures) })
	group("WER", func(r Row) string { return rate(r.WER()) })
	group("ERR", func(r Row) string { return rate(r.ERR()) })
	group(keyMLTrials, func(r Row) string { return count(r.MLTrials) })
	group(keyMLErr, func(r Row) string { return count(r.MLErrors) })
	group("MLER", func(r Row) string { return rate(r.MLER()) })

	b.WriteString("\n% SNR   BER         WER         ERR         ML LB")
	for _, r := range f.Rows {
		fmt.Fprintf(&b, "\n%% %3.2f  %.3e  %.3e  %.3e  %.3e", r.SNR, r.BER(f.K), r.WER(), r.ERR(), r.MLER())
	}
	b.WriteString("\n")

	n, err := w.Write(b.Bytes())
	return int64(n), err
}
