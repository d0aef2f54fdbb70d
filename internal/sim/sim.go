// Package sim runs Monte-Carlo error rate simulations of a codec over the
// BPSK/AWGN channel.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/observe-l/sclfec/fec"
	"github.com/observe-l/sclfec/internal/channel"
	"github.com/observe-l/sclfec/internal/results"
)

const (
	maxTrialsPerSNR = 1e10
	// Block errors needed before the trial target is estimated from the error rate.
	minErrorsForEstimate = 20
)

// ErrNoResultFile is returned by Save when the configuration names no file.
var ErrNoResultFile = errors.New("sim: res_file is not set")

// Control adjusts the trial target of the current SNR value.
type Control int

const (
	// More raises the target by half.
	More Control = iota
	// Less lowers the target by a third, not below the trials already run.
	Less
	// Next finishes the current SNR value.
	Next
)

// Options are the collaborators of a Simulation.
type Options struct {
	// Code labels metrics and log lines.
	Code    string
	Seed    int64
	Metrics *Metrics
	Log     *logrus.Entry
}

// Simulation is the state of one simulation run. It is not safe for
// concurrent use.
type Simulation struct {
	id    string
	cfg   *Config
	codec fec.Codec
	code  string
	n, k  int
	rate  float64

	cur    int
	target []int64
	pts    []results.Point
	saved  []results.Point
	store  *results.Store

	src   *channel.Bernoulli
	noise *channel.AWGN

	x, xdec   []uint8
	cin, cout []float64

	metrics *Metrics
	pm      pointMetrics
	log     *logrus.Entry
}

// New prepares a simulation of codec. The codec is owned by the simulation
// and closed by Close.
func New(cfg *Config, codec fec.Codec, opts Options) (*Simulation, error) {
	n, k := codec.N(), codec.K()
	if n == 0 || k == 0 {
		return nil, &ConfigError{Key: "codec", Reason: "code_n or code_k is zero"}
	}
	rate := float64(k) / float64(n)
	if cfg.FixedRate > 0 {
		rate = cfg.FixedRate
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Code == "" {
		opts.Code = fmt.Sprintf("n%d_k%d", n, k)
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	s := &Simulation{
		id:      uuid.NewString(),
		cfg:     cfg,
		codec:   codec,
		code:    opts.Code,
		n:       n,
		k:       k,
		rate:    rate,
		target:  append([]int64(nil), cfg.Trials...),
		pts:     make([]results.Point, len(cfg.SNR)),
		saved:   make([]results.Point, len(cfg.SNR)),
		src:     channel.NewBernoulli(0.5, rng),
		noise:   channel.NewAWGN(1, rng),
		x:       make([]uint8, k),
		xdec:    make([]uint8, k),
		cin:     make([]float64, n),
		cout:    make([]float64, n),
		metrics: opts.Metrics,
	}
	if cfg.ResFile != "" {
		s.store = results.NewStore(cfg.ResFile)
	}
	s.log = opts.Log.WithFields(logrus.Fields{"run": s.id, "code": s.code})
	return s, nil
}

// ID returns the run id used in log lines.
func (s *Simulation) ID() string { return s.id }

// Done reports whether every SNR value has reached its trial target.
func (s *Simulation) Done() bool { return s.cur >= len(s.cfg.SNR) }

// Run simulates until every SNR value is done or budget has elapsed. The
// clock and ctx are checked between trials. It reports whether the
// simulation is complete.
func (s *Simulation) Run(ctx context.Context, budget time.Duration) (bool, error) {
	start := time.Now()
	for ; s.cur < len(s.cfg.SNR); s.cur++ {
		s.enterSNR()
		for s.pts[s.cur].Trials < s.target[s.cur] {
			if err := s.trial(); err != nil {
				return false, err
			}
			s.updateTarget()
			if err := ctx.Err(); err != nil {
				return false, err
			}
			if time.Since(start) > budget {
				return false, nil
			}
		}
	}
	return true, nil
}

func (s *Simulation) enterSNR() {
	snr := s.cfg.SNR[s.cur]
	sigma := channel.SigmaForSNR(snr, s.rate)
	s.noise.SetSigma(sigma)
	s.codec.SetNoiseSigma(sigma)
	s.pm = s.metrics.point(s.code, strconv.FormatFloat(snr, 'g', -1, 64))
}

func (s *Simulation) trial() error {
	pt := &s.pts[s.cur]
	pt.Trials++
	s.pm.trials.Inc()

	if s.cfg.RandomCodeword {
		s.src.Bits(s.x)
		if err := s.codec.Encode(s.x, s.cin); err != nil {
			return fmt.Errorf("sim: encode: %w", err)
		}
	} else {
		clear(s.x)
		for i := range s.cin {
			s.cin[i] = -1
		}
	}
	s.noise.Add(s.cin, s.cout)

	t0 := time.Now()
	out, err := s.codec.Decode(s.cout, s.xdec)
	s.pm.decode.Observe(time.Since(t0).Seconds())
	if err != nil {
		return fmt.Errorf("sim: decode: %w", err)
	}

	errs := 0
	for i, b := range s.x {
		if s.xdec[i] != b {
			errs++
		}
	}
	if errs > 0 {
		pt.BitErrors += int64(errs)
		pt.BlockErrors++
		s.pm.bitErrors.Add(float64(errs))
		s.pm.blockErrors.Inc()
	}
	if out == fec.Erasure {
		pt.Erasures++
		s.pm.erasures.Inc()
	}
	if s.cfg.ML && out != fec.Erasure {
		pt.MLTrials++
		closer, err := s.decodedIsCloser()
		if err != nil {
			return err
		}
		if closer {
			pt.MLErrors++
			s.pm.mlErrors.Inc()
		}
	}
	return nil
}

// decodedIsCloser reports whether the decoded word is strictly closer to the
// channel output than the transmitted one, so that a maximum-likelihood
// decoder would have failed too.
func (s *Simulation) decodedIsCloser() (bool, error) {
	if s.cfg.MLHard {
		for i, v := range s.cout {
			if v > 0 {
				s.cout[i] = 1
			} else {
				s.cout[i] = -1
			}
		}
	}
	d1 := sqDist(s.cin, s.cout)
	if err := s.codec.Encode(s.xdec, s.cin); err != nil {
		return false, fmt.Errorf("sim: encode: %w", err)
	}
	return d1 > sqDist(s.cin, s.cout), nil
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		e := a[i] - b[i]
		d += e * e
	}
	return d
}

func (s *Simulation) updateTarget() {
	pt := s.pts[s.cur]
	if pt.BlockErrors >= s.cfg.MinErrors {
		return
	}
	if pt.BlockErrors > minErrorsForEstimate {
		est := float64(pt.Trials)*float64(s.cfg.MinErrors)/float64(pt.BlockErrors) + 0.5
		s.target[s.cur] = max(s.cfg.MinTrials, int64(min(est, maxTrialsPerSNR)))
		return
	}
	if pt.Trials > s.target[s.cur]/2 {
		s.target[s.cur] = int64(min(float64(pt.Trials)*1.5+0.5, maxTrialsPerSNR))
	}
}

// Control changes the trial target of the current SNR value.
func (s *Simulation) Control(c Control) {
	if s.Done() {
		return
	}
	i := s.cur
	switch c {
	case More:
		s.target[i] += s.target[i] / 2
	case Less:
		s.target[i] -= s.target[i] / 3
		s.target[i] = max(s.target[i], s.pts[i].Trials)
	case Next:
		s.target[i] = s.pts[i].Trials
	}
	s.log.WithField("target", s.target[i]).Debug("trial target changed")
}

// State returns a one line status of the current SNR value.
func (s *Simulation) State() string {
	i := min(s.cur, len(s.cfg.SNR)-1)
	pt := s.pts[i]
	str := fmt.Sprintf("SNR: %3.2f (%d / %d), trn: %d / %d, en: %d",
		s.cfg.SNR[i], i+1, len(s.cfg.SNR), pt.Trials, s.target[i], pt.BlockErrors)
	if s.cfg.ML {
		str += fmt.Sprintf(", ML en: %d", pt.MLErrors)
	}
	return str + "."
}

// Report returns a table of the error rates simulated so far.
func (s *Simulation) Report() string {
	var b strings.Builder
	b.WriteString("SNR\t ep_bit\t\t ep_bl")
	if s.cfg.ML {
		b.WriteString("\t\t epml_bl")
	}
	for i, r := range s.Rows() {
		if i > s.cur {
			break
		}
		fmt.Fprintf(&b, "\n%3.2f\t %.3e\t %.3e", r.SNR, r.BER(s.k), r.WER())
		if s.cfg.ML {
			fmt.Fprintf(&b, "\t %.3e", r.MLER())
		}
	}
	return b.String()
}

// Rows returns the counters of every SNR value.
func (s *Simulation) Rows() []results.Row {
	rows := make([]results.Row, len(s.pts))
	for i, pt := range s.pts {
		rows[i] = results.Row{SNR: s.cfg.SNR[i], Point: pt}
	}
	return rows
}

// Save merges the counters gathered since the previous save into the result
// file.
func (s *Simulation) Save() error {
	if s.store == nil {
		return ErrNoResultFile
	}
	deltas := s.Rows()
	for i := range deltas {
		deltas[i].Point = s.pts[i].Sub(s.saved[i])
	}
	if _, err := s.store.Save(s.n, s.k, deltas); err != nil {
		return err
	}
	copy(s.saved, s.pts)
	s.log.WithField("file", s.cfg.ResFile).Debug("results saved")
	return nil
}

// Close releases the codec.
func (s *Simulation) Close() error { return s.codec.Close() }
