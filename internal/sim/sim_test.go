package sim

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/observe-l/sclfec/fec"
	"github.com/observe-l/sclfec/internal/channel"
	"github.com/observe-l/sclfec/internal/mocks"
	"github.com/observe-l/sclfec/internal/results"
)

func newMockCodec(t *testing.T, n, k int) *mocks.MockCodec {
	ctrl := gomock.NewController(t)
	c := mocks.NewMockCodec(ctrl)
	c.EXPECT().N().Return(n).AnyTimes()
	c.EXPECT().K().Return(k).AnyTimes()
	return c
}

func testOptions() Options {
	logger, _ := test.NewNullLogger()
	return Options{Seed: 1, Log: logrus.NewEntry(logger), Metrics: NewMetrics(nil)}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	sum := 0.0
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

// decodeAs makes every decode return bits.
func decodeAs(bits []uint8, out fec.Outcome) func([]float64, []uint8) (fec.Outcome, error) {
	return func(_ []float64, info []uint8) (fec.Outcome, error) {
		copy(info, bits)
		return out, nil
	}
}

func TestRunCountsErrors(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	codec.EXPECT().SetNoiseSigma(channel.SigmaForSNR(1, 0.5))
	codec.EXPECT().Decode(gomock.Any(), gomock.Any()).DoAndReturn(decodeAs([]uint8{1, 0}, fec.OK)).Times(10)

	cfg := &Config{SNR: []float64{1}, Trials: []int64{10}, MinTrials: 1, MinErrors: 1}
	reg := prometheus.NewRegistry()
	opts := testOptions()
	opts.Metrics = NewMetrics(reg)
	opts.Code = "mock"
	s, err := New(cfg, codec, opts)
	require.NoError(t, err)

	done, err := s.Run(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, s.Done())

	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, results.Point{Trials: 10, BitErrors: 10, BlockErrors: 10}, rows[0].Point)
	assert.Equal(t, 10.0, counterValue(t, reg, "fecsim_trials_total"))
	assert.Equal(t, 10.0, counterValue(t, reg, "fecsim_block_errors_total"))
	assert.Equal(t, 0.0, counterValue(t, reg, "fecsim_erasures_total"))
	assert.Equal(t, "SNR: 1.00 (1 / 1), trn: 10 / 10, en: 10.", s.State())
}

func TestRunErasuresAndMLBound(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	codec.EXPECT().SetNoiseSigma(gomock.Any()).AnyTimes()

	var last []float64
	gomock.InOrder(
		codec.EXPECT().Decode(gomock.Any(), gomock.Any()).DoAndReturn(decodeAs([]uint8{0, 0}, fec.Erasure)),
		codec.EXPECT().Decode(gomock.Any(), gomock.Any()).DoAndReturn(func(ch []float64, info []uint8) (fec.Outcome, error) {
			last = ch
			info[0], info[1] = 0, 1
			return fec.OK, nil
		}).Times(3),
	)
	// The decoded word re-encodes to the channel output itself, which is
	// always closer than the transmitted word.
	codec.EXPECT().Encode([]uint8{0, 1}, gomock.Any()).DoAndReturn(func(_ []uint8, out []float64) error {
		copy(out, last)
		return nil
	}).Times(3)

	cfg := &Config{SNR: []float64{0}, Trials: []int64{4}, MinTrials: 1, MinErrors: 1, ML: true}
	s, err := New(cfg, codec, testOptions())
	require.NoError(t, err)
	done, err := s.Run(context.Background(), time.Hour)
	require.NoError(t, err)
	require.True(t, done)

	pt := s.Rows()[0].Point
	assert.Equal(t, int64(4), pt.Trials)
	assert.Equal(t, int64(1), pt.Erasures)
	assert.Equal(t, int64(3), pt.BlockErrors)
	assert.Equal(t, int64(3), pt.MLTrials)
	assert.Equal(t, int64(3), pt.MLErrors)
	assert.True(t, strings.HasSuffix(s.State(), ", ML en: 3."))
}

func TestRunRandomCodeword(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	codec.EXPECT().SetNoiseSigma(gomock.Any()).AnyTimes()
	var sent []uint8
	codec.EXPECT().Encode(gomock.Any(), gomock.Any()).DoAndReturn(func(info []uint8, out []float64) error {
		sent = append(sent[:0], info...)
		for i := range out {
			out[i] = -1
		}
		return nil
	}).Times(5)
	codec.EXPECT().Decode(gomock.Any(), gomock.Any()).DoAndReturn(func(_ []float64, info []uint8) (fec.Outcome, error) {
		copy(info, sent)
		return fec.OK, nil
	}).Times(5)

	// Without a minimum error count the target never grows.
	cfg := &Config{SNR: []float64{2}, Trials: []int64{5}, MinTrials: 1, RandomCodeword: true}
	s, err := New(cfg, codec, testOptions())
	require.NoError(t, err)
	_, err = s.Run(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, results.Point{Trials: 5}, s.Rows()[0].Point)
}

func TestRunStops(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	codec.EXPECT().SetNoiseSigma(gomock.Any()).AnyTimes()
	codec.EXPECT().Decode(gomock.Any(), gomock.Any()).DoAndReturn(decodeAs([]uint8{0, 0}, fec.OK)).Times(2)

	cfg := &Config{SNR: []float64{1, 2}, Trials: []int64{100, 100}, MinTrials: 1, MinErrors: 1}
	s, err := New(cfg, codec, testOptions())
	require.NoError(t, err)

	done, err := s.Run(context.Background(), -time.Second)
	require.NoError(t, err)
	assert.False(t, done)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done, err = s.Run(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, done)
	assert.Equal(t, int64(2), s.Rows()[0].Trials)
}

func TestDecodeErrorAborts(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	codec.EXPECT().SetNoiseSigma(gomock.Any())
	codec.EXPECT().Decode(gomock.Any(), gomock.Any()).Return(fec.OK, fec.ErrLength)

	s, err := New(&Config{SNR: []float64{1}, Trials: []int64{3}, MinTrials: 1, MinErrors: 1}, codec, testOptions())
	require.NoError(t, err)
	_, err = s.Run(context.Background(), time.Hour)
	assert.ErrorIs(t, err, fec.ErrLength)
}

func TestUpdateTarget(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	s, err := New(&Config{SNR: []float64{1}, Trials: []int64{1000}, MinTrials: 1, MinErrors: 100}, codec, testOptions())
	require.NoError(t, err)

	s.pts[0] = results.Point{Trials: 400, BlockErrors: 5}
	s.updateTarget()
	assert.Equal(t, int64(1000), s.target[0])

	s.pts[0] = results.Point{Trials: 600, BlockErrors: 5}
	s.updateTarget()
	assert.Equal(t, int64(900), s.target[0])

	s.pts[0] = results.Point{Trials: 1000, BlockErrors: 25}
	s.updateTarget()
	assert.Equal(t, int64(4000), s.target[0])

	s.pts[0] = results.Point{Trials: 5000, BlockErrors: 100}
	s.updateTarget()
	assert.Equal(t, int64(4000), s.target[0], "enough errors")
}

func TestControl(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	s, err := New(&Config{SNR: []float64{1}, Trials: []int64{900}, MinTrials: 1, MinErrors: 1}, codec, testOptions())
	require.NoError(t, err)
	s.pts[0].Trials = 700

	s.Control(More)
	assert.Equal(t, int64(1350), s.target[0])
	s.Control(Less)
	assert.Equal(t, int64(900), s.target[0])
	s.Control(Less)
	assert.Equal(t, int64(700), s.target[0], "never below the trials run")
	s.target[0] = 2000
	s.Control(Next)
	assert.Equal(t, int64(700), s.target[0])
}

func TestSaveMergesDeltas(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	codec.EXPECT().SetNoiseSigma(gomock.Any()).AnyTimes()
	codec.EXPECT().Decode(gomock.Any(), gomock.Any()).DoAndReturn(decodeAs([]uint8{0, 1}, fec.OK)).AnyTimes()
	codec.EXPECT().Close().Return(nil)

	path := filepath.Join(t.TempDir(), "res.txt")
	cfg := &Config{ResFile: path, SNR: []float64{1, 2}, Trials: []int64{3, 2}, MinTrials: 1, MinErrors: 1}
	s, err := New(cfg, codec, testOptions())
	require.NoError(t, err)

	_, err = s.Run(context.Background(), -time.Second)
	require.NoError(t, err)
	require.NoError(t, s.Save())
	_, err = s.Run(context.Background(), time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())

	f, err := results.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 4, f.N)
	assert.Equal(t, 2, f.K)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, results.Point{Trials: 3, BitErrors: 3, BlockErrors: 3}, f.Rows[0].Point)
	assert.Equal(t, results.Point{Trials: 2, BitErrors: 2, BlockErrors: 2}, f.Rows[1].Point)

	report := s.Report()
	assert.Contains(t, report, "1.00\t 5.000e-01\t 1.000e+00")
}

func TestSaveWithoutFile(t *testing.T) {
	codec := newMockCodec(t, 4, 2)
	s, err := New(&Config{SNR: []float64{1}, Trials: []int64{1}, MinTrials: 1, MinErrors: 1}, codec, testOptions())
	require.NoError(t, err)
	assert.ErrorIs(t, s.Save(), ErrNoResultFile)
}
