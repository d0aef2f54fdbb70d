package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus counters shared by every simulation of a
// process. They are labelled by code and SNR.
type Metrics struct {
	trials      *prometheus.CounterVec
	blockErrors *prometheus.CounterVec
	bitErrors   *prometheus.CounterVec
	erasures    *prometheus.CounterVec
	mlErrors    *prometheus.CounterVec
	decode      *prometheus.HistogramVec
}

// NewMetrics registers the simulation metrics with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := []string{"code", "snr"}
	return &Metrics{
		trials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fecsim_trials_total",
			Help: "Simulated code words.",
		}, labels),
		blockErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fecsim_block_errors_total",
			Help: "Decoded words with at least one wrong information bit.",
		}, labels),
		bitErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fecsim_bit_errors_total",
			Help: "Wrong information bits.",
		}, labels),
		erasures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fecsim_erasures_total",
			Help: "Decodes that reported an erasure.",
		}, labels),
		mlErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fecsim_ml_errors_total",
			Help: "Decoded words closer to the channel output than the transmitted word.",
		}, labels),
		decode: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fecsim_decode_seconds",
			Help:    "Time of one decode call.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"code"}),
	}
}

// pointMetrics holds the children of one (code, snr) pair.
type pointMetrics struct {
	trials, blockErrors, bitErrors, erasures, mlErrors prometheus.Counter
	decode                                             prometheus.Observer
}

func (m *Metrics) point(code, snr string) pointMetrics {
	return pointMetrics{
		trials:      m.trials.WithLabelValues(code, snr),
		blockErrors: m.blockErrors.WithLabelValues(code, snr),
		bitErrors:   m.bitErrors.WithLabelValues(code, snr),
		erasures:    m.erasures.WithLabelValues(code, snr),
		mlErrors:    m.mlErrors.WithLabelValues(code, snr),
		decode:      m.decode.WithLabelValues(code),
	}
}
