package sim

import (
	"fmt"

	"github.com/observe-l/sclfec/internal/spf"
)

// Config is the simulation part of a parameter file.
type Config struct {
	ResFile string
	SNR     []float64
	// Trials is the requested number of trials per SNR value.
	Trials    []int64
	MinTrials int64
	MinErrors int64
	// ML counts decoded words that are closer to the channel output than the
	// transmitted one; MLHard measures the distance on hard decisions.
	ML             bool
	MLHard         bool
	RandomCodeword bool
	// FixedRate, when positive, replaces K/N in the SNR to noise conversion.
	FixedRate float64
}

// ConfigError reports an invalid simulation parameter.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("sim: config %s: %s", e.Key, e.Reason) }

// ParseConfig reads res_file, SNR_val_trn (or EbNo_values),
// min_trials_per_snr, min_errors_per_snr, ml_lb, ml_lb_hard, random_codeword
// and fixed_R.
func ParseConfig(p *spf.Params) (*Config, error) {
	c := &Config{}
	var err error
	if c.ResFile, _, err = p.String("res_file"); err != nil {
		return nil, &ConfigError{Key: "res_file", Reason: err.Error()}
	}
	if c.MinTrials, err = int64Param(p, "min_trials_per_snr"); err != nil {
		return nil, err
	}
	if c.MinErrors, err = int64Param(p, "min_errors_per_snr"); err != nil {
		return nil, err
	}
	c.MinTrials = max(c.MinTrials, 1)
	c.MinErrors = max(c.MinErrors, 1)

	if vals, ok, err := p.Floats("SNR_val_trn"); err != nil {
		return nil, &ConfigError{Key: "SNR_val_trn", Reason: err.Error()}
	} else if ok {
		if len(vals)%2 != 0 {
			return nil, &ConfigError{Key: "SNR_val_trn", Reason: "expected SNR and trials pairs"}
		}
		for i := 0; i < len(vals); i += 2 {
			c.SNR = append(c.SNR, vals[i])
			c.Trials = append(c.Trials, int64(vals[i+1]))
		}
	} else if vals, _, err := p.Floats("EbNo_values"); err != nil {
		return nil, &ConfigError{Key: "EbNo_values", Reason: err.Error()}
	} else {
		c.SNR = vals
		c.Trials = make([]int64, len(vals))
	}
	if len(c.SNR) == 0 {
		return nil, &ConfigError{Key: "SNR_val_trn", Reason: "no SNR values are specified"}
	}
	for i, t := range c.Trials {
		if t < 1 {
			c.Trials[i] = c.MinTrials
		}
	}

	c.ML = p.Switch("ml_lb")
	c.MLHard = p.Switch("ml_lb_hard")
	c.ML = c.ML || c.MLHard
	c.RandomCodeword = p.Switch("random_codeword")
	if v, ok, err := p.Float("fixed_R"); err != nil {
		return nil, &ConfigError{Key: "fixed_R", Reason: err.Error()}
	} else if ok {
		if v < 0 {
			return nil, &ConfigError{Key: "fixed_R", Reason: "must not be negative"}
		}
		c.FixedRate = v
	}
	return c, nil
}

func int64Param(p *spf.Params, key string) (int64, error) {
	v, _, err := p.Int(key)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: err.Error()}
	}
	return int64(v), nil
}
