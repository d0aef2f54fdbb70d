// Package spf reads simulation parameter files.
//
// A parameter file is a flat list of "key value" pairs where the value is a
// single token or a group of tokens in braces:
//
//	% comment up to the end of the line
//	RM_m 6, RM_r 3
//	permutations { 0 1 2 3 4 5
//	               5 4 3 2 1 0 }
//	use_variable_list on
//	include common.spf
//
// Tokens are separated by space, comma, tab, CR and LF. The last occurrence of
// a key wins.
package spf

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// SwitchOn is the token that enables a switch parameter.
const SwitchOn = "on"

// Value is the raw value of one parameter.
type Value struct {
	Tokens []string
	Group  bool
}

// Params holds the parameters of one file (with its includes).
type Params struct {
	path string
	keys []string
	vals map[string]Value
}

// New returns an empty parameter set, mainly for building parameters in code.
func New() *Params {
	return &Params{vals: make(map[string]Value)}
}

// Path returns the file the parameters were read from, if any.
func (p *Params) Path() string { return p.path }

// Resolve interprets name relative to the directory of the parameter file.
func (p *Params) Resolve(name string) string {
	if p.path == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(filepath.Dir(p.path), name)
}

// Set stores a single-token value.
func (p *Params) Set(key, value string) *Params {
	p.put(key, Value{Tokens: []string{value}})
	return p
}

// SetGroup stores a group value.
func (p *Params) SetGroup(key string, tokens ...string) *Params {
	p.put(key, Value{Tokens: append([]string(nil), tokens...), Group: true})
	return p
}

func (p *Params) put(key string, v Value) {
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = v
}

// Keys lists the keys in order of first appearance.
func (p *Params) Keys() []string { return append([]string(nil), p.keys...) }

func (p *Params) Has(key string) bool {
	_, ok := p.vals[key]
	return ok
}

// Lookup returns the raw value of key.
func (p *Params) Lookup(key string) (Value, bool) {
	v, ok := p.vals[key]
	return v, ok
}

// ValueError reports a parameter whose value cannot be interpreted.
type ValueError struct {
	Key    string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("spf: parameter %s: %s", e.Key, e.Reason)
}

func (p *Params) scalar(key string) (string, bool, error) {
	v, ok := p.vals[key]
	if !ok {
		return "", false, nil
	}
	if v.Group || len(v.Tokens) != 1 {
		return "", true, &ValueError{Key: key, Reason: "expected a single value"}
	}
	return v.Tokens[0], true, nil
}

// String returns the single-token value of key.
func (p *Params) String(key string) (string, bool, error) {
	return p.scalar(key)
}

func (p *Params) Int(key string) (int, bool, error) {
	s, ok, err := p.scalar(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, &ValueError{Key: key, Reason: fmt.Sprintf("%q is not an integer", s)}
	}
	return i, true, nil
}

func (p *Params) Float(key string) (float64, bool, error) {
	s, ok, err := p.scalar(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, &ValueError{Key: key, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return f, true, nil
}

// Switch reports whether key is set to "on".
func (p *Params) Switch(key string) bool {
	s, ok, err := p.scalar(key)
	return ok && err == nil && s == SwitchOn
}

func (p *Params) group(key string) ([]string, bool, error) {
	v, ok := p.vals[key]
	if !ok {
		return nil, false, nil
	}
	if !v.Group {
		return nil, true, &ValueError{Key: key, Reason: "expected a { } group"}
	}
	return v.Tokens, true, nil
}

// Group returns the tokens of a group value.
func (p *Params) Group(key string) ([]string, bool, error) {
	return p.group(key)
}

func (p *Params) Ints(key string) ([]int, bool, error) {
	toks, ok, err := p.group(key)
	if !ok || err != nil {
		return nil, ok, err
	}
	out := make([]int, len(toks))
	for i, s := range toks {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, true, &ValueError{Key: key, Reason: fmt.Sprintf("item %d: %q is not an integer", i, s)}
		}
		out[i] = v
	}
	return out, true, nil
}

func (p *Params) Floats(key string) ([]float64, bool, error) {
	toks, ok, err := p.group(key)
	if !ok || err != nil {
		return nil, ok, err
	}
	out := make([]float64, len(toks))
	for i, s := range toks {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, true, &ValueError{Key: key, Reason: fmt.Sprintf("item %d: %q is not a number", i, s)}
		}
		out[i] = v
	}
	return out, true, nil
}
