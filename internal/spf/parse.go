package spf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	commentChar = '%'
	groupBegin  = "{"
	groupEnd    = "}"
	includeKey  = "include"

	maxIncludeDepth = 16
	maxFileSize     = 1 << 20
)

// FileError reports a parameter file that cannot be read or parsed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return "spf: " + e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

// Load reads a parameter file. Files ending in .yaml or .yml are read as YAML
// mappings; everything else uses the token format.
func Load(path string) (*Params, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	}
	toks, err := readTokens(path, 0)
	if err != nil {
		return nil, err
	}
	p, err := parseTokens(toks)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	p.path = path
	return p, nil
}

// Parse reads parameters from a string. Includes are resolved relative to dir.
func Parse(src, dir string) (*Params, error) {
	toks, err := expand(tokenize(src), dir, 0)
	if err != nil {
		return nil, err
	}
	return parseTokens(toks)
}

func readTokens(path string, depth int) ([]string, error) {
	if depth > maxIncludeDepth {
		return nil, &FileError{Path: path, Err: errors.New("includes nested too deeply")}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	if len(b) > maxFileSize {
		return nil, &FileError{Path: path, Err: fmt.Errorf("file exceeds %d bytes", maxFileSize)}
	}
	return expand(tokenize(string(b)), filepath.Dir(path), depth)
}

// expand replaces every "include <file>" pair by the tokens of the file.
func expand(toks []string, dir string, depth int) ([]string, error) {
	out := make([]string, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		if toks[i] != includeKey {
			out = append(out, toks[i])
			continue
		}
		if i+1 >= len(toks) {
			return nil, errors.New("spf: include without a file name")
		}
		i++
		name := toks[i]
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		sub, err := readTokens(name, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func isSep(r rune) bool {
	switch r {
	case ' ', ',', '\t', '\n', '\r':
		return true
	}
	return false
}

// tokenize strips comments and splits src into tokens. Braces attached to a
// token become tokens of their own.
func tokenize(src string) []string {
	var toks []string
	for _, line := range strings.Split(src, "\n") {
		if i := strings.IndexByte(line, commentChar); i >= 0 {
			line = line[:i]
		}
		for _, t := range strings.FieldsFunc(line, isSep) {
			if strings.HasPrefix(t, groupBegin) {
				toks = append(toks, groupBegin)
				t = t[1:]
			}
			closed := false
			if t != "" && strings.HasSuffix(t, groupEnd) {
				t = t[:len(t)-1]
				closed = true
			}
			if t != "" {
				toks = append(toks, t)
			}
			if closed {
				toks = append(toks, groupEnd)
			}
		}
	}
	return toks
}

func parseTokens(toks []string) (*Params, error) {
	p := New()
	for i := 0; i < len(toks); i++ {
		key := toks[i]
		if key == groupBegin || key == groupEnd {
			return nil, fmt.Errorf("unexpected %q at token %d", key, i)
		}
		if i+1 >= len(toks) {
			return nil, fmt.Errorf("parameter %s has no value", key)
		}
		i++
		if toks[i] == groupEnd {
			return nil, fmt.Errorf("parameter %s: unexpected %q", key, groupEnd)
		}
		if toks[i] != groupBegin {
			p.Set(key, toks[i])
			continue
		}
		var vals []string
		for i++; ; i++ {
			if i >= len(toks) {
				return nil, fmt.Errorf("parameter %s: unterminated group", key)
			}
			if toks[i] == groupEnd {
				break
			}
			if toks[i] == groupBegin {
				return nil, fmt.Errorf("parameter %s: nested group", key)
			}
			vals = append(vals, toks[i])
		}
		p.SetGroup(key, vals...)
	}
	return p, nil
}
