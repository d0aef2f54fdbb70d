package fec

import (
	"errors"
	"fmt"
)

// ErrLength is returned when a caller buffer does not match the code length or dimension.
var ErrLength = errors.New("fec: buffer length mismatch")

// ErrClosed is returned by Encode and Decode after Close.
var ErrClosed = errors.New("fec: codec closed")

// ConfigError reports a missing or invalid codec parameter.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "fec: config: " + e.Reason
	}
	return fmt.Sprintf("fec: config %s: %s", e.Key, e.Reason)
}

func configErrorf(key, format string, a ...any) error {
	return &ConfigError{Key: key, Reason: fmt.Sprintf(format, a...)}
}

// ResourceError reports decoder pools that would exceed the supported limits.
type ResourceError struct {
	What  string
	Need  int
	Limit int
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("fec: %s needs %d entries, limit %d", e.What, e.Need, e.Limit)
}

// Limits on decoder memory, checked at construction.
const (
	MaxSlots = 1 << 16
	MaxCells = 1 << 28
	MaxM     = 20
)
