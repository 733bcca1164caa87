package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Sentinels shared across the storage and bot layers.
var (
	ErrNotFound    = errors.New("not found")
	ErrDraftExists = errors.New("pending draft already exists for owner")
	ErrMediaLimit  = errors.New("media limit reached")
)

// ValidationError means user input failed a dialogue step's rule. The
// message is the Amharic re-prompt shown to the user; these are never logged.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError wraps an Amharic re-prompt message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// ConfigError is a fatal configuration problem (missing signing key,
// malformed key length). Surfaced verbatim to the triggering admin action.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// IsTransient reports whether a persistence error is worth a bounded retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "timeout")
}
