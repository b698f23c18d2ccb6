package logmerge

import (
	"errors"
	"fmt"
	"time"

	"github.com/creastat/logmerge/core"
)

// ErrNilSink is returned when a merge is started without a sink
var ErrNilSink = errors.New("sink is nil")

// ValidationError represents a validation error with context
type ValidationError struct {
	Message string
	Details string
	Err     error
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e ValidationError) Unwrap() error { return e.Err }

// EntryError describes a fetched entry the guard refused
type EntryError struct {
	Reason core.SkipReason
	Entry  core.Entry
	Now    time.Time
}

func (e *EntryError) Error() string {
	switch e.Reason {
	case core.SkipReasonFuture:
		return fmt.Sprintf("entry dated %s is after now (%s)",
			e.Entry.Timestamp.Format(time.RFC3339Nano), e.Now.Format(time.RFC3339Nano))
	case core.SkipReasonMalformed:
		return "entry has no timestamp"
	default:
		return fmt.Sprintf("entry rejected: %s", e.Reason)
	}
}

// Guard rejects entries that would corrupt the merged order
type Guard struct {
	Now func() time.Time
}

// Check returns nil for a usable entry, otherwise an *EntryError.
// Now is captured per call, so an entry dated exactly now passes.
func (g Guard) Check(entry core.Entry) error {
	if entry.Timestamp.IsZero() {
		return &EntryError{Reason: core.SkipReasonMalformed, Entry: entry}
	}
	now := g.now()
	if entry.Timestamp.After(now) {
		return &EntryError{Reason: core.SkipReasonFuture, Entry: entry, Now: now}
	}
	return nil
}

func (g Guard) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// validateRun checks merge arguments before any source is touched
func validateRun(n int, isNil func(i int) bool, sink core.Sink) error {
	if sink == nil {
		return ValidationError{
			Message: "merge validation failed",
			Details: "no sink provided",
			Err:     ErrNilSink,
		}
	}
	for i := 0; i < n; i++ {
		if isNil(i) {
			return ValidationError{
				Message: "merge validation failed",
				Details: fmt.Sprintf("source %d is nil", i),
			}
		}
	}
	return nil
}

// validateConfig performs comprehensive validation on a merge configuration
func validateConfig(cfg Config) error {
	if !cfg.SkipPolicy.Valid() {
		return ValidationError{
			Message: "config validation failed",
			Details: fmt.Sprintf("unknown skip policy %q", cfg.SkipPolicy),
		}
	}
	if cfg.PrimeConcurrency < 0 {
		return ValidationError{
			Message: "config validation failed",
			Details: "prime_concurrency must be >= 0",
		}
	}
	if cfg.SkipPolicy == core.SkipPolicyRetry {
		r := cfg.Retry
		if r.MaxAttempts < 1 {
			return ValidationError{
				Message: "config validation failed",
				Details: "retry.max_attempts must be >= 1",
			}
		}
		if r.InitialInterval < 0 || r.MaxInterval < 0 {
			return ValidationError{
				Message: "config validation failed",
				Details: "retry intervals must not be negative",
			}
		}
		if r.MaxInterval > 0 && r.InitialInterval > r.MaxInterval {
			return ValidationError{
				Message: "config validation failed",
				Details: fmt.Sprintf("retry.initial_interval %s exceeds retry.max_interval %s", r.InitialInterval, r.MaxInterval),
			}
		}
	}
	return nil
}
