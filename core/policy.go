package core

import "time"

// SkipPolicy defines what a source's turn does after a skipped entry or a
// failed fetch
type SkipPolicy string

const (
	// SkipPolicyDrop ends the turn. The source is never re-queued and stays
	// stalled for the rest of the merge (default)
	SkipPolicyDrop SkipPolicy = "drop"

	// SkipPolicyRetry fetches again within the same turn, bounded by RetryConfig
	SkipPolicyRetry SkipPolicy = "retry"
)

// Valid reports whether p is a known policy
func (p SkipPolicy) Valid() bool {
	return p == SkipPolicyDrop || p == SkipPolicyRetry
}

// RetryConfig bounds SkipPolicyRetry
type RetryConfig struct {
	// MaxAttempts is the total number of fetches allowed in one turn, the first included
	MaxAttempts int `yaml:"max_attempts"`

	// InitialInterval is the first backoff wait. Zero retries immediately.
	InitialInterval time.Duration `yaml:"initial_interval"`

	// MaxInterval caps the exponential backoff
	MaxInterval time.Duration `yaml:"max_interval"`
}

// DefaultRetryConfig returns the retry bounds used when none are configured
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
	}
}
