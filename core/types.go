package core

// Mode selects how the merge primes and refills its sources
type Mode string

const (
	ModeSync       Mode = "sync"
	ModeConcurrent Mode = "concurrent"
)

// SkipReason classifies why a fetch contributed nothing to the frontier
type SkipReason string

const (
	SkipReasonFuture     SkipReason = "future_dated"
	SkipReasonMalformed  SkipReason = "malformed"
	SkipReasonFetchError SkipReason = "fetch_error"
)

// SourceState is the lifecycle of a registered source within one merge
type SourceState string

const (
	// SourceActive has an item in the frontier or a fetch in flight
	SourceActive SourceState = "active"

	// SourceExhausted signaled end of stream
	SourceExhausted SourceState = "exhausted"

	// SourceStalled produced nothing usable on its last turn and will not be
	// asked again. It is not exhausted.
	SourceStalled SourceState = "stalled"
)
