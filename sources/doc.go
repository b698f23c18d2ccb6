// Package sources provides ready-made log sources for the merge: in-memory
// slices, channels, newline-delimited JSON readers, and wrappers that add
// simulated latency or inject failures.
package sources
