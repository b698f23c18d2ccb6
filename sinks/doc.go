// Package sinks provides consumers for the merged stream: an in-memory
// recorder, a text printer and a WebSocket streamer.
package sinks
