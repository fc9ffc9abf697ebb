// Package schedule holds the deterministic, tick-driven primitives that
// encounter scripts are built from.
//
// Scheduler runs closures after a delay, optionally repeating them, and
// supports groups, ids, a validator gate, cancellation and delay shifting.
// EventMap is the lighter sibling: it only stores integer ids and hands them
// back one at a time once due, filtered by the current phase.
//
// Neither type is safe for concurrent use. Every encounter owns its own
// instances and advances them from a single goroutine.
package schedule
