// Package storage keeps a history of simulated encounter attempts.
//
// It records:
//   - One row per attempt (seed, outcome, simulated duration)
//   - Every boss state transition reported during the attempt
package storage
