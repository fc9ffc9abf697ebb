// Package logx configures structured logging for the encounter runtime.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, so simulator runs can be diffed
package logx
