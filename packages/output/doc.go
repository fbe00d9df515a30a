// Package output renders execution results, the request library and the
// execution history for the terminal.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output, one document per call
package output
