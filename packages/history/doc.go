// Package history keeps a SQLite log of completed executions.
//
// Every execution that reaches the executor's observer is recorded with its
// method, url, result kind, status and duration. Summarize turns a slice of
// entries into latency percentiles using an HdrHistogram.
package history
