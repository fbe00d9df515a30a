// Package executor runs outbound HTTP requests one at a time.
//
// An Executor owns a Slot that holds at most one in-flight execution. Starting
// a new execution cancels whatever occupies the slot; a Controller cancels the
// occupant on demand. Every call to Execute yields exactly one Result:
//   - success: 2xx/3xx response with a parsed JSON body
//   - http_error: any other status
//   - transport_error: DNS, connect, timeout, parse and validation failures
//   - cancelled: the execution's handle was cancelled before a result was decided
package executor
