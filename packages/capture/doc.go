// Package capture extracts values from execution results.
//
// Expressions select from:
//   - status: the response status code
//   - kind: the result variant
//   - body: the whole parsed body
//   - body.<path>: a gjson path into the parsed body (e.g. body.items.#.id)
package capture
