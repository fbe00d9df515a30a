// Package server exposes the executor and the request library over a local
// JSON control API.
//
// Executions started through the API are owned by the executor's slot, not by
// the HTTP request that started them: only POST /api/cancel, a newer run or
// shutdown cancels an execution.
package server
