// Package http provides the outbound HTTP transport used by the request executor.
//
// It wraps the standard library's http package with:
//   - A pooled transport shared by every execution
//   - Configurable timeouts, proxy and redirect handling
//   - Default headers applied ahead of per-request headers
//   - Ordered request headers (repeated keys are preserved)
//   - Response helpers for status classification and body access
package http
