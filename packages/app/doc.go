// Package app wires configuration, logging, the request library, the HTTP
// transport, the single-flight executor and the execution history into one
// value shared by the CLI and the control API.
package app
