// Package cmd implements the hitdesk CLI commands using Cobra.
//
// Available commands:
//   - serve: Start the local control API
//   - run: Execute a one-off request
//   - send: Execute a saved request by id
//   - list: Display saved collections and requests
//   - collection, request: Edit the request library
//   - history: Show, summarize or clear recorded executions
//   - init: Create a hitdesk.yaml and the data directory
//   - version: Show hitdesk version information
//
// Ctrl+C during run or send cancels the execution through the executor's
// controller and exits with ExitCancelled.
package cmd
