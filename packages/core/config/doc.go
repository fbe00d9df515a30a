// Package config handles configuration loading and management for hitdesk.
//
// It provides functionality for:
//   - Loading configuration from hitdesk.yaml or hitdesk.config.json files
//   - Default configuration values
//   - Environment variable overrides
package config
