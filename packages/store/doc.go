// Package store persists the request library: a single JSON document of
// collections and saved requests.
//
// Writes go through a temp file that is synced and renamed over the target, so
// a reader never observes a partially written document. Documents are checked
// against a JSON schema on load.
package store
