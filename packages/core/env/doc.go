// Package env loads .env files and expands {{$NAME}} references to
// environment variables in saved request fields.
package env
