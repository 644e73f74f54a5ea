// Package common provides shared utilities and types used across the application.
package common

import "errors"

// Common application errors.
var (
	// ErrNotFound is returned by storage lookups with no matching row and by
	// confirmation of a field that was never suggested.
	ErrNotFound = errors.New("not found")

	// ErrNoSources is returned when an aggregator is built with no default
	// sources to query.
	ErrNoSources = errors.New("no default sources configured")

	// ErrMissingConfig is returned when required configuration is absent.
	ErrMissingConfig = errors.New("missing configuration")
)
