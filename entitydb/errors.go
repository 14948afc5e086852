// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import "errors"

// Sentinel errors surfaced by the persistence layer. Wrapped errors carry
// category and key context; match with errors.Is.
var (
	// ErrNotInitialized indicates an operation was invoked before
	// Initialize succeeded. Fatal to the call, never retried internally.
	ErrNotInitialized = errors.New("database context not initialized")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("database context closed")

	// ErrUnknownCategory indicates a category tag with no registered
	// schema. Programmer error, fail fast.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrAmbiguousMatch indicates a uniqueness filter matched more than
	// one record. Signals a prior data-integrity problem upstream; never
	// auto-resolved.
	ErrAmbiguousMatch = errors.New("multiple records match uniqueness filter")
)
