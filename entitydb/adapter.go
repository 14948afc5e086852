// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import "context"

// Adapter is the narrow contract each storage backend satisfies. Filters
// and records cross this boundary in storage-native naming; the Store runs
// everything through the adapter's Codec on the way in and out.
//
// Adapters implement mechanism only. The conflict policy (uniqueness,
// staleness guard, change sets) lives in the Store.
type Adapter interface {
	// Initialize idempotently ensures the target database and its
	// tables or container exist. A failed Initialize must not leave the
	// adapter flagged ready.
	Initialize(ctx context.Context) error

	// Find returns the ordered records matching the criteria. Zero matches
	// is an empty slice, not an error; malformed input (missing category,
	// invalid options) is an error.
	Find(ctx context.Context, category string, include, exclude Filter, opts *Options) ([]StoredRecord, error)

	// UpsertRaw creates or replaces one record keyed by its backend
	// identifier. An empty ID creates; replacement is atomic at the
	// backend.
	UpsertRaw(ctx context.Context, rec StoredRecord) (RawResult, error)

	// DeleteRaw removes one record. Returns false when nothing matched.
	DeleteRaw(ctx context.Context, id, category string) (bool, error)

	// Close releases the backend connection. No-op for backends without a
	// persistent connection.
	Close(ctx context.Context) error

	// Codec describes the backend's marshalling profile.
	Codec() *Codec
}
