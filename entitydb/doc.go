// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

// Package entitydb implements the category-tagged entity persistence layer
// shared by the satellite message pollers.
//
// Domain entities are plain Go structs (or field maps) tagged with a
// category. The package reconciles incoming entities against the records
// already held by a storage backend: it locates the existing record through
// a uniqueness filter, diffs field by field, rejects updates that are older
// than what is stored, and writes back only when something actually changed.
// Two structurally different backends implement the Adapter interface: a
// schemaless document container (docstore) and per-category relational
// tables (pgstore). The reconciliation logic depends only on the interface.
//
// Concurrency: a Store owns a single backend handle between Initialize and
// Close. Find is safe for concurrent use; the check-then-act sequence inside
// Upsert is not atomic, so concurrent upserts against the same uniqueness
// key can both observe "not found" and create duplicates, surfaced later as
// ErrAmbiguousMatch. Callers must serialize writes per uniqueness key, e.g.
// by having one poller own one mailbox.
package entitydb
