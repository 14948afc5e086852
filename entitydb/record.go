// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// StoredRecord is the backend-native projection of an entity: an opaque
// backend identifier, the category tag, the domain fields under storage
// naming, and the backend-managed last-modified timestamp.
type StoredRecord struct {
	ID        string
	Category  string
	Fields    map[string]any
	UpdatedAt time.Time
}

// RawResult identifies the record written by a backend-level upsert.
type RawResult struct {
	ID       string
	Category string
}

// Record is the domain-side view of a stored record returned by Find:
// camelCase field names, native structured values, ISO-8601 timestamps.
type Record struct {
	ID        string
	Category  string
	Fields    map[string]any
	UpdatedAt time.Time
}

// Populate unmarshals a record's fields into a domain model struct.
func (r Record) Populate(target any) error {
	raw, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("populate %s: %w", r.Category, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("populate %s: %w", r.Category, err)
	}
	return nil
}

// EntityFields flattens a domain entity (a model struct with json tags, or
// a raw field map) into its category tag and field map. The category field
// itself and any backend id are stripped from the fields.
func EntityFields(entity any) (string, map[string]any, error) {
	var fields map[string]any
	switch v := entity.(type) {
	case map[string]any:
		fields = make(map[string]any, len(v))
		for name, value := range v {
			fields[name] = value
		}
	default:
		raw, err := json.Marshal(entity)
		if err != nil {
			return "", nil, fmt.Errorf("flatten entity: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return "", nil, fmt.Errorf("flatten entity: %w", err)
		}
	}
	category, _ := fields["category"].(string)
	delete(fields, "category")
	delete(fields, "id")
	if category == "" {
		return "", nil, fmt.Errorf("%w: entity carries no category tag", ErrUnknownCategory)
	}
	return category, fields, nil
}

// FieldChange records one side-by-side value difference from an update.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet maps field names to the differences applied by an update.
// Nil means the upsert created a record or changed nothing.
type ChangeSet map[string]FieldChange

// UpsertResult reports the outcome of a reconciliation.
type UpsertResult struct {
	ID      string
	Created bool
	Changes ChangeSet
}

// jsonEqual compares two values by canonical serialized form, so structured
// values compare by content and numeric types from different backends
// compare by value.
func jsonEqual(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}
