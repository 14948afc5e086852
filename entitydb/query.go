// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"fmt"
	"time"
)

// SortByUpdated is the sort/age key sentinel that maps to the backend's own
// record-modification timestamp rather than a domain field.
const SortByUpdated = "dbTimestamp"

// Filter holds equality criteria, ANDed together. Used both for include
// (field = value) and exclude (field <> value) predicates.
type Filter map[string]any

// AgeBound selects records whose timestamp field is strictly older than
// Cutoff. Field may be SortByUpdated to age on the backend timestamp.
type AgeBound struct {
	Field  string
	Cutoff time.Time
}

// Options shapes a find: result cap, sort key and direction, and an
// optional age bound for retention sweeping.
type Options struct {
	Limit     int
	Desc      string
	Asc       string
	OlderThan *AgeBound
}

// Validate rejects option combinations no backend can render.
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}
	if o.Limit < 0 {
		return fmt.Errorf("negative limit %d", o.Limit)
	}
	if o.Desc != "" && o.Asc != "" {
		return fmt.Errorf("sort key must be desc or asc, not both")
	}
	if o.OlderThan != nil {
		if o.OlderThan.Field == "" {
			return fmt.Errorf("age bound missing field")
		}
		if o.OlderThan.Cutoff.IsZero() {
			return fmt.Errorf("age bound missing cutoff")
		}
	}
	return nil
}

// structured reports whether a filter value is a nested object or array.
// Backends match on scalar predicates only; callers drop structured values
// from filters before querying.
func structured(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}
