// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ColumnType enumerates the storage types a relational backend can map a
// domain field to. Document backends ignore column declarations.
type ColumnType int

const (
	ColText ColumnType = iota
	ColBool
	ColInteger
	ColBigInt
	ColJSON
	ColTimestamp
)

// Text column length limits. URL-bearing fields get the long limit.
const (
	textLen    = 50
	textLenURL = 150
)

// ColumnSpec declares how one domain field is stored by a relational
// backend. Name is the domain (camelCase) field name.
type ColumnSpec struct {
	Name    string
	Type    ColumnType
	Length  int // text columns only; 0 picks the heuristic default
	NotNull bool
}

// TextColumn declares a text column sized by the field-name heuristic.
func TextColumn(name string) ColumnSpec {
	length := textLen
	if strings.Contains(strings.ToLower(name), "url") {
		length = textLenURL
	}
	return ColumnSpec{Name: name, Type: ColText, Length: length}
}

// CategorySpec is the statically declared schema for one entity category:
// its uniqueness key, optional staleness-guard field, retention horizon, and
// the relational column layout. Declared once per category and versioned
// with the code rather than inferred from live instances.
type CategorySpec struct {
	// Category is the logical type tag, immutable for the life of a record.
	Category string

	// UniqueKey names the field whose value must be unique within the
	// category.
	UniqueKey string

	// NewestField optionally names a monotonic timestamp field used as the
	// staleness guard. Empty means no ordering requirement.
	NewestField string

	// TTL is the retention horizon; zero means retained indefinitely.
	TTL time.Duration

	// AgedKey names the timestamp field evaluated against TTL. Empty falls
	// back to the backend's own record-modification timestamp.
	AgedKey string

	// Columns is the relational layout, excluding the synthetic id and the
	// backend-managed last-modified timestamp every table carries.
	Columns []ColumnSpec
}

// Column returns the declared column for a domain field name.
func (s CategorySpec) Column(name string) (ColumnSpec, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return ColumnSpec{}, false
}

// Registry holds the category schemas known to a Store. Categories are
// registered up front; asking for an unregistered one fails fast.
type Registry struct {
	specs map[string]CategorySpec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]CategorySpec)}
}

// Register adds a category schema. Re-registering a category replaces the
// previous spec.
func (r *Registry) Register(spec CategorySpec) error {
	if spec.Category == "" {
		return fmt.Errorf("category spec missing category tag")
	}
	if spec.UniqueKey == "" {
		return fmt.Errorf("category %s missing unique key", spec.Category)
	}
	if spec.TTL < 0 {
		return fmt.Errorf("category %s has negative ttl", spec.Category)
	}
	r.specs[spec.Category] = spec
	return nil
}

// Spec returns the schema for a category.
func (r *Registry) Spec(category string) (CategorySpec, error) {
	if category == "" {
		return CategorySpec{}, fmt.Errorf("%w: empty category tag", ErrUnknownCategory)
	}
	spec, ok := r.specs[category]
	if !ok {
		return CategorySpec{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return spec, nil
}

// Categories returns the registered category tags in sorted order.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.specs))
	for category := range r.specs {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Aged returns the specs of categories subject to retention sweeping, in
// category order.
func (r *Registry) Aged() []CategorySpec {
	var out []CategorySpec
	for _, category := range r.Categories() {
		if spec := r.specs[category]; spec.TTL > 0 {
			out = append(out, spec)
		}
	}
	return out
}
