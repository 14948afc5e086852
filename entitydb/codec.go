// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Timestamp layouts used across the layer. Domain objects always carry
// ISO-8601 UTC strings; backends without timezone-qualified temporal columns
// store the naive form.
const (
	isoLayout   = "2006-01-02T15:04:05Z"
	naiveLayout = "2006-01-02 15:04:05"
)

// Codec converts between the domain naming/value convention (camelCase
// identifiers, native structured values, ISO-8601 UTC timestamps) and a
// backend-native representation. Each Adapter exposes the Codec matching its
// storage model.
type Codec struct {
	// NaiveDatetime rewrites time fields to "YYYY-MM-DD HH:MM:SS" for
	// backends whose temporal columns cannot hold timezone qualifiers.
	NaiveDatetime bool

	// StringifyStructured serializes maps and slices to JSON text for
	// backends without a native structured column type.
	StringifyStructured bool

	// StringKeys names identifier fields that must normalize to string on
	// the domain side even when the backend hands back a number.
	StringKeys map[string]bool
}

// NewCodec returns a Codec with the default identifier normalization set.
func NewCodec(naiveDatetime, stringifyStructured bool) *Codec {
	return &Codec{
		NaiveDatetime:       naiveDatetime,
		StringifyStructured: stringifyStructured,
		StringKeys:          map[string]bool{"mailboxId": true},
	}
}

// ToStorageName transliterates a camelCase domain identifier to snake_case.
func ToStorageName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FromStorageName transliterates a snake_case storage identifier back to
// camelCase. Inverse of ToStorageName for legal identifiers.
func FromStorageName(name string) string {
	var b strings.Builder
	up := false
	for _, r := range name {
		if r == '_' {
			up = true
			continue
		}
		if up {
			b.WriteRune(unicode.ToUpper(r))
			up = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isTimeField reports whether a domain field carries an ISO-8601 UTC
// timestamp, by the naming convention shared with the gateway API.
func isTimeField(name string) bool {
	return strings.Contains(name, "TimeUtc")
}

// ToStorage converts one domain field to its storage representation.
func (c *Codec) ToStorage(name string, value any) (string, any, error) {
	storageName := ToStorageName(name)
	if value == nil {
		return storageName, nil, nil
	}
	switch v := value.(type) {
	case map[string]any, []any:
		if c.StringifyStructured {
			raw, err := json.Marshal(v)
			if err != nil {
				return "", nil, fmt.Errorf("marshal %s: %w", name, err)
			}
			return storageName, string(raw), nil
		}
		return storageName, v, nil
	case string:
		if c.NaiveDatetime && isTimeField(name) {
			return storageName, isoToNaive(v), nil
		}
		return storageName, v, nil
	case time.Time:
		if c.NaiveDatetime {
			return storageName, v.UTC().Format(naiveLayout), nil
		}
		return storageName, v.UTC().Format(isoLayout), nil
	default:
		return storageName, v, nil
	}
}

// FromStorage converts one storage field back to its domain representation.
// Text that fails to parse as structured data is kept verbatim; any failure
// unrelated to JSON structure propagates.
func (c *Codec) FromStorage(storageName string, value any) (string, any, error) {
	name := FromStorageName(storageName)
	if value == nil {
		return name, nil, nil
	}
	if t, ok := value.(time.Time); ok {
		return name, t.UTC().Format(isoLayout), nil
	}
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	s, ok := value.(string)
	if !ok {
		if c.StringKeys[name] {
			return name, stringify(value), nil
		}
		return name, value, nil
	}
	if c.NaiveDatetime && isTimeField(name) {
		return name, naiveToISO(s), nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			// Not structured data; the raw text stands.
			return name, s, nil
		}
		return "", nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if c.StringKeys[name] {
		return name, stringify(parsed), nil
	}
	return name, parsed, nil
}

// EncodeFields converts a full domain field map to storage form.
func (c *Codec) EncodeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		storageName, storageValue, err := c.ToStorage(name, value)
		if err != nil {
			return nil, err
		}
		out[storageName] = storageValue
	}
	return out, nil
}

// DecodeFields converts a full storage field map back to domain form.
func (c *Codec) DecodeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for storageName, storageValue := range fields {
		name, value, err := c.FromStorage(storageName, storageValue)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// EncodeFilter converts filter criteria to storage naming/values so backends
// operate entirely in their own representation.
func (c *Codec) EncodeFilter(filter Filter) (Filter, error) {
	if filter == nil {
		return nil, nil
	}
	out := make(Filter, len(filter))
	for name, value := range filter {
		storageName, storageValue, err := c.ToStorage(name, value)
		if err != nil {
			return nil, err
		}
		out[storageName] = storageValue
	}
	return out, nil
}

func isoToNaive(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSuffix(strings.Replace(s, "T", " ", 1), "Z")
}

func naiveToISO(s string) string {
	if s == "" {
		return s
	}
	return strings.Replace(s, " ", "T", 1) + "Z"
}

func stringify(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprintf("%v", n)
	}
}
