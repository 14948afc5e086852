// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DefaultLookback bounds the first poll of a mailbox to recent history when
// no prior successful call log exists.
const DefaultLookback = 48 * time.Hour

// StoreConfig holds tuning for a Store. The zero value is usable.
type StoreConfig struct {
	// Lookback is the high-water-mark fallback window. Zero means
	// DefaultLookback.
	Lookback time.Duration
}

// Store is the persistence layer handed to pollers and maintenance jobs.
// It owns one Adapter and applies the conflict policy on top of it.
type Store struct {
	adapter  Adapter
	registry *Registry
	config   StoreConfig
	logger   *slog.Logger

	now func() time.Time

	mu          sync.RWMutex
	initialized bool
	closed      bool
}

// NewStore creates a store over an adapter and a category registry.
// A nil config takes defaults; a nil logger uses slog.Default.
func NewStore(adapter Adapter, registry *Registry, config *StoreConfig, logger *slog.Logger) (*Store, error) {
	if adapter == nil {
		return nil, fmt.Errorf("adapter cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := StoreConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = DefaultLookback
	}
	return &Store{
		adapter:  adapter,
		registry: registry,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Initialize brackets a batch of work: it brings up the backend once and
// marks the store ready. Safe to call again after a failure.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.initialized {
		return nil
	}
	if err := s.adapter.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	s.initialized = true
	s.logger.Info("entity store initialized", "categories", len(s.registry.Categories()))
	return nil
}

// Close releases the backend connection. The store cannot be reused.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.initialized = false
	return s.adapter.Close(ctx)
}

func (s *Store) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Find returns the records of a category matching the criteria, converted
// to domain naming and values.
func (s *Store) Find(ctx context.Context, category string, include, exclude Filter, opts *Options) ([]Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.registry.Spec(category); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	stored, err := s.findStored(ctx, category, include, exclude, opts)
	if err != nil {
		return nil, err
	}
	codec := s.adapter.Codec()
	out := make([]Record, 0, len(stored))
	for _, rec := range stored {
		fields, err := codec.DecodeFields(rec.Fields)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", category, err)
		}
		out = append(out, Record{
			ID:        rec.ID,
			Category:  rec.Category,
			Fields:    fields,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return out, nil
}

// findStored runs a find with filters, sort keys, and the age-bound field
// converted to storage naming. Nested values cannot serve as filter
// criteria and are dropped with a warning.
func (s *Store) findStored(ctx context.Context, category string, include, exclude Filter, opts *Options) ([]StoredRecord, error) {
	codec := s.adapter.Codec()
	storageInclude, err := codec.EncodeFilter(s.scalarFilter(category, include))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	storageExclude, err := codec.EncodeFilter(s.scalarFilter(category, exclude))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	if opts != nil {
		converted := *opts
		if converted.OlderThan != nil && converted.OlderThan.Field != SortByUpdated {
			bound := *converted.OlderThan
			bound.Field = ToStorageName(bound.Field)
			converted.OlderThan = &bound
		}
		if converted.Desc != "" && converted.Desc != SortByUpdated {
			converted.Desc = ToStorageName(converted.Desc)
		}
		if converted.Asc != "" && converted.Asc != SortByUpdated {
			converted.Asc = ToStorageName(converted.Asc)
		}
		opts = &converted
	}
	stored, err := s.adapter.Find(ctx, category, storageInclude, storageExclude, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	return stored, nil
}

func (s *Store) scalarFilter(category string, filter Filter) Filter {
	if filter == nil {
		return nil
	}
	out := make(Filter, len(filter))
	for name, value := range filter {
		if structured(value) {
			s.logger.Warn("removing structured value from filter",
				"category", category, "field", name)
			continue
		}
		out[name] = value
	}
	return out
}

// Upsert reconciles an incoming entity against the record identified by the
// uniqueness filter. With no existing record the entity is created; with
// exactly one the fields are diffed and the record replaced only when
// something changed. Null incoming values never overwrite stored values, and
// an update older than the stored staleness-guard timestamp is discarded
// whole. More than one match fails with ErrAmbiguousMatch.
func (s *Store) Upsert(ctx context.Context, entity any, filterOn Filter) (UpsertResult, error) {
	if err := s.ready(); err != nil {
		return UpsertResult{}, err
	}
	category, fields, err := EntityFields(entity)
	if err != nil {
		return UpsertResult{}, err
	}
	spec, err := s.registry.Spec(category)
	if err != nil {
		return UpsertResult{}, err
	}
	filter := filterOn
	if filter == nil {
		key, ok := fields[spec.UniqueKey]
		if !ok || key == nil {
			return UpsertResult{}, fmt.Errorf("upsert %s: entity carries no %s value", category, spec.UniqueKey)
		}
		filter = Filter{spec.UniqueKey: key}
	}
	matches, err := s.findStored(ctx, category, filter, nil, nil)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", category, err)
	}
	switch {
	case len(matches) > 1:
		return UpsertResult{}, fmt.Errorf("upsert %s with %v: %w", category, filter, ErrAmbiguousMatch)
	case len(matches) == 0:
		return s.create(ctx, category, fields)
	}
	return s.reconcile(ctx, spec, matches[0], fields)
}

func (s *Store) create(ctx context.Context, category string, fields map[string]any) (UpsertResult, error) {
	codec := s.adapter.Codec()
	storageFields, err := codec.EncodeFields(fields)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", category, err)
	}
	result, err := s.adapter.UpsertRaw(ctx, StoredRecord{Category: category, Fields: storageFields})
	if err != nil {
		s.logger.Error("create failed", "category", category, "error", err)
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", category, err)
	}
	s.logger.Debug("record created", "category", category, "id", result.ID)
	return UpsertResult{ID: result.ID, Created: true}, nil
}

func (s *Store) reconcile(ctx context.Context, spec CategorySpec, existing StoredRecord, fields map[string]any) (UpsertResult, error) {
	codec := s.adapter.Codec()
	current, err := codec.DecodeFields(existing.Fields)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", spec.Category, err)
	}

	if spec.NewestField != "" {
		if stale, err := s.staleUpdate(spec, current, fields); err != nil {
			return UpsertResult{}, err
		} else if stale {
			s.logger.Warn("discarding stale update",
				"category", spec.Category, "id", existing.ID, "newest", spec.NewestField)
			return UpsertResult{ID: existing.ID}, nil
		}
	}

	changes := ChangeSet{}
	for _, name := range sortedKeys(fields) {
		incoming := fields[name]
		if incoming == nil {
			continue
		}
		stored, ok := current[name]
		if !ok {
			continue
		}
		if jsonEqual(stored, incoming) {
			continue
		}
		changes[name] = FieldChange{Old: stored, New: incoming}
		current[name] = incoming
		s.logger.Debug("field updated",
			"category", spec.Category, "id", existing.ID, "field", name)
	}
	if len(changes) == 0 {
		return UpsertResult{ID: existing.ID}, nil
	}

	storageFields, err := codec.EncodeFields(current)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("upsert %s: %w", spec.Category, err)
	}
	if _, err := s.adapter.UpsertRaw(ctx, StoredRecord{
		ID:       existing.ID,
		Category: spec.Category,
		Fields:   storageFields,
	}); err != nil {
		s.logger.Error("update failed",
			"category", spec.Category, "id", existing.ID, "error", err)
		return UpsertResult{}, fmt.Errorf("upsert %s %s: %w", spec.Category, existing.ID, err)
	}
	return UpsertResult{ID: existing.ID, Changes: changes}, nil
}

// staleUpdate applies the staleness guard: the whole update is rejected
// when the stored guard timestamp is strictly later than the incoming one.
func (s *Store) staleUpdate(spec CategorySpec, current, fields map[string]any) (bool, error) {
	incoming, ok := fields[spec.NewestField].(string)
	if !ok || incoming == "" {
		return false, nil
	}
	stored, ok := current[spec.NewestField].(string)
	if !ok || stored == "" {
		return false, nil
	}
	incomingTime, err := time.Parse(time.RFC3339, incoming)
	if err != nil {
		return false, fmt.Errorf("upsert %s: bad %s %q: %w", spec.Category, spec.NewestField, incoming, err)
	}
	storedTime, err := time.Parse(time.RFC3339, stored)
	if err != nil {
		return false, fmt.Errorf("upsert %s: bad stored %s %q: %w", spec.Category, spec.NewestField, stored, err)
	}
	return storedTime.After(incomingTime), nil
}

// Delete removes the record identified by an entity's uniqueness filter.
// Returns false when no record matched.
func (s *Store) Delete(ctx context.Context, entity any) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	category, fields, err := EntityFields(entity)
	if err != nil {
		return false, err
	}
	spec, err := s.registry.Spec(category)
	if err != nil {
		return false, err
	}
	key, ok := fields[spec.UniqueKey]
	if !ok || key == nil {
		return false, fmt.Errorf("delete %s: entity carries no %s value", category, spec.UniqueKey)
	}
	matches, err := s.findStored(ctx, category, Filter{spec.UniqueKey: key}, nil, nil)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", category, err)
	}
	switch {
	case len(matches) == 0:
		return false, nil
	case len(matches) > 1:
		return false, fmt.Errorf("delete %s %s=%v: %w", category, spec.UniqueKey, key, ErrAmbiguousMatch)
	}
	removed, err := s.adapter.DeleteRaw(ctx, matches[0].ID, category)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", category, matches[0].ID, err)
	}
	return removed, nil
}

// DeleteByID removes one record by its backend identifier.
func (s *Store) DeleteByID(ctx context.Context, id, category string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if _, err := s.registry.Spec(category); err != nil {
		return false, err
	}
	removed, err := s.adapter.DeleteRaw(ctx, id, category)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", category, id, err)
	}
	return removed, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
