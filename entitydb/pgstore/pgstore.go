// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

// Package pgstore implements the relational adapter: one PostgreSQL table
// per category, created from the statically declared schema registry.
// Structured values are stored as JSON text and timestamps as naive
// datetimes, both restored by the codec on the way out.
package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Inmarsat/isatdatapro-microservices/entitydb"
)

const naiveLayout = "2006-01-02 15:04:05"

// DB is the slice of pgxpool.Pool the adapter uses. pgxmock satisfies it
// for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Adapter is the relational implementation of entitydb.Adapter.
type Adapter struct {
	db       DB
	registry *entitydb.Registry
	codec    *entitydb.Codec
	logger   *slog.Logger

	mu          sync.RWMutex
	initialized bool
}

// New wraps a Postgres pool and the category registry whose tables the
// adapter manages.
func New(db DB, registry *entitydb.Registry, logger *slog.Logger) (*Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		db: db,
		// Relational columns hold no structured values and no timezone
		// qualifiers.
		codec:    entitydb.NewCodec(true, true),
		registry: registry,
		logger:   logger,
	}, nil
}

// Codec returns the relational marshalling profile.
func (a *Adapter) Codec() *entitydb.Codec { return a.codec }

// Initialize creates the category tables and their touch triggers on first
// run. Idempotent; a failure leaves the adapter not ready.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}
	if err := a.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := a.db.Exec(ctx, touchFunctionDDL); err != nil {
		return fmt.Errorf("create touch function: %w", err)
	}
	for _, category := range a.registry.Categories() {
		spec, err := a.registry.Spec(category)
		if err != nil {
			return err
		}
		ddl, err := tableDDL(spec)
		if err != nil {
			return err
		}
		if _, err := a.db.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", category, err)
		}
		for _, stmt := range touchTriggerDDL(category) {
			if _, err := a.db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create trigger for %s: %w", category, err)
			}
		}
		a.logger.Debug("table ready", "category", category)
	}
	a.initialized = true
	return nil
}

func (a *Adapter) ready() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return entitydb.ErrNotInitialized
	}
	return nil
}

// Find renders the criteria as a SELECT over the category table.
func (a *Adapter) Find(ctx context.Context, category string, include, exclude entitydb.Filter, opts *entitydb.Options) ([]entitydb.StoredRecord, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	spec, err := a.registry.Spec(category)
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `SELECT * FROM %s`, category)
	var args []any
	var conds []string
	for _, field := range sortedFilterKeys(include) {
		col, err := a.column(spec, field)
		if err != nil {
			return nil, err
		}
		args = append(args, include[field])
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	for _, field := range sortedFilterKeys(exclude) {
		col, err := a.column(spec, field)
		if err != nil {
			return nil, err
		}
		args = append(args, exclude[field])
		conds = append(conds, fmt.Sprintf("%s <> $%d", col, len(args)))
	}
	if opts != nil && opts.OlderThan != nil {
		col, err := a.column(spec, opts.OlderThan.Field)
		if err != nil {
			return nil, err
		}
		if col == "db_updated_at" {
			args = append(args, opts.OlderThan.Cutoff.UTC())
		} else {
			args = append(args, opts.OlderThan.Cutoff.UTC().Format(naiveLayout))
		}
		conds = append(conds, fmt.Sprintf("%s < $%d", col, len(args)))
	}
	if len(conds) > 0 {
		fmt.Fprintf(&b, ` WHERE %s`, strings.Join(conds, " AND "))
	}
	if opts != nil {
		switch {
		case opts.Desc != "":
			col, err := a.column(spec, opts.Desc)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&b, ` ORDER BY %s DESC`, col)
		case opts.Asc != "":
			col, err := a.column(spec, opts.Asc)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(&b, ` ORDER BY %s ASC`, col)
		}
		if opts.Limit > 0 {
			fmt.Fprintf(&b, ` LIMIT %d`, opts.Limit)
		}
	}

	rows, err := a.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	defer rows.Close()

	var out []entitydb.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows, category)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", category, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	return out, nil
}

// UpsertRaw inserts a new row or replaces an existing one in place. Every
// declared column is written; the touch trigger maintains db_updated_at.
func (a *Adapter) UpsertRaw(ctx context.Context, rec entitydb.StoredRecord) (entitydb.RawResult, error) {
	if err := a.ready(); err != nil {
		return entitydb.RawResult{}, err
	}
	spec, err := a.registry.Spec(rec.Category)
	if err != nil {
		return entitydb.RawResult{}, err
	}
	cols := make([]string, 0, len(spec.Columns))
	args := make([]any, 0, len(spec.Columns)+1)
	for _, col := range spec.Columns {
		name := entitydb.ToStorageName(col.Name)
		cols = append(cols, name)
		args = append(args, rec.Fields[name])
	}

	if rec.ID == "" {
		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		sql := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
			rec.Category, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		var id int64
		if err := a.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
			return entitydb.RawResult{}, fmt.Errorf("insert %s: %w", rec.Category, err)
		}
		return entitydb.RawResult{ID: strconv.FormatInt(id, 10), Category: rec.Category}, nil
	}

	id, err := strconv.ParseInt(rec.ID, 10, 64)
	if err != nil {
		return entitydb.RawResult{}, fmt.Errorf("update %s: bad id %q: %w", rec.Category, rec.ID, err)
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`,
		rec.Category, strings.Join(sets, ", "), len(args))
	tag, err := a.db.Exec(ctx, sql, args...)
	if err != nil {
		return entitydb.RawResult{}, fmt.Errorf("update %s %s: %w", rec.Category, rec.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return entitydb.RawResult{}, fmt.Errorf("update %s %s: no such record", rec.Category, rec.ID)
	}
	return entitydb.RawResult{ID: rec.ID, Category: rec.Category}, nil
}

// DeleteRaw removes one row by id.
func (a *Adapter) DeleteRaw(ctx context.Context, id, category string) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	if _, err := a.registry.Spec(category); err != nil {
		return false, err
	}
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false, fmt.Errorf("delete %s: bad id %q: %w", category, id, err)
	}
	tag, err := a.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, category), rowID)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", category, id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Close releases the pool.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = false
	a.db.Close()
	return nil
}

// column resolves a storage field name to a table column, admitting only
// declared columns and the record-timestamp sentinel.
func (a *Adapter) column(spec entitydb.CategorySpec, field string) (string, error) {
	if field == entitydb.SortByUpdated || field == "db_updated_at" {
		return "db_updated_at", nil
	}
	for _, col := range spec.Columns {
		if entitydb.ToStorageName(col.Name) == field {
			return field, nil
		}
	}
	return "", fmt.Errorf("category %s has no column for %s", spec.Category, field)
}

// scanRecord maps one result row to a StoredRecord, folding the synthetic
// id and the backend timestamp out of the field map.
func scanRecord(rows pgx.Rows, category string) (entitydb.StoredRecord, error) {
	values, err := rows.Values()
	if err != nil {
		return entitydb.StoredRecord{}, err
	}
	rec := entitydb.StoredRecord{Category: category, Fields: make(map[string]any)}
	for i, fd := range rows.FieldDescriptions() {
		switch fd.Name {
		case "id":
			switch id := values[i].(type) {
			case int64:
				rec.ID = strconv.FormatInt(id, 10)
			case int32:
				rec.ID = strconv.FormatInt(int64(id), 10)
			default:
				rec.ID = fmt.Sprintf("%v", id)
			}
		case "db_updated_at":
			if t, ok := values[i].(time.Time); ok {
				rec.UpdatedAt = t
			}
		default:
			rec.Fields[fd.Name] = values[i]
		}
	}
	return rec, nil
}

func sortedFilterKeys(f entitydb.Filter) []string {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
