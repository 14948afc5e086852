// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

// Package docstore implements the document-store adapter: every entity
// lives as one JSON document in a single schemaless container backed by
// SQLite. Filter predicates run through the JSON1 extension, and a trigger
// maintains the backend last-modified timestamp.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Inmarsat/isatdatapro-microservices/entitydb"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	doc TEXT NOT NULL,
	db_updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE TRIGGER IF NOT EXISTS trg_documents_touch
AFTER UPDATE ON documents
FOR EACH ROW
BEGIN
	UPDATE documents SET db_updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
	WHERE id = NEW.id;
END;
`

// Adapter is the document-store implementation of entitydb.Adapter.
type Adapter struct {
	db     *sql.DB
	codec  *entitydb.Codec
	logger *slog.Logger

	mu          sync.RWMutex
	initialized bool
}

// New wraps an open SQLite handle. The caller keeps ownership of db only
// until Close is called on the adapter.
func New(db *sql.DB, logger *slog.Logger) (*Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		db: db,
		// Documents hold structured values and timezone-qualified
		// timestamps natively.
		codec:  entitydb.NewCodec(false, false),
		logger: logger,
	}, nil
}

// Open opens (or creates) the SQLite file at dsn and wraps it.
func Open(dsn string, logger *slog.Logger) (*Adapter, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open document store %s: %w", dsn, err)
	}
	return New(db, logger)
}

// Codec returns the document marshalling profile.
func (a *Adapter) Codec() *entitydb.Codec { return a.codec }

// Initialize creates the documents container if it does not exist.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("document store ping: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create documents container: %w", err)
	}
	a.initialized = true
	a.logger.Debug("document container ready")
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

// Find queries the container with JSON1 predicates over the document body.
func (a *Adapter) Find(ctx context.Context, category string, include, exclude entitydb.Filter, opts *entitydb.Options) ([]entitydb.StoredRecord, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if category == "" {
		return nil, fmt.Errorf("%w: empty category tag", entitydb.ErrUnknownCategory)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}

	var b strings.Builder
	b.WriteString(`SELECT id, category, doc, db_updated_at FROM documents WHERE category = ?`)
	args := []any{category}
	for _, field := range sortedFilterKeys(include) {
		fmt.Fprintf(&b, ` AND %s = ?`, docExpr(field))
		args = append(args, filterArg(include[field]))
	}
	for _, field := range sortedFilterKeys(exclude) {
		// IS NOT treats a missing field as NULL, so documents without
		// the field still pass the exclude.
		fmt.Fprintf(&b, ` AND %s IS NOT ?`, docExpr(field))
		args = append(args, filterArg(exclude[field]))
	}
	if opts != nil && opts.OlderThan != nil {
		expr := docExpr(opts.OlderThan.Field)
		layout := isoSecond
		if expr == "db_updated_at" {
			// The container column carries millisecond resolution; the
			// cutoff must match it or boundary-equal records compare as
			// older ('.' sorts before 'Z').
			layout = timeLayout
		}
		fmt.Fprintf(&b, ` AND %s < ?`, expr)
		args = append(args, opts.OlderThan.Cutoff.UTC().Format(layout))
	}
	if opts != nil {
		switch {
		case opts.Desc != "":
			fmt.Fprintf(&b, ` ORDER BY %s DESC`, docExpr(opts.Desc))
		case opts.Asc != "":
			fmt.Fprintf(&b, ` ORDER BY %s ASC`, docExpr(opts.Asc))
		}
		if opts.Limit > 0 {
			fmt.Fprintf(&b, ` LIMIT %d`, opts.Limit)
		}
	}

	rows, err := a.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	defer rows.Close()

	var out []entitydb.StoredRecord
	for rows.Next() {
		var id, cat, doc, updated string
		if err := rows.Scan(&id, &cat, &doc, &updated); err != nil {
			return nil, fmt.Errorf("find %s: %w", category, err)
		}
		rec, err := recordFromDoc(id, cat, doc, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", category, err)
	}
	return out, nil
}

// UpsertRaw writes one document, assigning an id when creating.
func (a *Adapter) UpsertRaw(ctx context.Context, rec entitydb.StoredRecord) (entitydb.RawResult, error) {
	if err := a.ready(); err != nil {
		return entitydb.RawResult{}, err
	}
	if rec.Category == "" {
		return entitydb.RawResult{}, fmt.Errorf("%w: record carries no category tag", entitydb.ErrUnknownCategory)
	}
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	body := make(map[string]any, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		body[k] = v
	}
	body["category"] = rec.Category
	doc, err := json.Marshal(body)
	if err != nil {
		return entitydb.RawResult{}, fmt.Errorf("upsert %s: %w", rec.Category, err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO documents (id, category, doc) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`,
		id, rec.Category, string(doc))
	if err != nil {
		return entitydb.RawResult{}, fmt.Errorf("upsert %s %s: %w", rec.Category, id, err)
	}
	return entitydb.RawResult{ID: id, Category: rec.Category}, nil
}

// DeleteRaw removes one document by id and category.
func (a *Adapter) DeleteRaw(ctx context.Context, id, category string) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	res, err := a.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = ? AND category = ?`, id, category)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", category, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", category, id, err)
	}
	return n > 0, nil
}

// Close releases the SQLite handle.
func (a *Adapter) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initialized = false
	return a.db.Close()
}

// isoSecond matches the second-resolution ISO strings stored inside
// documents; lexicographic comparison equals chronological comparison.
const isoSecond = "2006-01-02T15:04:05Z"

// docExpr renders the SQL expression addressing one storage field. The
// record-timestamp sentinel maps to the container's own column.
func docExpr(field string) string {
	if field == entitydb.SortByUpdated || field == "db_updated_at" {
		return "db_updated_at"
	}
	return fmt.Sprintf("json_extract(doc, '$.%s')", field)
}

// filterArg adapts a filter value to what json_extract yields: booleans
// surface as 0/1 integers.
func filterArg(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

func recordFromDoc(id, category, doc, updated string) (entitydb.StoredRecord, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return entitydb.StoredRecord{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	delete(fields, "category")
	updatedAt, err := time.Parse(timeLayout, updated)
	if err != nil {
		// Tolerate second-resolution stamps from hand-seeded rows.
		updatedAt, err = time.Parse(isoSecond, updated)
		if err != nil {
			return entitydb.StoredRecord{}, fmt.Errorf("decode document %s timestamp %q: %w", id, updated, err)
		}
	}
	return entitydb.StoredRecord{
		ID:        id,
		Category:  category,
		Fields:    fields,
		UpdatedAt: updatedAt,
	}, nil
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
