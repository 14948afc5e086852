// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package docstore_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/Inmarsat/isatdatapro-microservices/entitydb"
	"github.com/Inmarsat/isatdatapro-microservices/entitydb/docstore"
	"github.com/Inmarsat/isatdatapro-microservices/models"
)

func openAdapter(t *testing.T) (*docstore.Adapter, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection, or every pooled conn sees its own empty memory db.
	db.SetMaxOpenConns(1)
	adapter, err := docstore.New(db, nil)
	require.NoError(t, err)
	require.NoError(t, adapter.Initialize(context.Background()))
	t.Cleanup(func() { adapter.Close(context.Background()) })
	return adapter, db
}

// seedDocument inserts a raw row with a controlled container timestamp,
// bypassing the adapter.
func seedDocument(t *testing.T, db *sql.DB, id, category, doc, updated string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO documents (id, category, doc, db_updated_at) VALUES (?, ?, ?, ?)`,
		id, category, doc, updated)
	require.NoError(t, err)
}

func TestAdapterRequiresInitialize(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	adapter, err := docstore.New(db, nil)
	require.NoError(t, err)

	_, err = adapter.Find(context.Background(), "mobile", nil, nil, nil)
	require.ErrorIs(t, err, entitydb.ErrNotInitialized)
	_, err = adapter.UpsertRaw(context.Background(), entitydb.StoredRecord{Category: "mobile"})
	require.ErrorIs(t, err, entitydb.ErrNotInitialized)
}

func TestUpsertRawAssignsIDAndReplaces(t *testing.T) {
	adapter, _ := openAdapter(t)
	ctx := context.Background()

	created, err := adapter.UpsertRaw(ctx, entitydb.StoredRecord{
		Category: "mobile",
		Fields:   map[string]any{"mobile_id": "A1", "mailbox_id": "M1"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	// Same id replaces the document body.
	_, err = adapter.UpsertRaw(ctx, entitydb.StoredRecord{
		ID:       created.ID,
		Category: "mobile",
		Fields:   map[string]any{"mobile_id": "A1", "mailbox_id": "M2"},
	})
	require.NoError(t, err)

	records, err := adapter.Find(ctx, "mobile", entitydb.Filter{"mobile_id": "A1"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, created.ID, records[0].ID)
	require.Equal(t, "M2", records[0].Fields["mailbox_id"])
	require.NotContains(t, records[0].Fields, "category")
}

func TestFindPredicates(t *testing.T) {
	adapter, _ := openAdapter(t)
	ctx := context.Background()

	for i, completed := range []bool{true, true, false} {
		_, err := adapter.UpsertRaw(ctx, entitydb.StoredRecord{
			Category: "api_call_log",
			Fields: map[string]any{
				"operation":           "getReturnMessages",
				"mailbox_id":          "M1",
				"completed":           completed,
				"next_start_time_utc": fmt.Sprintf("2024-01-0%dT00:00:00Z", i+1),
			},
		})
		require.NoError(t, err)
	}

	records, err := adapter.Find(ctx, "api_call_log",
		entitydb.Filter{"completed": true, "mailbox_id": "M1"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Exclude is a not-equals predicate.
	records, err = adapter.Find(ctx, "api_call_log",
		nil, entitydb.Filter{"completed": true}, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Different category sees nothing.
	records, err = adapter.Find(ctx, "mobile", nil, nil, nil)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFindExcludeKeepsMissingField(t *testing.T) {
	adapter, db := openAdapter(t)
	ctx := context.Background()

	seedDocument(t, db, "doc-1", "api_call_log",
		`{"operation":"getReturnMessages","next_start_time_utc":"2024-01-01T00:00:00Z"}`,
		"2024-06-01T00:00:00.000Z")
	seedDocument(t, db, "doc-2", "api_call_log",
		`{"operation":"getReturnMessages","next_start_time_utc":""}`,
		"2024-06-01T00:00:01.000Z")
	seedDocument(t, db, "doc-3", "api_call_log",
		`{"operation":"getReturnMessages"}`,
		"2024-06-01T00:00:02.000Z")

	records, err := adapter.Find(ctx, "api_call_log",
		nil, entitydb.Filter{"next_start_time_utc": ""}, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.NotEqual(t, "doc-2", rec.ID)
	}
}

func TestFindSortLimitAndAgeBound(t *testing.T) {
	adapter, db := openAdapter(t)
	ctx := context.Background()

	seedDocument(t, db, "old", "message_return",
		`{"message_id":1}`, "2024-01-01T00:00:00.000Z")
	seedDocument(t, db, "mid", "message_return",
		`{"message_id":2}`, "2024-03-01T00:00:00.000Z")
	seedDocument(t, db, "new", "message_return",
		`{"message_id":3}`, "2024-06-01T00:00:00.000Z")

	records, err := adapter.Find(ctx, "message_return", nil, nil, &entitydb.Options{
		Desc:  entitydb.SortByUpdated,
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "new", records[0].ID)
	require.Equal(t, "mid", records[1].ID)
	require.Equal(t, 2024, records[0].UpdatedAt.Year())

	records, err = adapter.Find(ctx, "message_return", nil, nil, &entitydb.Options{
		OlderThan: &entitydb.AgeBound{
			Field:  entitydb.SortByUpdated,
			Cutoff: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Asc: entitydb.SortByUpdated,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "old", records[0].ID)

	// Age bound on a document field instead of the container timestamp.
	seedDocument(t, db, "log", "api_call_log",
		`{"call_time_utc":"2024-01-15T00:00:00Z"}`, "2024-06-01T00:00:00.000Z")
	records, err = adapter.Find(ctx, "api_call_log", nil, nil, &entitydb.Options{
		OlderThan: &entitydb.AgeBound{
			Field:  "call_time_utc",
			Cutoff: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "log", records[0].ID)
}

func TestAgeBoundSparesCutoffSecond(t *testing.T) {
	adapter, db := openAdapter(t)
	ctx := context.Background()

	// Only the record strictly before the cutoff ages out; boundary-equal
	// and sub-second-newer stamps survive.
	seedDocument(t, db, "older", "message_return",
		`{"message_id":1}`, "2024-05-31T23:59:59.999Z")
	seedDocument(t, db, "boundary", "message_return",
		`{"message_id":2}`, "2024-06-01T00:00:00.000Z")
	seedDocument(t, db, "newer", "message_return",
		`{"message_id":3}`, "2024-06-01T00:00:00.500Z")

	records, err := adapter.Find(ctx, "message_return", nil, nil, &entitydb.Options{
		OlderThan: &entitydb.AgeBound{
			Field:  entitydb.SortByUpdated,
			Cutoff: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "older", records[0].ID)
}

func TestDeleteRaw(t *testing.T) {
	adapter, _ := openAdapter(t)
	ctx := context.Background()

	created, err := adapter.UpsertRaw(ctx, entitydb.StoredRecord{
		Category: "mobile",
		Fields:   map[string]any{"mobile_id": "A1"},
	})
	require.NoError(t, err)

	// Category must match.
	removed, err := adapter.DeleteRaw(ctx, created.ID, "mailbox")
	require.NoError(t, err)
	require.False(t, removed)

	removed, err = adapter.DeleteRaw(ctx, created.ID, "mobile")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = adapter.DeleteRaw(ctx, created.ID, "mobile")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestStoreSortsByDomainField(t *testing.T) {
	adapter, _ := openAdapter(t)
	ctx := context.Background()

	registry, err := models.NewRegistry(nil)
	require.NoError(t, err)
	store, err := entitydb.NewStore(adapter, registry, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Initialize(ctx))

	for i, receive := range []string{"2024-01-01T00:00:00Z", "2024-06-01T00:00:00Z"} {
		msg := models.NewMessageReturn(int64(2001+i), "01459438SKYFEE3", 586, []int{128, 1}, receive)
		stamp := receive
		msg.ReceiveTimeUtc = &stamp
		_, err := store.Upsert(ctx, msg, nil)
		require.NoError(t, err)
	}

	records, err := store.Find(ctx, models.CategoryMessageReturn, nil, nil,
		&entitydb.Options{Desc: "receiveTimeUtc"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "2024-06-01T00:00:00Z", records[0].Fields["receiveTimeUtc"])
	require.Equal(t, "2024-01-01T00:00:00Z", records[1].Fields["receiveTimeUtc"])
}

// TestStoreScenario drives the whole persistence layer over the document
// backend: create, diffing update, cursor derivation, retention, delete.
func TestStoreScenario(t *testing.T) {
	adapter, db := openAdapter(t)
	ctx := context.Background()

	registry, err := models.NewRegistry(nil)
	require.NoError(t, err)
	store, err := entitydb.NewStore(adapter, registry, nil, nil)
	require.NoError(t, err)
	require.NoError(t, store.Initialize(ctx))

	mobile := models.NewMobile("01459438SKYFEE3", 586)
	created, err := store.Upsert(ctx, mobile, nil)
	require.NoError(t, err)
	require.True(t, created.Created)

	// Second sighting of the modem with a location fix and a description.
	desc := "pump station 9"
	update := models.NewMobile("01459438SKYFEE3", 586)
	update.Description = &desc
	update.Location = &models.MobileLocation{Latitude: 45.5, Longitude: -75.6, FixStatus: 1}
	result, err := store.Upsert(ctx, update, nil)
	require.NoError(t, err)
	require.False(t, result.Created)
	require.Equal(t, created.ID, result.ID)
	require.Contains(t, result.Changes, "description")
	require.Contains(t, result.Changes, "location")
	require.NotContains(t, result.Changes, "mailboxId")

	// Read it back into the model.
	records, err := store.Find(ctx, models.CategoryMobile,
		entitydb.Filter{"mobileId": "01459438SKYFEE3"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	var got models.Mobile
	require.NoError(t, records[0].Populate(&got))
	require.Equal(t, "586", got.MailboxID)
	require.Equal(t, &desc, got.Description)
	require.InDelta(t, 45.5, got.Location.Latitude, 0.0001)

	// A completed poll leaves a call log the next poll derives its cursor
	// from. Stamped now so the retention sweep below leaves it alone.
	callTime := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	log := models.NewAPICallLog(entitydb.OpGetReturnMessages, "ORBCOMM", 586, callTime)
	log.Completed = true
	log.NextStartID = 98765
	log.NextStartTimeUtc = "2024-06-01T00:10:00Z"
	log.MessageCount = 2
	_, err = store.Upsert(ctx, log, nil)
	require.NoError(t, err)

	cursor, err := store.Highwatermark(ctx, "586", entitydb.OpGetReturnMessages)
	require.NoError(t, err)
	require.Equal(t, int64(98765), cursor.StartID)

	// Ancient messages and call logs age out; the modem does not.
	seedDocument(t, db, "stale-msg", models.CategoryMessageReturn,
		`{"message_id":1,"mailbox_id":"586"}`, "2020-01-01T00:00:00.000Z")
	seedDocument(t, db, "stale-log", "api_call_log",
		`{"operation":"getMobiles","call_time_utc":"2020-01-01T00:00:00Z","completed":1}`,
		"2020-01-01T00:00:00.000Z")
	counts, err := store.RemoveAged(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, counts[models.CategoryMessageReturn])
	require.Equal(t, 1, counts[entitydb.CategoryAPICallLog])

	records, err = store.Find(ctx, models.CategoryMobile, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	removed, err := store.Delete(ctx, update)
	require.NoError(t, err)
	require.True(t, removed)
}
