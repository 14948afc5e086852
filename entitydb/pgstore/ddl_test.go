// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Inmarsat/isatdatapro-microservices/entitydb"
)

func gatewaySpec() entitydb.CategorySpec {
	return entitydb.CategorySpec{
		Category:  "satellite_gateway",
		UniqueKey: "name",
		Columns: []entitydb.ColumnSpec{
			entitydb.TextColumn("name"),
			entitydb.TextColumn("url"),
			{Name: "alive", Type: entitydb.ColBool, NotNull: true},
			{Name: "aliveChangeTimeUtc", Type: entitydb.ColTimestamp},
		},
	}
}

func TestTableDDL(t *testing.T) {
	ddl, err := tableDDL(gatewaySpec())
	require.NoError(t, err)
	require.Equal(t, `CREATE TABLE IF NOT EXISTS satellite_gateway (
	id BIGSERIAL PRIMARY KEY,
	name VARCHAR(50) DEFAULT NULL,
	url VARCHAR(150) DEFAULT NULL,
	alive BOOLEAN NOT NULL,
	alive_change_time_utc TIMESTAMP DEFAULT NULL,
	db_updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, ddl)
}

func TestTableDDLRejectsEmptyLayout(t *testing.T) {
	_, err := tableDDL(entitydb.CategorySpec{Category: "mobile", UniqueKey: "mobileId"})
	require.Error(t, err)
}

func TestColumnDDLTypes(t *testing.T) {
	cases := []struct {
		col  entitydb.ColumnSpec
		want string
	}{
		{entitydb.ColumnSpec{Name: "messageId", Type: entitydb.ColBigInt, NotNull: true}, "message_id BIGINT NOT NULL"},
		{entitydb.ColumnSpec{Name: "size", Type: entitydb.ColInteger}, "size INTEGER DEFAULT NULL"},
		{entitydb.ColumnSpec{Name: "payloadJson", Type: entitydb.ColJSON}, "payload_json JSONB DEFAULT NULL"},
		{entitydb.ColumnSpec{Name: "receiveTimeUtc", Type: entitydb.ColTimestamp}, "receive_time_utc TIMESTAMP DEFAULT NULL"},
		{entitydb.ColumnSpec{Name: "error", Type: entitydb.ColText}, "error VARCHAR(50) DEFAULT NULL"},
		{entitydb.ColumnSpec{Name: "url", Type: entitydb.ColText, Length: 150}, "url VARCHAR(150) DEFAULT NULL"},
	}
	for _, tc := range cases {
		got, err := columnDDL(tc.col)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestTouchTriggerDDL(t *testing.T) {
	stmts := touchTriggerDDL("mobile")
	require.Len(t, stmts, 2)
	require.Equal(t, "DROP TRIGGER IF EXISTS trg_mobile_touch ON mobile", stmts[0])
	require.Contains(t, stmts[1], "CREATE TRIGGER trg_mobile_touch BEFORE UPDATE ON mobile")
	require.Contains(t, stmts[1], "entitydb_touch_updated_at()")
}
