// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package pgstore

import (
	"fmt"
	"strings"

	"github.com/Inmarsat/isatdatapro-microservices/entitydb"
)

// touchFunctionDDL installs the shared trigger function maintaining the
// backend last-modified column on every category table.
const touchFunctionDDL = `
CREATE OR REPLACE FUNCTION entitydb_touch_updated_at() RETURNS trigger AS $$
BEGIN
	NEW.db_updated_at = now();
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`

// columnDDL renders one declared column.
func columnDDL(col entitydb.ColumnSpec) (string, error) {
	name := entitydb.ToStorageName(col.Name)
	var sqlType string
	switch col.Type {
	case entitydb.ColBool:
		sqlType = "BOOLEAN"
	case entitydb.ColInteger:
		sqlType = "INTEGER"
	case entitydb.ColBigInt:
		sqlType = "BIGINT"
	case entitydb.ColJSON:
		sqlType = "JSONB"
	case entitydb.ColTimestamp:
		sqlType = "TIMESTAMP"
	case entitydb.ColText:
		length := col.Length
		if length <= 0 {
			length = 50
		}
		sqlType = fmt.Sprintf("VARCHAR(%d)", length)
	default:
		return "", fmt.Errorf("column %s has unknown type %d", col.Name, col.Type)
	}
	ddl := fmt.Sprintf("%s %s", name, sqlType)
	if col.NotNull {
		ddl += " NOT NULL"
	} else {
		ddl += " DEFAULT NULL"
	}
	return ddl, nil
}

// tableDDL renders the CREATE TABLE statement for one category. Every table
// carries a synthetic identifier and the backend-managed last-modified
// timestamp alongside the declared columns.
func tableDDL(spec entitydb.CategorySpec) (string, error) {
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("category %s declares no columns", spec.Category)
	}
	parts := []string{"id BIGSERIAL PRIMARY KEY"}
	for _, col := range spec.Columns {
		ddl, err := columnDDL(col)
		if err != nil {
			return "", fmt.Errorf("category %s: %w", spec.Category, err)
		}
		parts = append(parts, ddl)
	}
	parts = append(parts, "db_updated_at TIMESTAMPTZ NOT NULL DEFAULT now()")
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		spec.Category, strings.Join(parts, ",\n\t")), nil
}

// touchTriggerDDL renders the per-table statements wiring the shared touch
// function. DROP/CREATE keeps the pair idempotent across restarts.
func touchTriggerDDL(category string) []string {
	return []string{
		fmt.Sprintf("DROP TRIGGER IF EXISTS trg_%s_touch ON %s", category, category),
		fmt.Sprintf(`CREATE TRIGGER trg_%s_touch BEFORE UPDATE ON %s
FOR EACH ROW EXECUTE FUNCTION entitydb_touch_updated_at()`, category, category),
	}
}
