// Package duckdbdrv implements the FFI-bridge driver shape: a mapping
// and statement adapter over DuckDB via the cgo-backed
// marcboeker/go-duckdb driver, reached through database/sql. Column
// types dispatch on DuckDB's reported type names into the connector
// substrate's value-type registry.
package duckdbdrv

import (
	"context"
	stdsql "database/sql"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/internal/sqlbridge"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
)

// Open returns a *stdsql.DB backed by an in-process DuckDB file (or
// ":memory:") at path.
func Open(path string) (*stdsql.DB, error) {
	return stdsql.Open("duckdb", path)
}

// nativeTypeMap is one flat table from DuckDB's DatabaseTypeName()
// string to a registry type.
var nativeTypeMap = map[string]valuetype.Type{
	"BOOLEAN":      valuetype.Boolean,
	"TINYINT":      valuetype.Int8,
	"UTINYINT":     valuetype.Uint8,
	"SMALLINT":     valuetype.Int16,
	"USMALLINT":    valuetype.Uint16,
	"INTEGER":      valuetype.Int32,
	"UINTEGER":     valuetype.Uint32,
	"BIGINT":       valuetype.Int64,
	"UBIGINT":      valuetype.Uint64,
	"FLOAT":        valuetype.Float32,
	"DOUBLE":       valuetype.Float64,
	"HUGEINT":      valuetype.Decimal,
	"UHUGEINT":     valuetype.Decimal,
	"DECIMAL":      valuetype.Decimal,
	"VARINT":       valuetype.Decimal,
	"VARCHAR":      valuetype.UTF8String,
	"ENUM":         valuetype.UTF8String,
	"BLOB":         valuetype.Binary,
	"BIT":          valuetype.Binary,
	"DATE":         valuetype.Date,
	"TIME":         valuetype.Time,
	"TIMESTAMP":    valuetype.DateTime,
	"TIMESTAMP_S":  valuetype.DateTime,
	"TIMESTAMP_MS": valuetype.DateTime,
	"TIMESTAMP_NS": valuetype.DateTime,
	"TIMESTAMP_TZ": valuetype.DateTimeWithTZ,
	"TIME_TZ":      valuetype.DateTimeWithTZ,
	"UUID":         valuetype.UUID,
	"JSON":         valuetype.JSON,
}

// Mapping is the duckdbdrv Mapping implementation. It embeds mapping.Base
// for every read/bind pair and overrides only ColumnType.
type Mapping struct {
	mapping.Base
}

func (Mapping) ColumnType(cur stmt.Cursor, col int) (valuetype.Type, error) {
	native := cur.ColumnNativeType(col)
	t, ok := nativeTypeMap[native]
	if !ok {
		return 0, connerr.NewUnsupportedType(cur.ColumnName(col), native)
	}
	return t, nil
}

// Handle adapts a prepared DuckDB statement to stmt.Handle.
type Handle struct{ *sqlbridge.Handle }

// Prepare prepares query against db and wraps it as a stmt.Handle.
func Prepare(ctx context.Context, db *stdsql.DB, query string) (stmt.Handle, error) {
	prepared, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, connerr.NewDriver(err)
	}
	return Handle{sqlbridge.NewHandle(prepared)}, nil
}
