// Package sqlitedrv implements the pure-Go native driver shape: SQLite
// reached through modernc.org/sqlite, which (unlike the DuckDB driver)
// needs no cgo, via database/sql.
package sqlitedrv

import (
	"context"
	stdsql "database/sql"

	_ "modernc.org/sqlite"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/internal/sqlbridge"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
)

// Open returns a *stdsql.DB for the given SQLite file path (or
// ":memory:").
func Open(path string) (*stdsql.DB, error) {
	return stdsql.Open("sqlite", path)
}

// SQLite's type affinity system means DatabaseTypeName reflects the
// declared column type, not a fixed storage class; this table covers the
// declarations SQLite's affinity rules recognize, falling back to TEXT
// affinity's catch-all behavior being out of scope (declared types only).
var nativeTypeMap = map[string]valuetype.Type{
	"INTEGER":  valuetype.Int64,
	"INT":      valuetype.Int64,
	"BIGINT":   valuetype.Int64,
	"TINYINT":  valuetype.Int8,
	"SMALLINT": valuetype.Int16,
	"REAL":     valuetype.Float64,
	"FLOAT":    valuetype.Float32,
	"DOUBLE":   valuetype.Float64,
	"NUMERIC":  valuetype.Decimal,
	"DECIMAL":  valuetype.Decimal,
	"TEXT":     valuetype.UTF8String,
	"VARCHAR":  valuetype.UTF8String,
	"CHAR":     valuetype.UTF8String,
	"JSON":     valuetype.JSON,
	"BLOB":     valuetype.Binary,
	"DATE":     valuetype.Date,
	"TIME":     valuetype.Time,
	"DATETIME": valuetype.DateTime,
}

// Mapping is the sqlitedrv Mapping implementation.
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

// Handle adapts a prepared SQLite statement to stmt.Handle.
type Handle struct{ *sqlbridge.Handle }

// Prepare prepares query against db and wraps it as a stmt.Handle.
func Prepare(ctx context.Context, db *stdsql.DB, query string) (stmt.Handle, error) {
	prepared, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, connerr.NewDriver(err)
	}
	return Handle{sqlbridge.NewHandle(prepared)}, nil
}
