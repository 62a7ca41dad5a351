// Package mysqldrv implements the native-wire-protocol driver shape:
// MySQL reached over go-sql-driver/mysql's pure-Go TCP implementation of
// the MySQL wire protocol, via database/sql.
package mysqldrv

import (
	"context"
	stdsql "database/sql"

	_ "github.com/go-sql-driver/mysql"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/internal/sqlbridge"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
)

// Open returns a *stdsql.DB for the given go-sql-driver/mysql DSN, e.g.
// "user:pass@tcp(127.0.0.1:3306)/dbname".
func Open(dsn string) (*stdsql.DB, error) {
	return stdsql.Open("mysql", dsn)
}

var nativeTypeMap = map[string]valuetype.Type{
	"TINYINT":   valuetype.Int8,
	"SMALLINT":  valuetype.Int16,
	"MEDIUMINT": valuetype.Int32,
	"INT":       valuetype.Int32,
	"BIGINT":    valuetype.Int64,
	"FLOAT":     valuetype.Float32,
	"DOUBLE":    valuetype.Float64,
	"DECIMAL":   valuetype.Decimal,
	"VARCHAR":   valuetype.UTF8String,
	"CHAR":      valuetype.UTF8String,
	"TEXT":      valuetype.UTF8String,
	"JSON":      valuetype.JSON,
	"BLOB":      valuetype.Binary,
	"BINARY":    valuetype.Binary,
	"VARBINARY": valuetype.Binary,
	"DATE":      valuetype.Date,
	"TIME":      valuetype.Time,
	"DATETIME":  valuetype.DateTime,
	"TIMESTAMP": valuetype.DateTime,
}

// Mapping is the mysqldrv Mapping implementation. Unsigned integer
// columns are reported by go-sql-driver/mysql under the same type name
// as their signed counterpart (DatabaseTypeName carries no UNSIGNED
// flag at this layer), so unsigned values cross the driver boundary
// bit-identically reinterpreted as their signed counterpart: UINT8 as
// int8, UINT16 as int16, UINT32 as int32, UINT64 as int64.
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

func (Mapping) BindUint8(ctx context.Context, h stmt.Handle, index int, v uint8) error {
	return h.Bind(ctx, index, int8(v))
}

func (Mapping) BindUint16(ctx context.Context, h stmt.Handle, index int, v uint16) error {
	return h.Bind(ctx, index, int16(v))
}

func (Mapping) BindUint32(ctx context.Context, h stmt.Handle, index int, v uint32) error {
	return h.Bind(ctx, index, int32(v))
}

func (Mapping) BindUint64(ctx context.Context, h stmt.Handle, index int, v uint64) error {
	return h.Bind(ctx, index, int64(v))
}

// ReadUint64 undoes the signed reinterpretation on the way out: a
// UNSIGNED BIGINT above MaxInt64 arrives from the driver as a negative
// int64 whose bits are the original unsigned value.
func (Mapping) ReadUint64(cur stmt.Cursor, col int) (*uint64, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch n := v.(type) {
	case int64:
		out := uint64(n)
		return &out, nil
	case uint64:
		return &n, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}

// Handle adapts a prepared MySQL statement to stmt.Handle.
type Handle struct{ *sqlbridge.Handle }

// Prepare prepares query against db and wraps it as a stmt.Handle.
func Prepare(ctx context.Context, db *stdsql.DB, query string) (stmt.Handle, error) {
	prepared, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, connerr.NewDriver(err)
	}
	return Handle{sqlbridge.NewHandle(prepared)}, nil
}
