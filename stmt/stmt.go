// Package stmt defines the narrow boundary between the connector
// substrate and a concrete driver: a prepared-statement handle that can
// be bound and executed, and a cursor that can be advanced row by row.
// Every driver package under driver/ implements these alongside
// mapping.Mapping.
package stmt

import "context"

// Cursor walks a result set row by row. Next must be called before the
// first row is available. Value returns the native driver value for
// the given 0-based column on the current row (nil for SQL NULL); it is
// only valid between a successful Next and the following Next/Close.
type Cursor interface {
	Next(ctx context.Context) (bool, error)
	ColumnCount() int
	ColumnName(i int) string
	// ColumnNativeType returns the driver's own name for the column's
	// type (e.g. "INTEGER", "UBIGINT"), used by a Mapping to resolve a
	// valuetype.Type via ColumnType.
	ColumnNativeType(i int) string
	Value(i int) (any, error)
	Close() error
}

// Handle is a prepared statement bound to one driver connection. Bind
// methods take a 1-based placeholder index, matching descriptor.Param.Index.
type Handle interface {
	Bind(ctx context.Context, index int, value any) error
	BindNull(ctx context.Context, index int) error
	ExecuteQuery(ctx context.Context) (Cursor, error)
	ExecuteModify(ctx context.Context) (rowsAffected int64, err error)
	AddBatch(ctx context.Context) error
	// ExecuteBatch runs every staged batch entry and returns the sum of
	// the per-entry affected row counts.
	ExecuteBatch(ctx context.Context) (rowsAffected int64, err error)
	Close() error
}
