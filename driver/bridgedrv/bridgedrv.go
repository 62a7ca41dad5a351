// Package bridgedrv implements the generic database/sql bridge driver
// shape — the analogue of a JDBC bridge: any backend reachable through
// an ordinary database/sql driver, fronted by jmoiron/sqlx so each row
// comes back as a single SliceScan call instead of a hand-built
// destination-pointer array per column. Because the target backend is
// arbitrary, its native-type-name table is supplied by the caller rather
// than hardcoded, unlike duckdbdrv/mysqldrv/sqlitedrv.
package bridgedrv

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
)

// Open wraps sqlx.Open for an arbitrary registered database/sql driver
// name and DSN.
func Open(driverName, dsn string) (*sqlx.DB, error) {
	return sqlx.Open(driverName, dsn)
}

// Mapping dispatches on a caller-supplied native-type-name table, since
// bridgedrv fronts whatever backend the caller registered.
type Mapping struct {
	mapping.Base
	Types map[string]valuetype.Type
}

func (m Mapping) ColumnType(cur stmt.Cursor, col int) (valuetype.Type, error) {
	native := cur.ColumnNativeType(col)
	t, ok := m.Types[native]
	if !ok {
		return 0, connerr.NewUnsupportedType(cur.ColumnName(col), native)
	}
	return t, nil
}

// Handle adapts a prepared sqlx statement to stmt.Handle. Like
// sqlbridge.Handle it accumulates bound values by index, since
// database/sql (and sqlx atop it) exposes no incremental-bind API.
type Handle struct {
	stmt     *sqlx.Stmt
	args     map[int]any
	maxIndex int
	batch    [][]any
}

// Prepare prepares query against db and wraps it as a stmt.Handle.
func Prepare(ctx context.Context, db *sqlx.DB, query string) (stmt.Handle, error) {
	prepared, err := db.PreparexContext(ctx, query)
	if err != nil {
		return nil, connerr.NewDriver(err)
	}
	return &Handle{stmt: prepared, args: make(map[int]any)}, nil
}

func (h *Handle) Bind(ctx context.Context, index int, value any) error {
	h.args[index] = value
	if index > h.maxIndex {
		h.maxIndex = index
	}
	return nil
}

func (h *Handle) BindNull(ctx context.Context, index int) error {
	return h.Bind(ctx, index, nil)
}

func (h *Handle) orderedArgs() []any {
	out := make([]any, h.maxIndex)
	for i, v := range h.args {
		out[i-1] = v
	}
	return out
}

func (h *Handle) ExecuteQuery(ctx context.Context) (stmt.Cursor, error) {
	rows, err := h.stmt.QueryxContext(ctx, h.orderedArgs()...)
	if err != nil {
		return nil, connerr.NewDriver(err)
	}
	return newCursor(rows)
}

func (h *Handle) ExecuteModify(ctx context.Context) (int64, error) {
	res, err := h.stmt.ExecContext(ctx, h.orderedArgs()...)
	if err != nil {
		return 0, connerr.NewDriver(err)
	}
	return res.RowsAffected()
}

func (h *Handle) AddBatch(ctx context.Context) error {
	h.batch = append(h.batch, h.orderedArgs())
	h.args = make(map[int]any)
	h.maxIndex = 0
	return nil
}

func (h *Handle) ExecuteBatch(ctx context.Context) (int64, error) {
	var total int64
	for _, args := range h.batch {
		res, err := h.stmt.ExecContext(ctx, args...)
		if err != nil {
			return total, connerr.NewDriver(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, connerr.NewDriver(err)
		}
		total += n
	}
	h.batch = nil
	return total, nil
}

func (h *Handle) Close() error { return h.stmt.Close() }

// Cursor wraps a *sqlx.Rows, decoding each row with SliceScan instead of
// a fixed destination-pointer array.
type Cursor struct {
	rows        *sqlx.Rows
	names       []string
	nativeTypes []string
	row         []any
}

func newCursor(rows *sqlx.Rows) (*Cursor, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, connerr.NewDriver(err)
	}
	c := &Cursor{
		rows:        rows,
		names:       make([]string, len(cols)),
		nativeTypes: make([]string, len(cols)),
	}
	for i, col := range cols {
		c.names[i] = col.Name()
		c.nativeTypes[i] = col.DatabaseTypeName()
	}
	return c, nil
}

func (c *Cursor) Next(ctx context.Context) (bool, error) {
	if !c.rows.Next() {
		return false, c.rows.Err()
	}
	row, err := c.rows.SliceScan()
	if err != nil {
		return false, connerr.NewDriver(err)
	}
	c.row = row
	return true, nil
}

func (c *Cursor) ColumnCount() int              { return len(c.names) }
func (c *Cursor) ColumnName(i int) string       { return c.names[i] }
func (c *Cursor) ColumnNativeType(i int) string { return c.nativeTypes[i] }
func (c *Cursor) Value(i int) (any, error)      { return c.row[i], nil }
func (c *Cursor) Close() error                  { return c.rows.Close() }
