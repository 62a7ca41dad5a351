// Package sqlbridge adapts a database/sql prepared statement to
// stmt.Handle and stmt.Cursor. It is shared by the driver packages that
// sit on top of database/sql (duckdbdrv, mysqldrv, sqlitedrv);
// database/sql has no incremental-bind API, so Handle accumulates bound
// values by index and supplies them to the driver only at execute time.
package sqlbridge

import (
	"context"
	stdsql "database/sql"

	"github.com/ansilo-data/connector-core/stmt"
)

// Handle wraps one *stdsql.Stmt. It is not safe for concurrent use,
// matching the single-threaded-per-prepared-query concurrency model.
type Handle struct {
	stmt     *stdsql.Stmt
	args     map[int]any
	maxIndex int
	batch    [][]any
}

// NewHandle wraps an already-prepared statement.
func NewHandle(prepared *stdsql.Stmt) *Handle {
	return &Handle{stmt: prepared, args: make(map[int]any)}
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
	rows, err := h.stmt.QueryContext(ctx, h.orderedArgs()...)
	if err != nil {
		return nil, err
	}
	return newCursor(rows)
}

func (h *Handle) ExecuteModify(ctx context.Context) (int64, error) {
	res, err := h.stmt.ExecContext(ctx, h.orderedArgs()...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddBatch stages the currently bound argument set and clears it so the
// next round of Bind calls feeds the following batch entry.
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
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	h.batch = nil
	return total, nil
}

func (h *Handle) Close() error { return h.stmt.Close() }

// Cursor wraps a *stdsql.Rows, resolving each column's native driver
// type name once up front via rows.ColumnTypes so a Mapping can dispatch
// on it without re-querying the driver per row.
type Cursor struct {
	rows        *stdsql.Rows
	names       []string
	nativeTypes []string
	dest        []any
	values      []any
}

func newCursor(rows *stdsql.Rows) (*Cursor, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, err
	}
	c := &Cursor{
		rows:        rows,
		names:       make([]string, len(cols)),
		nativeTypes: make([]string, len(cols)),
		dest:        make([]any, len(cols)),
		values:      make([]any, len(cols)),
	}
	for i, col := range cols {
		c.names[i] = col.Name()
		c.nativeTypes[i] = col.DatabaseTypeName()
		c.dest[i] = &c.values[i]
	}
	return c, nil
}

func (c *Cursor) Next(ctx context.Context) (bool, error) {
	if !c.rows.Next() {
		return false, c.rows.Err()
	}
	if err := c.rows.Scan(c.dest...); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cursor) ColumnCount() int              { return len(c.names) }
func (c *Cursor) ColumnName(i int) string       { return c.names[i] }
func (c *Cursor) ColumnNativeType(i int) string { return c.nativeTypes[i] }
func (c *Cursor) Value(i int) (any, error)      { return c.values[i], nil }
func (c *Cursor) Close() error                  { return c.rows.Close() }
