// Package mapping defines the data-mapping contract: one read/bind pair
// per semantic value type, plus a generic null bind and a column-type
// resolver. A Mapping instance is immutable after construction and
// shared by reference among all prepared queries of one connection; see
// the packages under driver/ for concrete per-backend implementations.
package mapping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
	"github.com/ansilo-data/connector-core/wire"
)

// Mapping is the per-driver adapter translating the generic value model
// to and from a native driver's own type system. Every Read method
// returns (nil, nil) for a SQL NULL cell. Every Bind method takes a
// non-null native value; binding NULL always goes through BindNull.
type Mapping interface {
	// ColumnType resolves the native type of a result-set column to the
	// registry. It fails with an UnsupportedTypeError when the native
	// driver reports a type the mapping cannot classify.
	ColumnType(cur stmt.Cursor, col int) (valuetype.Type, error)

	BindNull(ctx context.Context, h stmt.Handle, index int, t valuetype.Type) error

	ReadInt8(cur stmt.Cursor, col int) (*int8, error)
	BindInt8(ctx context.Context, h stmt.Handle, index int, v int8) error

	ReadUint8(cur stmt.Cursor, col int) (*uint8, error)
	BindUint8(ctx context.Context, h stmt.Handle, index int, v uint8) error

	ReadInt16(cur stmt.Cursor, col int) (*int16, error)
	BindInt16(ctx context.Context, h stmt.Handle, index int, v int16) error

	ReadUint16(cur stmt.Cursor, col int) (*uint16, error)
	BindUint16(ctx context.Context, h stmt.Handle, index int, v uint16) error

	ReadInt32(cur stmt.Cursor, col int) (*int32, error)
	BindInt32(ctx context.Context, h stmt.Handle, index int, v int32) error

	ReadUint32(cur stmt.Cursor, col int) (*uint32, error)
	BindUint32(ctx context.Context, h stmt.Handle, index int, v uint32) error

	ReadInt64(cur stmt.Cursor, col int) (*int64, error)
	BindInt64(ctx context.Context, h stmt.Handle, index int, v int64) error

	ReadUint64(cur stmt.Cursor, col int) (*uint64, error)
	BindUint64(ctx context.Context, h stmt.Handle, index int, v uint64) error

	ReadFloat32(cur stmt.Cursor, col int) (*float32, error)
	BindFloat32(ctx context.Context, h stmt.Handle, index int, v float32) error

	ReadFloat64(cur stmt.Cursor, col int) (*float64, error)
	BindFloat64(ctx context.Context, h stmt.Handle, index int, v float64) error

	ReadBoolean(cur stmt.Cursor, col int) (*bool, error)
	BindBoolean(ctx context.Context, h stmt.Handle, index int, v bool) error

	ReadDecimal(cur stmt.Cursor, col int) (*decimal.Decimal, error)
	BindDecimal(ctx context.Context, h stmt.Handle, index int, v decimal.Decimal) error

	ReadDate(cur stmt.Cursor, col int) (*wire.Date, error)
	BindDate(ctx context.Context, h stmt.Handle, index int, v wire.Date) error

	ReadTime(cur stmt.Cursor, col int) (*wire.Time, error)
	BindTime(ctx context.Context, h stmt.Handle, index int, v wire.Time) error

	ReadDateTime(cur stmt.Cursor, col int) (*wire.DateTime, error)
	BindDateTime(ctx context.Context, h stmt.Handle, index int, v wire.DateTime) error

	ReadDateTimeWithTZ(cur stmt.Cursor, col int) (*wire.DateTimeTZ, error)
	BindDateTimeWithTZ(ctx context.Context, h stmt.Handle, index int, v wire.DateTimeTZ) error

	ReadBinary(cur stmt.Cursor, col int) (*[]byte, error)
	BindBinary(ctx context.Context, h stmt.Handle, index int, v []byte) error

	ReadUTF8String(cur stmt.Cursor, col int) (*string, error)
	BindUTF8String(ctx context.Context, h stmt.Handle, index int, v string) error

	ReadJSON(cur stmt.Cursor, col int) (*[]byte, error)
	BindJSON(ctx context.Context, h stmt.Handle, index int, v []byte) error

	ReadUUID(cur stmt.Cursor, col int) (*uuid.UUID, error)
	BindUUID(ctx context.Context, h stmt.Handle, index int, v uuid.UUID) error
}

// Base is the default mapping behaviour: reads coerce the native driver
// value (delivered as `any` by stmt.Cursor.Value) via a permissive type
// switch, and binds simply forward to stmt.Handle.Bind, which is where
// the underlying driver performs its own native encoding. Driver
// packages embed Base and override individual methods where their
// native driver needs help — e.g. to force narrow-string handling, to
// reinterpret an unsigned integer carried as its signed counterpart, or
// to remap JSON/timestamp-with-zone handling.
type Base struct{}

// ColumnType has no native type table to consult on its own; every
// driver package embeds Base and overrides ColumnType with its own
// native-type-name dispatch. Calling it unoverridden is itself an
// unsupported-type condition.
func (Base) ColumnType(cur stmt.Cursor, col int) (valuetype.Type, error) {
	return 0, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}

func (Base) BindNull(ctx context.Context, h stmt.Handle, index int, _ valuetype.Type) error {
	return h.BindNull(ctx, index)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint:
		return int64(n), true
	}
	return 0, false
}

func (Base) ReadInt8(cur stmt.Cursor, col int) (*int8, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := int8(n)
	return &out, nil
}
func (Base) BindInt8(ctx context.Context, h stmt.Handle, index int, v int8) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadUint8(cur stmt.Cursor, col int) (*uint8, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := uint8(n)
	return &out, nil
}
func (Base) BindUint8(ctx context.Context, h stmt.Handle, index int, v uint8) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadInt16(cur stmt.Cursor, col int) (*int16, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := int16(n)
	return &out, nil
}
func (Base) BindInt16(ctx context.Context, h stmt.Handle, index int, v int16) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadUint16(cur stmt.Cursor, col int) (*uint16, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := uint16(n)
	return &out, nil
}
func (Base) BindUint16(ctx context.Context, h stmt.Handle, index int, v uint16) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadInt32(cur stmt.Cursor, col int) (*int32, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := int32(n)
	return &out, nil
}
func (Base) BindInt32(ctx context.Context, h stmt.Handle, index int, v int32) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadUint32(cur stmt.Cursor, col int) (*uint32, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := uint32(n)
	return &out, nil
}
func (Base) BindUint32(ctx context.Context, h stmt.Handle, index int, v uint32) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadInt64(cur stmt.Cursor, col int) (*int64, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	return &n, nil
}
func (Base) BindInt64(ctx context.Context, h stmt.Handle, index int, v int64) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadUint64(cur stmt.Cursor, col int) (*uint64, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, ok := asInt64(v)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := uint64(n)
	return &out, nil
}
func (Base) BindUint64(ctx context.Context, h stmt.Handle, index int, v uint64) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadFloat32(cur stmt.Cursor, col int) (*float32, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch f := v.(type) {
	case float32:
		return &f, nil
	case float64:
		out := float32(f)
		return &out, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}
func (Base) BindFloat32(ctx context.Context, h stmt.Handle, index int, v float32) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadFloat64(cur stmt.Cursor, col int) (*float64, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch f := v.(type) {
	case float64:
		return &f, nil
	case float32:
		out := float64(f)
		return &out, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}
func (Base) BindFloat64(ctx context.Context, h stmt.Handle, index int, v float64) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadBoolean(cur stmt.Cursor, col int) (*bool, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	return &b, nil
}
func (Base) BindBoolean(ctx context.Context, h stmt.Handle, index int, v bool) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadDecimal(cur stmt.Cursor, col int) (*decimal.Decimal, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch n := v.(type) {
	case decimal.Decimal:
		return &n, nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return nil, connerr.NewEncoding(cur.ColumnName(col), err)
		}
		return &d, nil
	case []byte:
		d, err := decimal.NewFromString(string(n))
		if err != nil {
			return nil, connerr.NewEncoding(cur.ColumnName(col), err)
		}
		return &d, nil
	case float64:
		d := decimal.NewFromFloat(n)
		return &d, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}
func (Base) BindDecimal(ctx context.Context, h stmt.Handle, index int, v decimal.Decimal) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadDate(cur stmt.Cursor, col int) (*wire.Date, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	d := wire.Date{Year: int32(t.Year()), Month: uint8(t.Month()), Day: uint8(t.Day())}
	return &d, nil
}
func (Base) BindDate(ctx context.Context, h stmt.Handle, index int, v wire.Date) error {
	return h.Bind(ctx, index, time.Date(int(v.Year), time.Month(v.Month), int(v.Day), 0, 0, 0, 0, time.UTC))
}

func (Base) ReadTime(cur stmt.Cursor, col int) (*wire.Time, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := wire.Time{Hour: uint8(t.Hour()), Minute: uint8(t.Minute()), Second: uint8(t.Second()), Nanos: int32(t.Nanosecond())}
	return &out, nil
}
func (Base) BindTime(ctx context.Context, h stmt.Handle, index int, v wire.Time) error {
	return h.Bind(ctx, index, time.Date(0, 1, 1, int(v.Hour), int(v.Minute), int(v.Second), int(v.Nanos), time.UTC))
}

func (Base) ReadDateTime(cur stmt.Cursor, col int) (*wire.DateTime, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	out := wire.DateTime{
		Date: wire.Date{Year: int32(t.Year()), Month: uint8(t.Month()), Day: uint8(t.Day())},
		Time: wire.Time{Hour: uint8(t.Hour()), Minute: uint8(t.Minute()), Second: uint8(t.Second()), Nanos: int32(t.Nanosecond())},
	}
	return &out, nil
}
func (Base) BindDateTime(ctx context.Context, h stmt.Handle, index int, v wire.DateTime) error {
	d, tm := v.Date, v.Time
	return h.Bind(ctx, index, time.Date(int(d.Year), time.Month(d.Month), int(d.Day), int(tm.Hour), int(tm.Minute), int(tm.Second), int(tm.Nanos), time.UTC))
}

// ReadDateTimeWithTZ normalises to UTC, the documented lossy conversion
// for timezone-aware values that round-trip through a backend without
// zone-id storage (most native drivers keep only an instant + offset).
func (Base) ReadDateTimeWithTZ(cur stmt.Cursor, col int) (*wire.DateTimeTZ, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	t, ok := v.(time.Time)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	u := t.UTC()
	out := wire.DateTimeTZ{
		DateTime: wire.DateTime{
			Date: wire.Date{Year: int32(u.Year()), Month: uint8(u.Month()), Day: uint8(u.Day())},
			Time: wire.Time{Hour: uint8(u.Hour()), Minute: uint8(u.Minute()), Second: uint8(u.Second()), Nanos: int32(u.Nanosecond())},
		},
		Zone: "UTC",
	}
	return &out, nil
}
func (Base) BindDateTimeWithTZ(ctx context.Context, h stmt.Handle, index int, v wire.DateTimeTZ) error {
	return h.Bind(ctx, index, v.ToTime())
}

func (Base) ReadBinary(cur stmt.Cursor, col int) (*[]byte, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
	}
	return &b, nil
}
func (Base) BindBinary(ctx context.Context, h stmt.Handle, index int, v []byte) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadUTF8String(cur stmt.Cursor, col int) (*string, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch s := v.(type) {
	case string:
		return &s, nil
	case []byte:
		out := string(s)
		return &out, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}
func (Base) BindUTF8String(ctx context.Context, h stmt.Handle, index int, v string) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadJSON(cur stmt.Cursor, col int) (*[]byte, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch s := v.(type) {
	case []byte:
		return &s, nil
	case string:
		b := []byte(s)
		return &b, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}
func (Base) BindJSON(ctx context.Context, h stmt.Handle, index int, v []byte) error {
	return h.Bind(ctx, index, v)
}

func (Base) ReadUUID(cur stmt.Cursor, col int) (*uuid.UUID, error) {
	v, err := cur.Value(col)
	if err != nil || v == nil {
		return nil, err
	}
	switch u := v.(type) {
	case uuid.UUID:
		return &u, nil
	case [16]byte:
		out := uuid.UUID(u)
		return &out, nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, connerr.NewEncoding(cur.ColumnName(col), err)
		}
		return &parsed, nil
	}
	return nil, connerr.NewUnsupportedType(cur.ColumnName(col), cur.ColumnNativeType(col))
}
func (Base) BindUUID(ctx context.Context, h stmt.Handle, index int, v uuid.UUID) error {
	return h.Bind(ctx, index, v)
}
