package mapping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/stmt"
)

// oneCellCursor serves a single-column, single-row result for exercising
// Base's read coercions.
type oneCellCursor struct {
	value      any
	nativeType string
}

func (c *oneCellCursor) Next(ctx context.Context) (bool, error) { return true, nil }
func (c *oneCellCursor) ColumnCount() int { return 1 }
func (c *oneCellCursor) ColumnName(i int) string { return "c0" }
func (c *oneCellCursor) ColumnNativeType(i int) string { return c.nativeType }
func (c *oneCellCursor) Value(i int) (any, error) { return c.value, nil }
func (c *oneCellCursor) Close() error { return nil }

type recordingHandle struct {
	lastIndex int
	lastValue any
	nullIndex int
}

func (h *recordingHandle) Bind(ctx context.Context, index int, value any) error {
	h.lastIndex, h.lastValue = index, value
	return nil
}
func (h *recordingHandle) BindNull(ctx context.Context, index int) error {
	h.nullIndex = index
	return nil
}
func (h *recordingHandle) ExecuteQuery(ctx context.Context) (stmt.Cursor, error) { return nil, nil }
func (h *recordingHandle) ExecuteModify(ctx context.Context) (int64, error) { return 0, nil }
func (h *recordingHandle) AddBatch(ctx context.Context) error { return nil }
func (h *recordingHandle) ExecuteBatch(ctx context.Context) (int64, error) { return 0, nil }
func (h *recordingHandle) Close() error { return nil }

func TestReadIntCoercionAcrossNativeWidths(t *testing.T) {
	var b Base
	for _, native := range []any{int64(42), int32(42), int16(42), int8(42), int(42), uint64(42), uint8(42)} {
		cur := &oneCellCursor{value: native, nativeType: "INT"}
		v, err := b.ReadInt32(cur, 0)
		if err != nil {
			t.Fatalf("%T: %v", native, err)
		}
		if v == nil || *v != 42 {
			t.Fatalf("%T: ReadInt32 = %v, want 42", native, v)
		}
	}
}

func TestReadReturnsNilForSQLNull(t *testing.T) {
	var b Base
	cur := &oneCellCursor{value: nil, nativeType: "INT"}
	v, err := b.ReadInt64(cur, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Fatalf("expected nil for SQL NULL, got %v", *v)
	}
	s, err := b.ReadUTF8String(cur, 0)
	if err != nil || s != nil {
		t.Fatalf("expected nil string for SQL NULL, got %v, %v", s, err)
	}
}

func TestReadUnclassifiableNativeValueFails(t *testing.T) {
	var b Base
	cur := &oneCellCursor{value: struct{}{}, nativeType: "WEIRD"}
	_, err := b.ReadInt32(cur, 0)
	var ute *connerr.UnsupportedTypeError
	if !asUnsupported(err, &ute) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}
	if ute.Column != "c0" || ute.NativeCode != "WEIRD" {
		t.Fatalf("error must carry column name and native code, got %+v", ute)
	}
}

func asUnsupported(err error, target **connerr.UnsupportedTypeError) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*connerr.UnsupportedTypeError); ok {
			*target = e
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestReadDecimalFromStringAndFloat(t *testing.T) {
	var b Base
	want := decimal.RequireFromString("12.5")
	for _, native := range []any{"12.5", []byte("12.5"), 12.5} {
		cur := &oneCellCursor{value: native, nativeType: "DECIMAL"}
		v, err := b.ReadDecimal(cur, 0)
		if err != nil {
			t.Fatalf("%T: %v", native, err)
		}
		if !v.Equal(want) {
			t.Fatalf("%T: ReadDecimal = %s, want %s", native, v, want)
		}
	}
}

func TestReadUUIDFromStringAndBytes(t *testing.T) {
	var b Base
	want := uuid.MustParse("0b51d600-420c-47db-803c-992a4422b7d1")
	for _, native := range []any{want, [16]byte(want), want.String()} {
		cur := &oneCellCursor{value: native, nativeType: "UUID"}
		v, err := b.ReadUUID(cur, 0)
		if err != nil {
			t.Fatalf("%T: %v", native, err)
		}
		if *v != want {
			t.Fatalf("%T: ReadUUID = %s, want %s", native, v, want)
		}
	}
}

func TestReadDateTimeWithTZNormalizesToUTC(t *testing.T) {
	var b Base
	loc := time.FixedZone("UTC+2", 2*3600)
	cur := &oneCellCursor{value: time.Date(2024, 3, 14, 11, 0, 0, 0, loc), nativeType: "TIMESTAMPTZ"}
	v, err := b.ReadDateTimeWithTZ(cur, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v.Zone != "UTC" {
		t.Fatalf("zone = %q, want UTC", v.Zone)
	}
	if v.DateTime.Time.Hour != 9 {
		t.Fatalf("hour = %d, want 9 (11:00+02:00 in UTC)", v.DateTime.Time.Hour)
	}
}

func TestBindForwardsToHandle(t *testing.T) {
	var b Base
	h := &recordingHandle{}
	if err := b.BindInt32(context.Background(), h, 3, 7); err != nil {
		t.Fatal(err)
	}
	if h.lastIndex != 3 || h.lastValue != int32(7) {
		t.Fatalf("bind forwarded (%d, %v)", h.lastIndex, h.lastValue)
	}
	if err := b.BindNull(context.Background(), h, 5, 0); err != nil {
		t.Fatal(err)
	}
	if h.nullIndex != 5 {
		t.Fatalf("null bind forwarded index %d", h.nullIndex)
	}
}

func TestBaseColumnTypeIsUnsupported(t *testing.T) {
	var b Base
	cur := &oneCellCursor{value: 1, nativeType: "MYSTERY"}
	if _, err := b.ColumnType(cur, 0); err == nil {
		t.Fatal("Base.ColumnType must fail without a driver override")
	}
}
