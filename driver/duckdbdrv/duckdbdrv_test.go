package duckdbdrv

import (
	"context"
	"testing"

	"github.com/ansilo-data/connector-core/valuetype"
)

type fakeCursor struct {
	name   string
	native string
}

func (c *fakeCursor) Next(ctx context.Context) (bool, error) { return false, nil }
func (c *fakeCursor) ColumnCount() int { return 1 }
func (c *fakeCursor) ColumnName(i int) string { return c.name }
func (c *fakeCursor) ColumnNativeType(i int) string { return c.native }
func (c *fakeCursor) Value(i int) (any, error) { return nil, nil }
func (c *fakeCursor) Close() error { return nil }

func TestColumnTypeDispatch(t *testing.T) {
	cases := map[string]valuetype.Type{
		"INTEGER":      valuetype.Int32,
		"UBIGINT":      valuetype.Uint64,
		"VARCHAR":      valuetype.UTF8String,
		"TIMESTAMP_TZ": valuetype.DateTimeWithTZ,
		"UUID":         valuetype.UUID,
		"JSON":         valuetype.JSON,
		"DECIMAL":      valuetype.Decimal,
	}
	for native, want := range cases {
		got, err := Mapping{}.ColumnType(&fakeCursor{name: "c", native: native}, 0)
		if err != nil {
			t.Fatalf("%s: %v", native, err)
		}
		if got != want {
			t.Errorf("%s: ColumnType = %s, want %s", native, got, want)
		}
	}
}

func TestColumnTypeUnknownNativeFails(t *testing.T) {
	_, err := Mapping{}.ColumnType(&fakeCursor{name: "geom", native: "GEOMETRY"}, 0)
	if err == nil {
		t.Fatal("expected UnsupportedType for GEOMETRY")
	}
}
