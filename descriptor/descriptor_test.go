package descriptor

import (
	"testing"

	"github.com/ansilo-data/connector-core/valuetype"
)

func TestValidateRejectsNonPositiveIndex(t *testing.T) {
	params := []Param{{Index: 0, Type: valuetype.Int32, Mode: Dynamic()}}
	if err := Validate(params); err == nil {
		t.Fatal("expected error for index 0")
	}
	params = []Param{{Index: -3, Type: valuetype.Int32, Mode: Dynamic()}}
	if err := Validate(params); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestValidateRejectsDuplicateIndex(t *testing.T) {
	params := []Param{
		{Index: 1, Type: valuetype.Int32, Mode: Dynamic()},
		{Index: 1, Type: valuetype.UTF8String, Mode: Dynamic()},
	}
	if err := Validate(params); err == nil {
		t.Fatal("expected error for duplicate index")
	}
}

func TestSplitPreservesDescriptorOrder(t *testing.T) {
	params := []Param{
		{Index: 3, Type: valuetype.Int32, Mode: Dynamic()},
		{Index: 1, Type: valuetype.Int64, Mode: Constant([]byte{0})},
		{Index: 2, Type: valuetype.UTF8String, Mode: Dynamic()},
		{Index: 4, Type: valuetype.Boolean, Mode: Constant([]byte{1, 1})},
	}
	if err := Validate(params); err != nil {
		t.Fatal(err)
	}
	dynamic, constant := Split(params)
	if len(dynamic) != 2 || dynamic[0].Index != 3 || dynamic[1].Index != 2 {
		t.Fatalf("dynamic split = %v", dynamic)
	}
	if len(constant) != 2 || constant[0].Index != 1 || constant[1].Index != 4 {
		t.Fatalf("constant split = %v", constant)
	}
}

func TestConstantModeCarriesBytes(t *testing.T) {
	m := Constant([]byte{0x01, 0x02})
	if !m.IsConstant() {
		t.Fatal("Constant mode must report IsConstant")
	}
	if got := m.Bytes(); len(got) != 2 || got[0] != 0x01 {
		t.Fatalf("Bytes = % x", got)
	}
	if Dynamic().IsConstant() {
		t.Fatal("Dynamic mode must not report IsConstant")
	}
	if Dynamic().Bytes() != nil {
		t.Fatal("Dynamic mode must carry no bytes")
	}
}
