// Package valuetype defines the closed catalog of semantic value types
// that cross every boundary of the connector substrate: driver mappings,
// the result-set producer, and the prepared-query writer all dispatch on
// this enumeration rather than on any one driver's native type system.
package valuetype

import "fmt"

// Type is a semantic value type. The numeric value is part of the wire
// ABI (see the type-tag registry) — new types are appended, never
// renumbered or reused.
type Type uint8

const (
	Int8 Type = iota + 1
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	Decimal
	Date
	Time
	DateTime
	DateTimeWithTZ
	Binary
	Null
	Boolean
	UTF8String
	JSON
	UUID
)

var names = map[Type]string{
	Int8:           "INT8",
	Uint8:          "UINT8",
	Int16:          "INT16",
	Uint16:         "UINT16",
	Int32:          "INT32",
	Uint32:         "UINT32",
	Int64:          "INT64",
	Uint64:         "UINT64",
	Float32:        "FLOAT32",
	Float64:        "FLOAT64",
	Decimal:        "DECIMAL",
	Date:           "DATE",
	Time:           "TIME",
	DateTime:       "DATE_TIME",
	DateTimeWithTZ: "DATE_TIME_WITH_TZ",
	Binary:         "BINARY",
	Null:           "NULL",
	Boolean:        "BOOLEAN",
	UTF8String:     "UTF8_STRING",
	JSON:           "JSON",
	UUID:           "UUID",
}

// fixedSize holds the on-wire payload size in bytes, inclusive of the
// leading presence byte, for every fixed-size type. Types absent from
// this map are stream types.
var fixedSize = map[Type]int{
	Int8:     2,
	Uint8:    2,
	Boolean:  2,
	Int16:    3,
	Uint16:   3,
	Int32:    5,
	Uint32:   5,
	Float32:  5,
	Int64:    9,
	Uint64:   9,
	Float64:  9,
	Date:     7,
	Time:     8,
	DateTime: 14,
	UUID:     17,
	Null:     1,
}

// String renders the type's registry name, e.g. "INT32".
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// TypeOf resolves a wire tag to its Type. ok is false for unknown tags.
func TypeOf(tag uint8) (Type, bool) {
	t := Type(tag)
	_, known := names[t]
	return t, known
}

// TagOf returns the wire tag for a Type.
func TagOf(t Type) uint8 {
	return uint8(t)
}

// IsStream reports whether t's on-wire payload is length-unknown and
// must be transported via the chunked stream framing rather than a
// fixed-size payload.
func IsStream(t Type) bool {
	_, fixed := fixedSize[t]
	return !fixed
}

// FixedSize returns the on-wire payload size in bytes (including the
// presence byte) for a fixed-size type, and false for a stream type.
func FixedSize(t Type) (int, bool) {
	n, ok := fixedSize[t]
	return n, ok
}

// All returns every registered Type in ascending tag order, useful for
// iterating the full capability set a Mapping must cover.
func All() []Type {
	return []Type{
		Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Uint64,
		Float32, Float64, Decimal, Date, Time, DateTime, DateTimeWithTZ,
		Binary, Null, Boolean, UTF8String, JSON, UUID,
	}
}
