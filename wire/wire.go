// Package wire implements the bit-exact binary encoding used on every
// boundary of the connector substrate: big-endian fixed-size payloads
// and the chunked stream framing for variable-length values. It has no
// knowledge of any specific driver; mapping implementations decode into
// native Go values using these helpers, and the result-set producer /
// prepared-query writer use it to move bytes to and from caller
// buffers.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// MaxChunkLen is the largest number of payload bytes a single stream
// chunk may carry. The length prefix is a single unsigned byte, so a
// one-byte header suffices only if chunks never exceed this size. This
// is an ABI invariant, not a tunable.
const MaxChunkLen = 255

// Date is the native representation of the DATE value type.
type Date struct {
	Year  int32
	Month uint8
	Day   uint8
}

// Time is the native representation of the TIME value type.
type Time struct {
	Hour, Minute, Second uint8
	Nanos                int32
}

// DateTime is the native representation of the DATE_TIME value type.
type DateTime struct {
	Date Date
	Time Time
}

// DateTimeTZ is the native representation of DATE_TIME_WITH_TZ: a
// DateTime plus an IANA zone identifier, delivered through the stream
// framing as the DateTime's 13 fixed bytes immediately followed by the
// zone id's UTF-8 bytes.
type DateTimeTZ struct {
	DateTime DateTime
	Zone     string
}

// ToTime converts a DateTimeTZ to a time.Time in its named zone,
// falling back to a fixed-offset-less UTC location if the zone id is
// not recognised by the local tzdata (documented lossy conversion).
func (d DateTimeTZ) ToTime() time.Time {
	loc, err := time.LoadLocation(d.Zone)
	if err != nil {
		loc = time.UTC
	}
	return time.Date(int(d.DateTime.Date.Year), time.Month(d.DateTime.Date.Month), int(d.DateTime.Date.Day),
		int(d.DateTime.Time.Hour), int(d.DateTime.Time.Minute), int(d.DateTime.Time.Second), int(d.DateTime.Time.Nanos), loc)
}

// EncodeInt8 etc. encode the fixed-size payload (NOT including the
// presence byte) for each fixed type.

func EncodeInt8(v int8) []byte   { return []byte{byte(v)} }
func DecodeInt8(b []byte) int8   { return int8(b[0]) }
func EncodeUint8(v uint8) []byte { return []byte{v} }
func DecodeUint8(b []byte) uint8 { return b[0] }

func EncodeBoolean(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}
func DecodeBoolean(b []byte) bool { return b[0] != 0 }

func EncodeInt16(v int16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b
}
func DecodeInt16(b []byte) int16 { return int16(binary.BigEndian.Uint16(b)) }

func EncodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}
func DecodeUint16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

func EncodeInt32(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}
func DecodeInt32(b []byte) int32 { return int32(binary.BigEndian.Uint32(b)) }

func EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
func DecodeUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

func EncodeInt64(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
func DecodeInt64(b []byte) int64 { return int64(binary.BigEndian.Uint64(b)) }

func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
func DecodeUint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func EncodeFloat32(v float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
	return b
}
func DecodeFloat32(b []byte) float32 { return math.Float32frombits(binary.BigEndian.Uint32(b)) }

func EncodeFloat64(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}
func DecodeFloat64(b []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(b)) }

func EncodeDate(d Date) []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint32(b[0:4], uint32(d.Year))
	b[4] = d.Month
	b[5] = d.Day
	return b
}
func DecodeDate(b []byte) Date {
	return Date{Year: int32(binary.BigEndian.Uint32(b[0:4])), Month: b[4], Day: b[5]}
}

func EncodeTime(t Time) []byte {
	b := make([]byte, 7)
	b[0] = t.Hour
	b[1] = t.Minute
	b[2] = t.Second
	binary.BigEndian.PutUint32(b[3:7], uint32(t.Nanos))
	return b
}
func DecodeTime(b []byte) Time {
	return Time{Hour: b[0], Minute: b[1], Second: b[2], Nanos: int32(binary.BigEndian.Uint32(b[3:7]))}
}

func EncodeDateTime(dt DateTime) []byte {
	return append(EncodeDate(dt.Date), EncodeTime(dt.Time)...)
}
func DecodeDateTime(b []byte) DateTime {
	return DateTime{Date: DecodeDate(b[0:6]), Time: DecodeTime(b[6:13])}
}

// ValidateDate reports whether d's calendar fields fall within the
// ranges this encoding can round-trip (month 1-12, day 1-31). It does
// not check day-of-month against the actual month/year.
func ValidateDate(d Date) error {
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("wire: month %d out of range", d.Month)
	}
	if d.Day < 1 || d.Day > 31 {
		return fmt.Errorf("wire: day %d out of range", d.Day)
	}
	return nil
}

// ValidateTime reports whether t's clock fields are in range.
func ValidateTime(t Time) error {
	if t.Hour > 23 {
		return fmt.Errorf("wire: hour %d out of range", t.Hour)
	}
	if t.Minute > 59 {
		return fmt.Errorf("wire: minute %d out of range", t.Minute)
	}
	if t.Second > 59 {
		return fmt.Errorf("wire: second %d out of range", t.Second)
	}
	if t.Nanos < 0 || t.Nanos >= 1_000_000_000 {
		return fmt.Errorf("wire: nanos %d out of range", t.Nanos)
	}
	return nil
}

func EncodeUUID(u uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, u[:])
	return b
}
func DecodeUUID(b []byte) (uuid.UUID, error) {
	var u uuid.UUID
	if len(b) != 16 {
		return u, fmt.Errorf("wire: UUID payload must be 16 bytes, got %d", len(b))
	}
	copy(u[:], b)
	return u, nil
}

// EncodeDateTimeTZ returns the full stream payload (13-byte DateTime
// plus UTF-8 zone id) for chunking by the caller.
func EncodeDateTimeTZ(d DateTimeTZ) []byte {
	return append(EncodeDateTime(d.DateTime), []byte(d.Zone)...)
}

// DecodeDateTimeTZ reassembles a DateTimeTZ from the fully concatenated
// stream payload. Chunk boundaries are not assumed to respect the
// 13-byte/zone-id split; callers must concatenate all chunks first.
func DecodeDateTimeTZ(b []byte) (DateTimeTZ, error) {
	if len(b) < 13 {
		return DateTimeTZ{}, fmt.Errorf("wire: DATE_TIME_WITH_TZ payload must be at least 13 bytes, got %d", len(b))
	}
	return DateTimeTZ{DateTime: DecodeDateTime(b[:13]), Zone: string(b[13:])}, nil
}

// EncodeUTF8String returns the UTF-8 octets carried as a stream value.
func EncodeUTF8String(s string) []byte { return []byte(s) }

// DecodeUTF8String validates that the fully reassembled stream payload
// is well-formed UTF-8 and normalizes it to NFC, so two backends that
// encode the same text with different combining-character orderings
// compare equal on this side of the wire. Chunk boundaries may split a
// code point; callers must concatenate all chunks before calling this.
func DecodeUTF8String(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("wire: invalid UTF-8 payload")
	}
	return norm.NFC.String(string(b)), nil
}

// EncodeDecimal renders a decimal.Decimal in its plain-string form, the
// stream payload for the DECIMAL type.
func EncodeDecimal(d decimal.Decimal) []byte { return []byte(d.String()) }

// DecodeDecimal parses the fully reassembled stream payload as a
// decimal's plain-string form.
func DecodeDecimal(b []byte) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wire: malformed decimal text %q: %w", b, err)
	}
	return d, nil
}
