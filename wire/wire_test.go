package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestInt32RoundTrip(t *testing.T) {
	// S1: bytes 00 00 00 7B decode to 123.
	payload := []byte{0x00, 0x00, 0x00, 0x7B}
	if got := DecodeInt32(payload); got != 123 {
		t.Fatalf("DecodeInt32 = %d, want 123", got)
	}
	if got := EncodeInt32(123); string(got) != string(payload) {
		t.Fatalf("EncodeInt32(123) = % x, want % x", got, payload)
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	// S8: 0b51d600-420c-47db-803c-992a4422b7d1 encodes as the listed 16 bytes.
	u := uuid.MustParse("0b51d600-420c-47db-803c-992a4422b7d1")
	want := []byte{0x0b, 0x51, 0xd6, 0x00, 0x42, 0x0c, 0x47, 0xdb, 0x80, 0x3c, 0x99, 0x2a, 0x44, 0x22, 0xb7, 0xd1}
	got := EncodeUUID(u)
	if string(got) != string(want) {
		t.Fatalf("EncodeUUID = % x, want % x", got, want)
	}
	back, err := DecodeUUID(got)
	if err != nil {
		t.Fatal(err)
	}
	if back != u {
		t.Fatalf("DecodeUUID round trip mismatch: %s != %s", back, u)
	}
}

func TestDecodeUUIDWrongLength(t *testing.T) {
	if _, err := DecodeUUID([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short UUID payload")
	}
}

func TestUTF8StringValidity(t *testing.T) {
	if _, err := DecodeUTF8String([]byte{0xff, 0xfe}); err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	s, err := DecodeUTF8String([]byte("abcdefg"))
	if err != nil || s != "abcdefg" {
		t.Fatalf("DecodeUTF8String = %q, %v", s, err)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("123.456")
	encoded := EncodeDecimal(d)
	back, err := DecodeDecimal(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Fatalf("decimal round trip: %s != %s", back, d)
	}
	if _, err := DecodeDecimal([]byte("not-a-decimal")); err == nil {
		t.Fatal("expected error for malformed decimal")
	}
}

func TestDateTimeWithTZRoundTrip(t *testing.T) {
	tz := DateTimeTZ{
		DateTime: DateTime{
			Date: Date{Year: 2024, Month: 3, Day: 14},
			Time: Time{Hour: 9, Minute: 26, Second: 53, Nanos: 589793},
		},
		Zone: "America/New_York",
	}
	encoded := EncodeDateTimeTZ(tz)
	if len(encoded) != 13+len("America/New_York") {
		t.Fatalf("unexpected encoded length %d", len(encoded))
	}
	back, err := DecodeDateTimeTZ(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if back != tz {
		t.Fatalf("round trip mismatch: %+v != %+v", back, tz)
	}
}

func TestFixedSizeConsistentWithValuetype(t *testing.T) {
	if got := EncodeBoolean(true); len(got) != 1 {
		t.Fatalf("boolean payload must be 1 byte, got %d", len(got))
	}
	if got := EncodeDate(Date{Year: 2024, Month: 1, Day: 1}); len(got) != 6 {
		t.Fatalf("date payload must be 6 bytes, got %d", len(got))
	}
	if got := EncodeTime(Time{Hour: 1, Minute: 2, Second: 3, Nanos: 4}); len(got) != 7 {
		t.Fatalf("time payload must be 7 bytes, got %d", len(got))
	}
	if got := EncodeDateTime(DateTime{}); len(got) != 13 {
		t.Fatalf("date_time payload must be 13 bytes, got %d", len(got))
	}
}
