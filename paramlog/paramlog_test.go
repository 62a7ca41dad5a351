package paramlog

import (
	"strings"
	"testing"
)

func TestRecordAndReset(t *testing.T) {
	var l Log
	l.Record(1, "BindInt32", "123")
	l.RecordStream(2, "BindUTF8String")

	entries := l.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Value != "<stream>" {
		t.Errorf("stream bind must log type name only, got %q", entries[1].Value)
	}

	l.Reset()
	if len(l.Entries()) != 0 {
		t.Fatalf("expected empty log after Reset, got %d entries", len(l.Entries()))
	}
}

func TestJSONRendering(t *testing.T) {
	var l Log
	l.Record(1, "BindInt32", "123")
	out := l.JSON()
	if !strings.Contains(out, `"op":"BindInt32"`) {
		t.Fatalf("expected op field in JSON output, got %s", out)
	}
	if !strings.Contains(out, `"index":1`) {
		t.Fatalf("expected index field in JSON output, got %s", out)
	}
}
