// Package paramlog implements the append-only parameter-bind log named
// in the prepared-query writer's glue: every successful bind is
// captured for tracing as (index, bind-op name, opaque value), cleared
// on restart, and queryable as either a typed slice or a JSON string.
// Rendering uses zerolog's event builder as the structured-logging
// surface for this one hot path, kept separate from the module-wide
// logrus logger.
package paramlog

import (
	"github.com/rs/zerolog"
)

// Entry is one logged bind.
type Entry struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

// Log accumulates Entry values for one prepared query's current
// execution. It is not safe for concurrent use, matching the
// single-threaded-per-prepared-query concurrency model.
type Log struct {
	entries []Entry
}

// Record appends a bind. Streaming values must be logged by their type
// name (op), never by their bytes — callers pass a short rendering such
// as a stringified scalar or "<stream>" for streamed payloads.
func (l *Log) Record(index int, op, value string) {
	l.entries = append(l.entries, Entry{Index: index, Op: op, Value: value})
}

// RecordStream logs a streaming bind by type name only.
func (l *Log) RecordStream(index int, op string) {
	l.Record(index, op, "<stream>")
}

// Reset clears the log. Called on restart.
func (l *Log) Reset() {
	l.entries = l.entries[:0]
}

// Entries returns the typed log, in bind order.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// JSON renders the log as a JSON object (a "params" array of entries)
// using zerolog's zero-allocation event builder, writing through a
// small in-memory io.Writer since zerolog events are designed to be
// emitted rather than stringified directly.
func (l *Log) JSON() string {
	arr := zerolog.Arr()
	for _, e := range l.entries {
		arr = arr.Dict(zerolog.Dict().
			Int("index", e.Index).
			Str("op", e.Op).
			Str("value", e.Value))
	}

	var buf []byte
	w := bufWriter{buf: &buf}
	logger := zerolog.New(w)
	logger.Log().Array("params", arr).Send()
	return string(buf)
}

type bufWriter struct{ buf *[]byte }

func (w bufWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
