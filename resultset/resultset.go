// Package resultset implements the result-set producer: it drives a
// driver cursor column by column and encodes values into caller-
// supplied buffers using the on-wire framing of the connector
// substrate, resuming correctly across any sequence of buffer sizes.
package resultset

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/metrics"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
	"github.com/ansilo-data/connector-core/wire"
)

// Producer streams a cursor's rows into caller buffers. It owns the
// cursor, the resolved column type vector, the current row/column
// position, any in-flight stream reader for the column being emitted,
// the minimum-bytes hint recorded the last time a buffer proved too
// small, and a scratch buffer for stream chunk reads.
type Producer struct {
	cursor      stmt.Cursor
	mapping     mapping.Mapping
	columnTypes []valuetype.Type

	rowActive bool
	col       int

	streamTouched bool
	streamReader  io.Reader

	sizeHint int
	scratch  [wire.MaxChunkLen]byte
}

// New resolves every column's semantic type via mapping.ColumnType and
// returns a Producer ready to be drained with Fill. Call New again
// after a statement is re-executed; a Producer is destroyed once
// drained or once its owning prepared query re-executes.
func New(cur stmt.Cursor, m mapping.Mapping) (*Producer, error) {
	n := cur.ColumnCount()
	types := make([]valuetype.Type, n)
	for i := 0; i < n; i++ {
		t, err := m.ColumnType(cur, i)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return &Producer{cursor: cur, mapping: m, columnTypes: types}, nil
}

// Close releases the underlying cursor. Safe to call multiple times.
func (p *Producer) Close() error {
	return p.cursor.Close()
}

// Fill writes as much of the result set as fits into buf, in row-major
// order, resuming exactly where the previous call left off. It returns
// 0 once the cursor is exhausted. If buf cannot hold even one
// fixed-size cell or one stream chunk header pair, it returns
// connerr.BufferTooSmallError naming the minimum size that would allow
// progress.
func (p *Producer) Fill(ctx context.Context, buf []byte) (int, error) {
	written := 0

outer:
	for written < len(buf) {
		if !p.rowActive {
			ok, err := p.cursor.Next(ctx)
			if err != nil {
				return written, connerr.NewDriver(err)
			}
			if !ok {
				metrics.BytesWritten.Add(float64(written))
				if err := p.cursor.Close(); err != nil {
					return written, connerr.NewDriver(err)
				}
				return written, nil
			}
			p.rowActive = true
			p.col = 0
			metrics.RowsProduced.Inc()
		}

		if len(p.columnTypes) == 0 {
			p.rowActive = false
			continue
		}

		for p.col < len(p.columnTypes) {
			remaining := len(buf) - written
			if remaining <= 0 {
				break outer
			}
			typ := p.columnTypes[p.col]

			if !valuetype.IsStream(typ) {
				size, _ := valuetype.FixedSize(typ)
				if size > remaining {
					p.sizeHint = size
					break outer
				}
				n, err := p.encodeFixedColumn(typ, buf[written:written+size])
				if err != nil {
					return written, err
				}
				written += n
				p.sizeHint = 0
				p.col++
				continue
			}

			n, done, err := p.fillStreamColumn(typ, buf[written:])
			written += n
			if err != nil {
				return written, err
			}
			if !done {
				if n == 0 {
					p.sizeHint = 2
				}
				break outer
			}
			p.sizeHint = 0
			p.col++
		}

		if p.col >= len(p.columnTypes) {
			p.rowActive = false
		}
	}

	if written == 0 && p.sizeHint > 0 {
		return 0, connerr.NewBufferTooSmall(p.sizeHint)
	}
	metrics.BytesWritten.Add(float64(written))
	return written, nil
}

// encodeFixedColumn writes a fixed-size cell (presence byte + payload)
// into buf, which is guaranteed by the caller to be exactly the type's
// FixedSize in length.
func (p *Producer) encodeFixedColumn(typ valuetype.Type, buf []byte) (int, error) {
	col := p.col
	writeNull := func() (int, error) {
		buf[0] = 0
		return 1, nil
	}
	writePresent := func(payload []byte) (int, error) {
		buf[0] = 1
		copy(buf[1:], payload)
		return 1 + len(payload), nil
	}

	switch typ {
	case valuetype.Null:
		return writeNull()
	case valuetype.Int8:
		v, err := p.mapping.ReadInt8(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeInt8(*v))
	case valuetype.Uint8:
		v, err := p.mapping.ReadUint8(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeUint8(*v))
	case valuetype.Boolean:
		v, err := p.mapping.ReadBoolean(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeBoolean(*v))
	case valuetype.Int16:
		v, err := p.mapping.ReadInt16(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeInt16(*v))
	case valuetype.Uint16:
		v, err := p.mapping.ReadUint16(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeUint16(*v))
	case valuetype.Int32:
		v, err := p.mapping.ReadInt32(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeInt32(*v))
	case valuetype.Uint32:
		v, err := p.mapping.ReadUint32(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeUint32(*v))
	case valuetype.Float32:
		v, err := p.mapping.ReadFloat32(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeFloat32(*v))
	case valuetype.Int64:
		v, err := p.mapping.ReadInt64(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeInt64(*v))
	case valuetype.Uint64:
		v, err := p.mapping.ReadUint64(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeUint64(*v))
	case valuetype.Float64:
		v, err := p.mapping.ReadFloat64(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeFloat64(*v))
	case valuetype.Date:
		v, err := p.mapping.ReadDate(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeDate(*v))
	case valuetype.Time:
		v, err := p.mapping.ReadTime(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeTime(*v))
	case valuetype.DateTime:
		v, err := p.mapping.ReadDateTime(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeDateTime(*v))
	case valuetype.UUID:
		v, err := p.mapping.ReadUUID(p.cursor, col)
		if err != nil || v == nil {
			return writeNullOrErr(err, writeNull)
		}
		return writePresent(wire.EncodeUUID(*v))
	}
	return 0, connerr.NewUnsupportedType(p.cursor.ColumnName(col), p.cursor.ColumnNativeType(col))
}

func writeNullOrErr(err error, writeNull func() (int, error)) (int, error) {
	if err != nil {
		return 0, err
	}
	return writeNull()
}

// fillStreamColumn emits the current stream column into buf, resuming
// an in-flight stream if one is open. done is true once the column's
// terminating chunk (or a null presence byte) has been written.
func (p *Producer) fillStreamColumn(typ valuetype.Type, buf []byte) (int, bool, error) {
	written := 0
	if !p.streamTouched {
		if len(buf) < 1 {
			return 0, false, nil
		}
		reader, isNull, err := p.openStream(typ)
		if err != nil {
			return 0, false, err
		}
		if isNull {
			buf[0] = 0
			return 1, true, nil
		}
		buf[0] = 1
		written = 1
		p.streamTouched = true
		p.streamReader = reader
	}

	n, done, err := p.drainChunks(buf[written:])
	return written + n, done, err
}

// drainChunks writes as many complete chunks as fit into buf, stopping
// when fewer than 2 bytes remain (not enough room for a chunk header
// plus at least one payload byte).
func (p *Producer) drainChunks(buf []byte) (int, bool, error) {
	written := 0
	for {
		remaining := len(buf) - written
		if remaining < 2 {
			return written, false, nil
		}
		toRead := remaining - 1
		if toRead > wire.MaxChunkLen {
			toRead = wire.MaxChunkLen
		}
		n, err := p.streamReader.Read(p.scratch[:toRead])
		if err != nil && err != io.EOF {
			return written, false, connerr.NewDriver(err)
		}
		if n == 0 {
			buf[written] = 0
			written++
			p.streamReader = nil
			p.streamTouched = false
			return written, true, nil
		}
		buf[written] = byte(n)
		written++
		copy(buf[written:], p.scratch[:n])
		written += n
	}
}

// openStream resolves the current column's value to an io.Reader over
// its full stream payload, or reports SQL NULL.
func (p *Producer) openStream(typ valuetype.Type) (io.Reader, bool, error) {
	col := p.col
	switch typ {
	case valuetype.UTF8String:
		v, err := p.mapping.ReadUTF8String(p.cursor, col)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, true, nil
		}
		return strings.NewReader(*v), false, nil
	case valuetype.JSON:
		v, err := p.mapping.ReadJSON(p.cursor, col)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, true, nil
		}
		return bytes.NewReader(*v), false, nil
	case valuetype.Binary:
		v, err := p.mapping.ReadBinary(p.cursor, col)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, true, nil
		}
		return bytes.NewReader(*v), false, nil
	case valuetype.Decimal:
		v, err := p.mapping.ReadDecimal(p.cursor, col)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, true, nil
		}
		return bytes.NewReader(wire.EncodeDecimal(*v)), false, nil
	case valuetype.DateTimeWithTZ:
		v, err := p.mapping.ReadDateTimeWithTZ(p.cursor, col)
		if err != nil {
			return nil, false, err
		}
		if v == nil {
			return nil, true, nil
		}
		return bytes.NewReader(wire.EncodeDateTimeTZ(*v)), false, nil
	}
	return nil, false, connerr.NewUnsupportedType(p.cursor.ColumnName(col), p.cursor.ColumnNativeType(col))
}
