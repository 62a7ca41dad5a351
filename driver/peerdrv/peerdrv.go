// Package peerdrv implements the peer-node RPC driver shape: a remote
// connector instance reached over gRPC. Rather than hand-writing a
// protoc-generated stub package, it invokes well-known method names
// directly through grpc.ClientConnInterface.Invoke, carrying this
// connector's own wire framing opaquely inside a single reused message
// type, google.golang.org/protobuf's wrapperspb.BytesValue. The peer is
// assumed to be another instance of this same substrate, so the bytes
// it returns use the identical presence-byte/fixed/stream framing the
// result-set producer and prepared-query writer already speak.
package peerdrv

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
	"github.com/ansilo-data/connector-core/wire"
)

const (
	methodPrepare      = "/ansilo.connector.peer.v1.Peer/Prepare"
	methodBind         = "/ansilo.connector.peer.v1.Peer/Bind"
	methodExecuteQuery = "/ansilo.connector.peer.v1.Peer/ExecuteQuery"
	methodExecute      = "/ansilo.connector.peer.v1.Peer/ExecuteModify"
	methodAddBatch     = "/ansilo.connector.peer.v1.Peer/AddBatch"
	methodExecuteBatch = "/ansilo.connector.peer.v1.Peer/ExecuteBatch"
	methodClose        = "/ansilo.connector.peer.v1.Peer/Close"
)

// Handle is a prepared statement living on a remote peer, identified by
// an opaque token the peer assigned on Prepare.
type Handle struct {
	cc    grpc.ClientConnInterface
	token string
}

// Prepare asks the peer to prepare query and returns a Handle carrying
// whatever opaque statement token it assigns.
func Prepare(ctx context.Context, cc grpc.ClientConnInterface, query string) (stmt.Handle, error) {
	req := wrapperspb.String(query)
	resp := &wrapperspb.StringValue{}
	if err := cc.Invoke(ctx, methodPrepare, req, resp); err != nil {
		return nil, connerr.NewDriver(err)
	}
	return &Handle{cc: cc, token: resp.GetValue()}, nil
}

// Bind sends one wire-framed parameter (presence byte plus payload,
// exactly as produced by this package's Mapping) to the peer.
func (h *Handle) Bind(ctx context.Context, index int, value any) error {
	framed, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("peerdrv: expected a wire-framed []byte parameter, got %T", value)
	}
	return h.invokeBind(ctx, index, framed)
}

func (h *Handle) BindNull(ctx context.Context, index int) error {
	return h.invokeBind(ctx, index, []byte{0})
}

func (h *Handle) invokeBind(ctx context.Context, index int, framed []byte) error {
	payload := append(wire.EncodeUint32(uint32(index)), framed...)
	req := &wrapperspb.BytesValue{Value: append([]byte(h.token+"\x00"), payload...)}
	if err := h.cc.Invoke(ctx, methodBind, req, &emptypb.Empty{}); err != nil {
		return connerr.NewDriver(err)
	}
	return nil
}

func (h *Handle) ExecuteQuery(ctx context.Context) (stmt.Cursor, error) {
	req := wrapperspb.String(h.token)
	resp := &wrapperspb.BytesValue{}
	if err := h.cc.Invoke(ctx, methodExecuteQuery, req, resp); err != nil {
		return nil, connerr.NewDriver(err)
	}
	return newCursor(resp.GetValue())
}

func (h *Handle) ExecuteModify(ctx context.Context) (int64, error) {
	req := wrapperspb.String(h.token)
	resp := &wrapperspb.Int64Value{}
	if err := h.cc.Invoke(ctx, methodExecute, req, resp); err != nil {
		return 0, connerr.NewDriver(err)
	}
	return resp.GetValue(), nil
}

func (h *Handle) AddBatch(ctx context.Context) error {
	req := wrapperspb.String(h.token)
	if err := h.cc.Invoke(ctx, methodAddBatch, req, &emptypb.Empty{}); err != nil {
		return connerr.NewDriver(err)
	}
	return nil
}

func (h *Handle) ExecuteBatch(ctx context.Context) (int64, error) {
	req := wrapperspb.String(h.token)
	resp := &wrapperspb.Int64Value{}
	if err := h.cc.Invoke(ctx, methodExecuteBatch, req, resp); err != nil {
		return 0, connerr.NewDriver(err)
	}
	return resp.GetValue(), nil
}

func (h *Handle) Close() error {
	req := wrapperspb.String(h.token)
	return h.cc.Invoke(context.Background(), methodClose, req, &emptypb.Empty{})
}

// Cursor decodes the concatenated wire-framed response a peer returns
// for ExecuteQuery: one byte of column count, one value-type tag per
// column, then rows in the same row-major framing resultset.Producer.Fill
// emits. The whole response is buffered in memory, a simplification
// against the producer's incremental-fill design: a peer result set is
// not expected to be arbitrarily large relative to the bridging process.
type Cursor struct {
	types  []valuetype.Type
	names  []string
	data   []byte
	pos    int
	values []any
}

func newCursor(data []byte) (*Cursor, error) {
	if len(data) < 1 {
		return nil, connerr.NewEncoding("peer result header", fmt.Errorf("empty response"))
	}
	n := int(data[0])
	if len(data) < 1+n {
		return nil, connerr.NewEncoding("peer result header", fmt.Errorf("truncated column-type header"))
	}
	types := make([]valuetype.Type, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		t, ok := valuetype.TypeOf(data[1+i])
		if !ok {
			return nil, connerr.NewEncoding("peer result header", fmt.Errorf("unknown value-type tag %d", data[1+i]))
		}
		types[i] = t
		names[i] = fmt.Sprintf("col%d", i)
	}
	return &Cursor{types: types, names: names, data: data, pos: 1 + n, values: make([]any, n)}, nil
}

func (c *Cursor) Next(ctx context.Context) (bool, error) {
	if c.pos >= len(c.data) {
		return false, nil
	}
	for i, t := range c.types {
		v, n, err := decodeCell(c.data[c.pos:], t)
		if err != nil {
			return false, err
		}
		c.values[i] = v
		c.pos += n
	}
	return true, nil
}

func (c *Cursor) ColumnCount() int { return len(c.types) }
func (c *Cursor) ColumnName(i int) string { return c.names[i] }
func (c *Cursor) Value(i int) (any, error) { return c.values[i], nil }
func (c *Cursor) Close() error { return nil }

// ColumnNativeType returns the value-type registry name. peerdrv's
// Mapping.ColumnType does not parse this name: it reads the type the
// peer already classified directly from the Cursor.
func (c *Cursor) ColumnNativeType(i int) string { return c.types[i].String() }

// decodeCell reads one cell (presence byte plus fixed or stream payload)
// starting at buf[0] and returns the decoded native value, matching the
// same per-type dispatch mapping.Base's Read methods expect from a
// database/sql-backed cursor.
func decodeCell(buf []byte, t valuetype.Type) (any, int, error) {
	if len(buf) < 1 {
		return nil, 0, connerr.NewEncoding("peer row", fmt.Errorf("truncated cell"))
	}
	if buf[0] == 0 {
		return nil, 1, nil
	}
	if !valuetype.IsStream(t) {
		size, _ := valuetype.FixedSize(t)
		payloadLen := size - 1
		if len(buf) < 1+payloadLen {
			return nil, 0, connerr.NewEncoding("peer row", fmt.Errorf("truncated fixed cell"))
		}
		payload := buf[1 : 1+payloadLen]
		v, err := decodeFixed(payload, t)
		return v, 1 + payloadLen, err
	}

	var payload []byte
	pos := 1
	for {
		if pos >= len(buf) {
			return nil, 0, connerr.NewEncoding("peer row", fmt.Errorf("truncated stream cell"))
		}
		length := int(buf[pos])
		pos++
		if length == 0 {
			break
		}
		if pos+length > len(buf) {
			return nil, 0, connerr.NewEncoding("peer row", fmt.Errorf("truncated stream chunk"))
		}
		payload = append(payload, buf[pos:pos+length]...)
		pos += length
	}
	v, err := decodeStream(payload, t)
	return v, pos, err
}

func decodeFixed(payload []byte, t valuetype.Type) (any, error) {
	switch t {
	case valuetype.Int8:
		return wire.DecodeInt8(payload), nil
	case valuetype.Uint8:
		return wire.DecodeUint8(payload), nil
	case valuetype.Boolean:
		return wire.DecodeBoolean(payload), nil
	case valuetype.Int16:
		return wire.DecodeInt16(payload), nil
	case valuetype.Uint16:
		return wire.DecodeUint16(payload), nil
	case valuetype.Int32:
		return wire.DecodeInt32(payload), nil
	case valuetype.Uint32:
		return wire.DecodeUint32(payload), nil
	case valuetype.Int64:
		return wire.DecodeInt64(payload), nil
	case valuetype.Uint64:
		return wire.DecodeUint64(payload), nil
	case valuetype.Float32:
		return wire.DecodeFloat32(payload), nil
	case valuetype.Float64:
		return wire.DecodeFloat64(payload), nil
	case valuetype.Date:
		d := wire.DecodeDate(payload)
		return dateTimeToTime(wire.DateTime{Date: d}), nil
	case valuetype.Time:
		tm := wire.DecodeTime(payload)
		return dateTimeToTime(wire.DateTime{Time: tm}), nil
	case valuetype.DateTime:
		return dateTimeToTime(wire.DecodeDateTime(payload)), nil
	case valuetype.UUID:
		return wire.DecodeUUID(payload)
	}
	return nil, connerr.NewUnsupportedType("peer row", t.String())
}

func decodeStream(payload []byte, t valuetype.Type) (any, error) {
	switch t {
	case valuetype.UTF8String, valuetype.JSON:
		return wire.DecodeUTF8String(payload)
	case valuetype.Binary:
		return payload, nil
	case valuetype.Decimal:
		return wire.DecodeDecimal(payload)
	case valuetype.DateTimeWithTZ:
		tz, err := wire.DecodeDateTimeTZ(payload)
		if err != nil {
			return nil, err
		}
		return tz.ToTime(), nil
	}
	return nil, connerr.NewUnsupportedType("peer row", t.String())
}

func dateTimeToTime(dt wire.DateTime) any {
	return wire.DateTimeTZ{DateTime: dt, Zone: "UTC"}.ToTime()
}

// Mapping is the peerdrv Mapping implementation: reads delegate to
// mapping.Base (decodeCell already produced the same native Go values a
// database/sql-backed cursor would), and ColumnType asks the Cursor
// directly for the type the peer already classified.
type Mapping struct {
	mapping.Base
}

func (Mapping) ColumnType(cur stmt.Cursor, col int) (valuetype.Type, error) {
	pc, ok := cur.(*Cursor)
	if !ok {
		return 0, fmt.Errorf("peerdrv: ColumnType called with a non-peer cursor")
	}
	return pc.types[col], nil
}

// Every Bind override below re-frames the value with this connector's
// own wire encoding (the same bytes the prepared-query writer would have
// decoded out of a local caller's stream) before handing it to
// Handle.Bind, which is what lets a peer's Bind RPC carry parameters
// opaquely instead of needing its own typed protobuf fields.

func framedFixed(payload []byte) []byte {
	return append([]byte{1}, payload...)
}

func framedStream(payload []byte) []byte {
	out := []byte{1}
	for len(payload) > 0 {
		n := len(payload)
		if n > wire.MaxChunkLen {
			n = wire.MaxChunkLen
		}
		out = append(out, byte(n))
		out = append(out, payload[:n]...)
		payload = payload[n:]
	}
	return append(out, 0)
}

func (Mapping) BindInt8(ctx context.Context, h stmt.Handle, index int, v int8) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeInt8(v)))
}
func (Mapping) BindUint8(ctx context.Context, h stmt.Handle, index int, v uint8) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeUint8(v)))
}
func (Mapping) BindBoolean(ctx context.Context, h stmt.Handle, index int, v bool) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeBoolean(v)))
}
func (Mapping) BindInt16(ctx context.Context, h stmt.Handle, index int, v int16) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeInt16(v)))
}
func (Mapping) BindUint16(ctx context.Context, h stmt.Handle, index int, v uint16) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeUint16(v)))
}
func (Mapping) BindInt32(ctx context.Context, h stmt.Handle, index int, v int32) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeInt32(v)))
}
func (Mapping) BindUint32(ctx context.Context, h stmt.Handle, index int, v uint32) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeUint32(v)))
}
func (Mapping) BindInt64(ctx context.Context, h stmt.Handle, index int, v int64) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeInt64(v)))
}
func (Mapping) BindUint64(ctx context.Context, h stmt.Handle, index int, v uint64) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeUint64(v)))
}
func (Mapping) BindFloat32(ctx context.Context, h stmt.Handle, index int, v float32) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeFloat32(v)))
}
func (Mapping) BindFloat64(ctx context.Context, h stmt.Handle, index int, v float64) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeFloat64(v)))
}
func (Mapping) BindDate(ctx context.Context, h stmt.Handle, index int, v wire.Date) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeDate(v)))
}
func (Mapping) BindTime(ctx context.Context, h stmt.Handle, index int, v wire.Time) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeTime(v)))
}
func (Mapping) BindDateTime(ctx context.Context, h stmt.Handle, index int, v wire.DateTime) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeDateTime(v)))
}
func (Mapping) BindUUID(ctx context.Context, h stmt.Handle, index int, v uuid.UUID) error {
	return h.Bind(ctx, index, framedFixed(wire.EncodeUUID(v)))
}
func (Mapping) BindDecimal(ctx context.Context, h stmt.Handle, index int, v decimal.Decimal) error {
	return h.Bind(ctx, index, framedStream(wire.EncodeDecimal(v)))
}
func (Mapping) BindUTF8String(ctx context.Context, h stmt.Handle, index int, v string) error {
	return h.Bind(ctx, index, framedStream(wire.EncodeUTF8String(v)))
}
func (Mapping) BindJSON(ctx context.Context, h stmt.Handle, index int, v []byte) error {
	return h.Bind(ctx, index, framedStream(v))
}
func (Mapping) BindBinary(ctx context.Context, h stmt.Handle, index int, v []byte) error {
	return h.Bind(ctx, index, framedStream(v))
}
func (Mapping) BindDateTimeWithTZ(ctx context.Context, h stmt.Handle, index int, v wire.DateTimeTZ) error {
	return h.Bind(ctx, index, framedStream(wire.EncodeDateTimeTZ(v)))
}
