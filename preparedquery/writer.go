// Package preparedquery implements the prepared-query state machine: it
// accepts streamed parameter bytes, reassembles values across partial
// writes, binds them through a mapping.Mapping, and coordinates
// execute/batch/restart against a stmt.Handle.
package preparedquery

import (
	"context"
	"fmt"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/descriptor"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/metrics"
	"github.com/ansilo-data/connector-core/paramlog"
	"github.com/ansilo-data/connector-core/resultset"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
	"github.com/ansilo-data/connector-core/wire"
)

// PreparedQuery wraps one driver statement handle. State: Ready ->
// ParamsInProgress -> ParamsComplete -> Executed, with self-loops on
// write; Executed -> Ready via Restart. A second path branches at
// ParamsComplete to Batched, which loops via AddBatch and terminates
// only via ExecuteModify.
type PreparedQuery struct {
	handle  stmt.Handle
	mapping mapping.Mapping

	dynamic   []descriptor.Param
	constants []descriptor.Param

	cursorIdx int
	pending   pendingValue

	boundConstants bool
	batched        bool

	producer *resultset.Producer

	log paramlog.Log
}

// New builds a PreparedQuery bound to handle, using m to bind and read
// values and params to define the parameter-feed order (dynamic
// entries, in descriptor order) and the constant entries (bound once on
// first execute).
func New(h stmt.Handle, m mapping.Mapping, params []descriptor.Param) (*PreparedQuery, error) {
	if err := descriptor.Validate(params); err != nil {
		return nil, err
	}
	dynamic, constants := descriptor.Split(params)
	return &PreparedQuery{handle: h, mapping: m, dynamic: dynamic, constants: constants}, nil
}

// Write consumes as many parameter bytes as possible from p and returns
// the number consumed. It tolerates buffers of any size, including
// one-byte buffers, without losing data or double-binding.
func (q *PreparedQuery) Write(ctx context.Context, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if q.cursorIdx >= len(q.dynamic) {
			return total, connerr.ErrUnexpectedData
		}
		desc := q.dynamic[q.cursorIdx]
		n, done, err := q.pending.consume(p[total:], desc)
		total += n
		if err != nil {
			return total, err
		}
		if done {
			if bindErr := q.finishValue(ctx, desc, q.pending); bindErr != nil {
				return total, bindErr
			}
			q.cursorIdx++
			q.pending = pendingValue{}
			continue
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Restart resets the parameter cursor and clears the logged-parameter
// list. Constants remain bound.
func (q *PreparedQuery) Restart() {
	q.cursorIdx = 0
	q.pending = pendingValue{}
	q.log.Reset()
}

// LoggedParams returns the typed parameter-bind log for the current
// execution.
func (q *PreparedQuery) LoggedParams() []paramlog.Entry { return q.log.Entries() }

// LoggedParamsJSON renders the parameter-bind log as a JSON string.
func (q *PreparedQuery) LoggedParamsJSON() string { return q.log.JSON() }

func (q *PreparedQuery) ensureConstantsBound(ctx context.Context) error {
	if q.boundConstants {
		return nil
	}
	for _, desc := range q.constants {
		var pv pendingValue
		remaining := desc.Mode.Bytes()
		for {
			n, done, err := pv.consume(remaining, desc)
			remaining = remaining[n:]
			if err != nil {
				return err
			}
			if done {
				break
			}
			if n == 0 {
				return fmt.Errorf("preparedquery: constant parameter %d has incomplete encoded bytes", desc.Index)
			}
		}
		if err := q.finishValue(ctx, desc, pv); err != nil {
			return err
		}
	}
	q.boundConstants = true
	return nil
}

// ExecuteQuery requires all dynamic parameters to be satisfied, binds
// constants on first use, executes the statement, and returns a fresh
// result-set producer around its cursor. Disallowed on a batched query.
func (q *PreparedQuery) ExecuteQuery(ctx context.Context) (*resultset.Producer, error) {
	if q.batched {
		return nil, connerr.ErrResultSetOnBatch
	}
	if q.cursorIdx != len(q.dynamic) {
		return nil, connerr.ErrIncompleteParameters
	}
	if err := q.ensureConstantsBound(ctx); err != nil {
		return nil, err
	}
	q.closeProducer()
	cur, err := q.handle.ExecuteQuery(ctx)
	if err != nil {
		return nil, connerr.NewDriver(err)
	}
	p, err := resultset.New(cur, q.mapping)
	if err != nil {
		return nil, err
	}
	q.producer = p
	return p, nil
}

// closeProducer destroys the in-flight result-set producer, if any;
// re-executing the statement invalidates its cursor.
func (q *PreparedQuery) closeProducer() {
	if q.producer != nil {
		q.producer.Close()
		q.producer = nil
	}
}

// Close releases the in-flight result-set producer, if any, and the
// underlying statement handle.
func (q *PreparedQuery) Close() error {
	q.closeProducer()
	return q.handle.Close()
}

// ExecuteModify requires all dynamic parameters to be satisfied, binds
// constants on first use, and executes the statement as DML. For a
// batched query it runs every staged batch entry and returns the sum of
// the per-batch row counts; since AddBatch already resets the parameter
// cursor after staging each entry, the completeness check only applies
// to the non-batched path — flushing a batch has nothing new to bind.
func (q *PreparedQuery) ExecuteModify(ctx context.Context) (int64, error) {
	if q.batched {
		if err := q.ensureConstantsBound(ctx); err != nil {
			return 0, err
		}
		n, err := q.handle.ExecuteBatch(ctx)
		if err != nil {
			return 0, connerr.NewDriver(err)
		}
		q.batched = false
		return n, nil
	}
	if q.cursorIdx != len(q.dynamic) {
		return 0, connerr.ErrIncompleteParameters
	}
	if err := q.ensureConstantsBound(ctx); err != nil {
		return 0, err
	}
	q.closeProducer()
	n, err := q.handle.ExecuteModify(ctx)
	if err != nil {
		return 0, connerr.NewDriver(err)
	}
	return n, nil
}

// AddBatch requires all dynamic parameters to be satisfied, stages the
// current parameter values into the driver's batch, and resets the
// parameter cursor so further writes feed the next batch entry.
func (q *PreparedQuery) AddBatch(ctx context.Context) error {
	if q.cursorIdx != len(q.dynamic) {
		return connerr.ErrIncompleteParameters
	}
	if err := q.ensureConstantsBound(ctx); err != nil {
		return err
	}
	if err := q.handle.AddBatch(ctx); err != nil {
		return connerr.NewDriver(err)
	}
	q.batched = true
	q.cursorIdx = 0
	q.pending = pendingValue{}
	metrics.BatchesAdded.Inc()
	return nil
}

// pendingValue accumulates the bytes of one in-progress dynamic or
// constant parameter across any number of partial Write calls.
type pendingValue struct {
	presenceKnown bool
	isNull        bool

	payloadLen int
	scratch    []byte

	streamAwaitingLength bool
	streamPending        int
}

// consume advances through buf, returning how many bytes it used and
// whether the value is now fully decoded (done). It never blocks: if
// buf runs out mid-value, it returns with done=false so the caller can
// supply more bytes on a later call.
func (pv *pendingValue) consume(buf []byte, desc descriptor.Param) (consumed int, done bool, err error) {
	i := 0
	for i < len(buf) {
		if !pv.presenceKnown {
			b := buf[i]
			i++
			pv.presenceKnown = true
			if b == 0 {
				pv.isNull = true
				return i, true, nil
			}
			if b != 1 {
				return i, false, connerr.NewEncoding(fmt.Sprintf("param[%d] presence byte", desc.Index),
					fmt.Errorf("invalid presence byte 0x%02x", b))
			}
			pv.isNull = false
			if valuetype.IsStream(desc.Type) {
				pv.streamAwaitingLength = true
				pv.streamPending = -1
				pv.scratch = pv.scratch[:0]
			} else {
				size, _ := valuetype.FixedSize(desc.Type)
				pv.payloadLen = size - 1
				pv.scratch = pv.scratch[:0]
			}
			continue
		}

		if !valuetype.IsStream(desc.Type) {
			need := pv.payloadLen - len(pv.scratch)
			avail := len(buf) - i
			take := min(need, avail)
			pv.scratch = append(pv.scratch, buf[i:i+take]...)
			i += take
			if len(pv.scratch) == pv.payloadLen {
				return i, true, nil
			}
			return i, false, nil
		}

		if pv.streamAwaitingLength {
			length := buf[i]
			i++
			pv.streamAwaitingLength = false
			if length == 0 {
				return i, true, nil
			}
			pv.streamPending = int(length)
			continue
		}

		avail := len(buf) - i
		take := min(pv.streamPending, avail)
		pv.scratch = append(pv.scratch, buf[i:i+take]...)
		i += take
		pv.streamPending -= take
		if pv.streamPending == 0 {
			pv.streamAwaitingLength = true
			continue
		}
		return i, false, nil
	}
	return i, false, nil
}

// finishValue binds a fully decoded pendingValue and records it in the
// parameter-bind log.
func (q *PreparedQuery) finishValue(ctx context.Context, desc descriptor.Param, pv pendingValue) error {
	if pv.isNull {
		if err := q.mapping.BindNull(ctx, q.handle, desc.Index, desc.Type); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(desc.Index, "BindNull", "<null>")
		metrics.ParamsBound.Inc()
		return nil
	}
	if err := q.bindValue(ctx, desc, pv.scratch); err != nil {
		return err
	}
	metrics.ParamsBound.Inc()
	return nil
}

func field(desc descriptor.Param) string {
	return fmt.Sprintf("param[%d]", desc.Index)
}

// bindValue decodes payload per desc.Type and binds it through the
// mapping, logging the bind op name and a short rendering of the value
// (or "<stream>" for streamed payloads, never the raw bytes).
func (q *PreparedQuery) bindValue(ctx context.Context, desc descriptor.Param, payload []byte) error {
	idx := desc.Index
	switch desc.Type {
	case valuetype.Int8:
		v := wire.DecodeInt8(payload)
		if err := q.mapping.BindInt8(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindInt8", fmt.Sprint(v))
	case valuetype.Uint8:
		v := wire.DecodeUint8(payload)
		if err := q.mapping.BindUint8(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindUint8", fmt.Sprint(v))
	case valuetype.Boolean:
		v := wire.DecodeBoolean(payload)
		if err := q.mapping.BindBoolean(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindBoolean", fmt.Sprint(v))
	case valuetype.Int16:
		v := wire.DecodeInt16(payload)
		if err := q.mapping.BindInt16(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindInt16", fmt.Sprint(v))
	case valuetype.Uint16:
		v := wire.DecodeUint16(payload)
		if err := q.mapping.BindUint16(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindUint16", fmt.Sprint(v))
	case valuetype.Int32:
		v := wire.DecodeInt32(payload)
		if err := q.mapping.BindInt32(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindInt32", fmt.Sprint(v))
	case valuetype.Uint32:
		v := wire.DecodeUint32(payload)
		if err := q.mapping.BindUint32(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindUint32", fmt.Sprint(v))
	case valuetype.Int64:
		v := wire.DecodeInt64(payload)
		if err := q.mapping.BindInt64(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindInt64", fmt.Sprint(v))
	case valuetype.Uint64:
		v := wire.DecodeUint64(payload)
		if err := q.mapping.BindUint64(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindUint64", fmt.Sprint(v))
	case valuetype.Float32:
		v := wire.DecodeFloat32(payload)
		if err := q.mapping.BindFloat32(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindFloat32", fmt.Sprint(v))
	case valuetype.Float64:
		v := wire.DecodeFloat64(payload)
		if err := q.mapping.BindFloat64(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindFloat64", fmt.Sprint(v))
	case valuetype.Date:
		v := wire.DecodeDate(payload)
		if err := wire.ValidateDate(v); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindDate(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindDate", fmt.Sprintf("%04d-%02d-%02d", v.Year, v.Month, v.Day))
	case valuetype.Time:
		v := wire.DecodeTime(payload)
		if err := wire.ValidateTime(v); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindTime(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindTime", fmt.Sprintf("%02d:%02d:%02d.%09d", v.Hour, v.Minute, v.Second, v.Nanos))
	case valuetype.DateTime:
		v := wire.DecodeDateTime(payload)
		if err := wire.ValidateDate(v.Date); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := wire.ValidateTime(v.Time); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindDateTime(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindDateTime", fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%09d",
			v.Date.Year, v.Date.Month, v.Date.Day, v.Time.Hour, v.Time.Minute, v.Time.Second, v.Time.Nanos))
	case valuetype.UUID:
		v, err := wire.DecodeUUID(payload)
		if err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindUUID(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.Record(idx, "BindUUID", v.String())
	case valuetype.Decimal:
		v, err := wire.DecodeDecimal(payload)
		if err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindDecimal(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.RecordStream(idx, "BindDecimal")
	case valuetype.UTF8String:
		v, err := wire.DecodeUTF8String(payload)
		if err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindUTF8String(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.RecordStream(idx, "BindUTF8String")
	case valuetype.JSON:
		if _, err := wire.DecodeUTF8String(payload); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindJSON(ctx, q.handle, idx, payload); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.RecordStream(idx, "BindJSON")
	case valuetype.Binary:
		if err := q.mapping.BindBinary(ctx, q.handle, idx, payload); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.RecordStream(idx, "BindBinary")
	case valuetype.DateTimeWithTZ:
		v, err := wire.DecodeDateTimeTZ(payload)
		if err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := wire.ValidateDate(v.DateTime.Date); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := wire.ValidateTime(v.DateTime.Time); err != nil {
			return connerr.NewEncoding(field(desc), err)
		}
		if err := q.mapping.BindDateTimeWithTZ(ctx, q.handle, idx, v); err != nil {
			return connerr.NewDriver(err)
		}
		q.log.RecordStream(idx, "BindDateTimeWithTZ")
	default:
		return connerr.NewUnsupportedType(field(desc), desc.Type.String())
	}
	return nil
}
