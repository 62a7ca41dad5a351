package preparedquery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansilo-data/connector-core/connerr"
	"github.com/ansilo-data/connector-core/descriptor"
	"github.com/ansilo-data/connector-core/mapping"
	"github.com/ansilo-data/connector-core/stmt"
	"github.com/ansilo-data/connector-core/valuetype"
	"github.com/ansilo-data/connector-core/wire"
)

type bind struct {
	index int
	value any
	null  bool
}

type fakeHandle struct {
	binds        []bind
	batches      int
	queryCursor  stmt.Cursor
	modifyRows   int64
	batchRows    int64
	executeCalls int
}

func (h *fakeHandle) Bind(ctx context.Context, index int, value any) error {
	h.binds = append(h.binds, bind{index: index, value: value})
	return nil
}
func (h *fakeHandle) BindNull(ctx context.Context, index int) error {
	h.binds = append(h.binds, bind{index: index, null: true})
	return nil
}
func (h *fakeHandle) ExecuteQuery(ctx context.Context) (stmt.Cursor, error) {
	h.executeCalls++
	return h.queryCursor, nil
}
func (h *fakeHandle) ExecuteModify(ctx context.Context) (int64, error) {
	h.executeCalls++
	return h.modifyRows, nil
}
func (h *fakeHandle) AddBatch(ctx context.Context) error {
	h.batches++
	return nil
}
func (h *fakeHandle) ExecuteBatch(ctx context.Context) (int64, error) {
	return h.batchRows, nil
}
func (h *fakeHandle) Close() error { return nil }

type closableCursor struct {
	closed int
}

func (c *closableCursor) Next(ctx context.Context) (bool, error) { return false, nil }
func (c *closableCursor) ColumnCount() int { return 0 }
func (c *closableCursor) ColumnName(i int) string { return "" }
func (c *closableCursor) ColumnNativeType(i int) string { return "" }
func (c *closableCursor) Value(i int) (any, error) { return nil, nil }
func (c *closableCursor) Close() error {
	c.closed++
	return nil
}

func TestWriteWholeBufferInt32(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)

	payload := append([]byte{0x01}, wire.EncodeInt32(123)...)
	n, err := q.Write(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	require.Len(t, h.binds, 1)
	assert.Equal(t, int32(123), h.binds[0].value)
}

func TestWriteByteByByte(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)

	payload := append([]byte{0x01}, wire.EncodeInt32(123)...)
	total := 0
	for _, b := range payload {
		n, err := q.Write(context.Background(), []byte{b})
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, len(payload), total)
	require.Len(t, h.binds, 1)
	assert.Equal(t, int32(123), h.binds[0].value)
}

func TestNullParameter(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.UTF8String, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)

	n, err := q.Write(context.Background(), []byte{0x00})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, h.binds, 1)
	assert.True(t, h.binds[0].null)
}

func TestStreamParameterChunked(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.UTF8String, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)

	payload := []byte{0x01, 0x03, 'a', 'b', 'c', 0x03, '1', '2', '3', 0x00}
	n, err := q.Write(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	require.Len(t, h.binds, 1)
	assert.Equal(t, "abc123", h.binds[0].value)
}

func TestStreamParameterByteByByte(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.UTF8String, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)

	// Three chunks reassembled into one bind, fed one byte at a time;
	// every call must consume its single byte.
	payload := []byte{0x01, 0x03, 'a', 'b', 'c', 0x03, 'd', 'e', 'f', 0x01, 'g', 0x00}
	for _, b := range payload {
		n, err := q.Write(context.Background(), []byte{b})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	require.Len(t, h.binds, 1)
	assert.Equal(t, "abcdefg", h.binds[0].value)
}

func TestExecuteBeforeParamsCompleteFails(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	_, err = q.ExecuteModify(context.Background())
	assert.ErrorIs(t, err, connerr.ErrIncompleteParameters)
}

func TestWriteAfterCompleteFails(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	payload := append([]byte{0x01}, wire.EncodeInt32(1)...)
	_, err = q.Write(context.Background(), payload)
	require.NoError(t, err)
	_, err = q.Write(context.Background(), []byte{0x01})
	assert.ErrorIs(t, err, connerr.ErrUnexpectedData)
}

func TestExecuteQueryOnBatchedFails(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	payload := append([]byte{0x01}, wire.EncodeInt32(1)...)
	_, err = q.Write(context.Background(), payload)
	require.NoError(t, err)
	require.NoError(t, q.AddBatch(context.Background()))
	_, err = q.ExecuteQuery(context.Background())
	assert.ErrorIs(t, err, connerr.ErrResultSetOnBatch)
}

func TestBatchAccumulatesAcrossAddBatchCalls(t *testing.T) {
	h := &fakeHandle{batchRows: 7}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)

	for i := int32(0); i < 3; i++ {
		payload := append([]byte{0x01}, wire.EncodeInt32(i)...)
		_, err := q.Write(context.Background(), payload)
		require.NoError(t, err)
		require.NoError(t, q.AddBatch(context.Background()))
	}
	assert.Equal(t, 3, h.batches)
	n, err := q.ExecuteModify(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestConstantParameterBoundOnceOnFirstExecute(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	constBytes := append([]byte{0x01}, wire.EncodeInt32(42)...)
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Constant(constBytes)}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	_, err = q.ExecuteModify(context.Background())
	require.NoError(t, err)
	_, err = q.ExecuteModify(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.binds, 1)
}

func TestReExecuteClosesPriorProducer(t *testing.T) {
	cur := &closableCursor{}
	h := &fakeHandle{queryCursor: cur}
	m := mapping.Base{}
	q, err := New(h, m, nil)
	require.NoError(t, err)

	_, err = q.ExecuteQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cur.closed)

	q.Restart()
	_, err = q.ExecuteQuery(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cur.closed)

	require.NoError(t, q.Close())
	assert.Equal(t, 2, cur.closed)
}

func TestRestartResetsCursorAndLog(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	payload := append([]byte{0x01}, wire.EncodeInt32(1)...)
	_, err = q.Write(context.Background(), payload)
	require.NoError(t, err)
	_, err = q.ExecuteModify(context.Background())
	require.NoError(t, err)
	assert.Len(t, q.LoggedParams(), 1)
	q.Restart()
	assert.Empty(t, q.LoggedParams())
	_, err = q.Write(context.Background(), payload)
	require.NoError(t, err)
	_, err = q.ExecuteModify(context.Background())
	require.NoError(t, err)
	assert.Len(t, h.binds, 2)
}

func TestInvalidPresenceByteIsEncodingError(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	_, err = q.Write(context.Background(), []byte{0x07})
	assert.Error(t, err)
}

func TestOutOfRangeDateIsEncodingError(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{{Index: 1, Type: valuetype.Date, Mode: descriptor.Dynamic()}}
	q, err := New(h, m, params)
	require.NoError(t, err)
	bad := wire.EncodeDate(wire.Date{Year: 2024, Month: 13, Day: 1})
	payload := append([]byte{0x01}, bad...)
	_, err = q.Write(context.Background(), payload)
	assert.Error(t, err)
}

func TestPartialDynamicParameterListConsumedInOrder(t *testing.T) {
	h := &fakeHandle{}
	m := mapping.Base{}
	params := []descriptor.Param{
		{Index: 1, Type: valuetype.Int32, Mode: descriptor.Dynamic()},
		{Index: 2, Type: valuetype.UTF8String, Mode: descriptor.Dynamic()},
	}
	q, err := New(h, m, params)
	require.NoError(t, err)

	var payload []byte
	payload = append(payload, 0x01)
	payload = append(payload, wire.EncodeInt32(99)...)
	payload = append(payload, 0x01, 0x02, 'h', 'i', 0x00)

	sizes := []int{1, 2, 3, 7}
	i := 0
	for len(payload) > 0 {
		size := sizes[i%len(sizes)]
		i++
		if size > len(payload) {
			size = len(payload)
		}
		n, err := q.Write(context.Background(), payload[:size])
		require.NoError(t, err)
		payload = payload[n:]
	}
	require.Len(t, h.binds, 2)
	assert.Equal(t, int32(99), h.binds[0].value)
	assert.Equal(t, "hi", h.binds[1].value)
}
