package rpcclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guestdex/internal/ledger"
)

func testID(b byte) ledger.AccountID {
	var id ledger.AccountID
	id[0] = b
	return id
}

// nodeStub records the last request and answers with a canned result.
type nodeStub struct {
	t          *testing.T
	lastMethod string
	lastParams json.RawMessage
	result     any
	rpcErr     *rpcError
	status     int
}

func (n *nodeStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var parsed struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(n.t, json.NewDecoder(r.Body).Decode(&parsed))
		n.lastMethod = parsed.Method
		n.lastParams = parsed.Params

		if n.status != 0 {
			w.WriteHeader(n.status)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": 1}
		if n.rpcErr != nil {
			resp["error"] = n.rpcErr
		} else {
			resp["result"] = n.result
		}
		require.NoError(n.t, json.NewEncoder(w).Encode(resp))
	}
}

func newStubClient(t *testing.T, stub *nodeStub) *Client {
	stub.t = t
	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)
	return New(Config{Endpoint: ts.URL, Timeout: 5 * time.Second})
}

func TestScanOwnedRequestShape(t *testing.T) {
	stub := &nodeStub{result: []any{}}
	c := newStubClient(t, stub)

	owner := testID(0xAA)
	filter := &ledger.BytesFilter{Offset: 4, Bytes: []byte("Al")}
	slice := &ledger.SliceSpec{Offset: 0, Length: 68}

	_, err := c.ScanOwned(context.Background(), owner, filter, slice)
	require.NoError(t, err)
	assert.Equal(t, "scan_owned", stub.lastMethod)

	var params scanOwnedParams
	require.NoError(t, json.Unmarshal(stub.lastParams, &params))
	assert.Equal(t, owner.String(), params.Owner)
	require.NotNil(t, params.Filter)
	assert.Equal(t, 4, params.Filter.Offset)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("Al")), params.Filter.Bytes)
	require.NotNil(t, params.Slice)
	assert.Equal(t, 68, params.Slice.Length)
}

func TestScanOwnedDecodesResult(t *testing.T) {
	id := testID(7)
	stub := &nodeStub{result: []scannedAccount{
		{Account: id.String(), Data: base64.StdEncoding.EncodeToString([]byte("payload"))},
	}}
	c := newStubClient(t, stub)

	got, err := c.ScanOwned(context.Background(), testID(0xAA), nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, []byte("payload"), got[0].Data)
}

func TestScanOwnedOmitsEmptyFilter(t *testing.T) {
	stub := &nodeStub{result: []any{}}
	c := newStubClient(t, stub)

	_, err := c.ScanOwned(context.Background(), testID(0xAA), nil, nil)
	require.NoError(t, err)

	var params map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stub.lastParams, &params))
	_, hasFilter := params["filter"]
	assert.False(t, hasFilter)
	_, hasSlice := params["slice"]
	assert.False(t, hasSlice)
}

func TestFetchBatchOrderAndGaps(t *testing.T) {
	a := base64.StdEncoding.EncodeToString([]byte("aaa"))
	b := base64.StdEncoding.EncodeToString([]byte("bbb"))
	stub := &nodeStub{result: []fetchedAccount{{Data: &a}, {Data: nil}, {Data: &b}}}
	c := newStubClient(t, stub)

	ids := []ledger.AccountID{testID(1), testID(2), testID(3)}
	got, err := c.FetchBatch(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("aaa"), got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, []byte("bbb"), got[2])

	var params fetchBatchParams
	require.NoError(t, json.Unmarshal(stub.lastParams, &params))
	assert.Equal(t, []string{ids[0].String(), ids[1].String(), ids[2].String()}, params.Accounts)
}

func TestFetchBatchLengthMismatch(t *testing.T) {
	stub := &nodeStub{result: []fetchedAccount{}}
	c := newStubClient(t, stub)

	_, err := c.FetchBatch(context.Background(), []ledger.AccountID{testID(1)})
	require.Error(t, err)
	var fe *ledger.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ledger.ErrCodeBadPayload, fe.Code)
}

func TestNodeErrorSurfaced(t *testing.T) {
	stub := &nodeStub{rpcErr: &rpcError{Code: -32000, Message: "scan failed"}}
	c := newStubClient(t, stub)

	_, err := c.ScanOwned(context.Background(), testID(0xAA), nil, nil)
	require.Error(t, err)
	var fe *ledger.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ledger.ErrCodeNodeError, fe.Code)
	assert.Contains(t, err.Error(), "scan failed")
}

func TestHTTPErrorSurfaced(t *testing.T) {
	stub := &nodeStub{status: http.StatusBadGateway}
	c := newStubClient(t, stub)

	_, err := c.ScanOwned(context.Background(), testID(0xAA), nil, nil)
	require.Error(t, err)
	var fe *ledger.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ledger.ErrCodeNodeError, fe.Code)
}

func TestUnreachableNode(t *testing.T) {
	c := New(Config{Endpoint: "http://127.0.0.1:1", Timeout: time.Second})

	_, err := c.FetchBatch(context.Background(), []ledger.AccountID{testID(1)})
	require.Error(t, err)
	var fe *ledger.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ledger.ErrCodeUnreachable, fe.Code)
}

func TestContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	t.Cleanup(func() { close(blocked); ts.Close() })

	c := New(Config{Endpoint: ts.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ScanOwned(ctx, testID(0xAA), nil, nil)
	require.Error(t, err)
	var fe *ledger.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ledger.ErrCodeTimeout, fe.Code)
}
