// Package rpcclient implements ledger.Client over JSON-RPC 2.0 against a
// remote ledger node. Account data travels base64-encoded, identifiers in
// their base58 text form.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"guestdex/internal/ledger"
)

const (
	methodScanOwned  = "scan_owned"
	methodFetchBatch = "fetch_batch"
)

// Config holds the connection settings for a ledger node.
type Config struct {
	// Endpoint is the node's HTTP JSON-RPC URL.
	Endpoint string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration
}

// Client talks to one ledger node. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a client for the configured node.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type sliceParam struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type filterParam struct {
	Offset int    `json:"offset"`
	Bytes  string `json:"bytes"` // base64
}

type scanOwnedParams struct {
	Owner  string       `json:"owner"`
	Filter *filterParam `json:"filter,omitempty"`
	Slice  *sliceParam  `json:"slice,omitempty"`
}

type scannedAccount struct {
	Account string `json:"account"`
	Data    string `json:"data"` // base64
}

type fetchBatchParams struct {
	Accounts []string `json:"accounts"`
}

type fetchedAccount struct {
	Data *string `json:"data"` // base64, null when the account is gone
}

// ScanOwned implements ledger.Client.
func (c *Client) ScanOwned(ctx context.Context, owner ledger.AccountID, filter *ledger.BytesFilter, slice *ledger.SliceSpec) ([]ledger.KeyedSlice, error) {
	params := scanOwnedParams{Owner: owner.String()}
	if filter != nil {
		params.Filter = &filterParam{
			Offset: filter.Offset,
			Bytes:  base64.StdEncoding.EncodeToString(filter.Bytes),
		}
	}
	if slice != nil {
		params.Slice = &sliceParam{Offset: slice.Offset, Length: slice.Length}
	}

	var result []scannedAccount
	if err := c.call(ctx, methodScanOwned, params, &result); err != nil {
		return nil, err
	}

	out := make([]ledger.KeyedSlice, 0, len(result))
	for _, acc := range result {
		id, err := ledger.ParseAccountID(acc.Account)
		if err != nil {
			return nil, ledger.NewFetchError(ledger.ErrCodeBadPayload, methodScanOwned, err)
		}
		data, err := base64.StdEncoding.DecodeString(acc.Data)
		if err != nil {
			return nil, ledger.NewFetchError(ledger.ErrCodeBadPayload, methodScanOwned, err)
		}
		out = append(out, ledger.KeyedSlice{ID: id, Data: data})
	}
	return out, nil
}

// FetchBatch implements ledger.Client.
func (c *Client) FetchBatch(ctx context.Context, ids []ledger.AccountID) ([][]byte, error) {
	params := fetchBatchParams{Accounts: make([]string, len(ids))}
	for i, id := range ids {
		params.Accounts[i] = id.String()
	}

	var result []fetchedAccount
	if err := c.call(ctx, methodFetchBatch, params, &result); err != nil {
		return nil, err
	}
	if len(result) != len(ids) {
		return nil, ledger.NewFetchError(ledger.ErrCodeBadPayload, methodFetchBatch,
			fmt.Errorf("requested %d accounts, node returned %d", len(ids), len(result)))
	}

	out := make([][]byte, len(result))
	for i, acc := range result {
		if acc.Data == nil {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(*acc.Data)
		if err != nil {
			return nil, ledger.NewFetchError(ledger.ErrCodeBadPayload, methodFetchBatch, err)
		}
		out[i] = data
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return ledger.NewFetchError(ledger.ErrCodeBadRequest, method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return ledger.NewFetchError(ledger.ErrCodeBadRequest, method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		code := ledger.ErrCodeUnreachable
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			code = ledger.ErrCodeTimeout
		}
		return ledger.NewFetchError(code, method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ledger.NewFetchError(ledger.ErrCodeBadPayload, method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return ledger.NewFetchError(ledger.ErrCodeNodeError, method,
			fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(raw)))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return ledger.NewFetchError(ledger.ErrCodeBadPayload, method, err)
	}
	if rpcResp.Error != nil {
		return ledger.NewFetchError(ledger.ErrCodeNodeError, method,
			fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message))
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return ledger.NewFetchError(ledger.ErrCodeBadPayload, method, err)
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
