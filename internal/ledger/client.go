package ledger

import "context"

// Client is the capability the index and pager consume. Implementations talk
// to a remote ledger node (rpcclient) or an embedded one (devledger).
type Client interface {
	// ScanOwned returns every account owned by owner that matches filter,
	// carrying only the slice of data described by slice. A nil filter
	// matches everything; a nil slice returns full payloads. Result order
	// is unspecified.
	ScanOwned(ctx context.Context, owner AccountID, filter *BytesFilter, slice *SliceSpec) ([]KeyedSlice, error)

	// FetchBatch returns full payloads for ids in one round trip. The
	// result has the same length and order as ids; a nil element means the
	// account no longer exists, which is not an error for the batch.
	FetchBatch(ctx context.Context, ids []AccountID) ([][]byte, error)
}
