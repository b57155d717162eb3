// Package ledger defines the boundary to the remote account ledger: the
// identifier type, the discovery/fetch capability the index consumes, and the
// error taxonomy for network failures.
package ledger

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// IDSize is the byte length of an account identifier.
const IDSize = 32

// AccountID addresses one account on the ledger. It is an opaque value type:
// comparable, copyable, never mutated.
type AccountID [IDSize]byte

// ParseAccountID decodes the base58 text form of an identifier.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("account id %q: %w", s, err)
	}
	if len(raw) != IDSize {
		return id, fmt.Errorf("account id %q: got %d bytes, want %d", s, len(raw), IDSize)
	}
	copy(id[:], raw)
	return id, nil
}

// String returns the base58 text form.
func (id AccountID) String() string {
	return base58.Encode(id[:])
}

// SliceSpec asks the ledger to return only a window of each account's data.
type SliceSpec struct {
	Offset int
	Length int
}

// BytesFilter is a server-side exact byte match anchored at a fixed offset
// into the account data. It is a prefix anchor, not a length-aware match: it
// can both under- and over-match relative to field equality.
type BytesFilter struct {
	Offset int
	Bytes  []byte
}

// KeyedSlice pairs an account identifier with the requested slice of its data.
type KeyedSlice struct {
	ID   AccountID
	Data []byte
}
