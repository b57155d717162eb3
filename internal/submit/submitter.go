// Package submit is the write-path boundary. The indexer itself never
// submits transactions; it only produces encoded payloads. Wallets, signing,
// and transaction construction live behind the Submitter capability.
package submit

import (
	"context"

	"guestdex/internal/codec"
	"guestdex/internal/ledger"
)

// Submitter accepts an encoded record payload for a target account and
// returns a submission identifier.
type Submitter interface {
	Submit(ctx context.Context, target ledger.AccountID, payload []byte) (string, error)
}

// PostRecord encodes rec and hands it to s. It is the only write-path entry
// point the rest of the repo uses.
func PostRecord(ctx context.Context, s Submitter, target ledger.AccountID, rec codec.Record) (string, error) {
	return s.Submit(ctx, target, codec.Encode(rec))
}
