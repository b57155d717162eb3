// Package devledger is an embedded, persistent ledger node for local
// development and integration tests. It implements both the read capability
// the indexer consumes (ledger.Client) and the write capability the CLI post
// path uses (submit.Submitter), so the full pipeline runs without a remote
// node.
package devledger

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ugorji/go/codec"
	"go.uber.org/zap"

	"guestdex/internal/ledger"
	"guestdex/internal/storage/kv"
)

var (
	keyPrefix  = []byte("acc/")
	cborHandle codec.CborHandle
)

const defaultCacheSize = 512

// entry is the stored form of one account.
type entry struct {
	Owner     []byte `codec:"owner"`
	Data      []byte `codec:"data"`
	UpdatedAt int64  `codec:"updated_at"`
}

// Ledger is a single-owner dev ledger over a kv store with an LRU payload
// cache in front of it. Safe for concurrent use.
type Ledger struct {
	owner ledger.AccountID
	store kv.DB
	cache *lru.Cache[ledger.AccountID, []byte]
	log   *zap.Logger
}

// Open creates a dev ledger whose accounts belong to owner, persisted in
// store. The store remains owned by the caller and is not closed here.
func Open(owner ledger.AccountID, store kv.DB, log *zap.Logger) (*Ledger, error) {
	cache, err := lru.New[ledger.AccountID, []byte](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		owner: owner,
		store: store,
		cache: cache,
		log:   log.Named("devledger"),
	}, nil
}

// DeriveAccountID derives the deterministic account address for a record
// name under owner, the way the surrounding write path would derive a
// program address.
func DeriveAccountID(owner ledger.AccountID, name string) ledger.AccountID {
	h := sha256.New()
	h.Write(owner[:])
	h.Write([]byte(name))
	var id ledger.AccountID
	copy(id[:], h.Sum(nil))
	return id
}

// ScanOwned implements ledger.Client.
func (l *Ledger) ScanOwned(ctx context.Context, owner ledger.AccountID, filter *ledger.BytesFilter, slice *ledger.SliceSpec) ([]ledger.KeyedSlice, error) {
	var (
		out     []ledger.KeyedSlice
		decodeE error
	)
	err := l.store.Iterate(ctx, keyPrefix, kv.PrefixEnd(keyPrefix), func(key, value []byte) bool {
		var e entry
		if err := codec.NewDecoderBytes(value, &cborHandle).Decode(&e); err != nil {
			decodeE = fmt.Errorf("devledger: corrupt entry at %x: %w", key, err)
			return false
		}
		if !bytes.Equal(e.Owner, owner[:]) {
			return true
		}
		if filter != nil && !matchesAt(e.Data, filter.Offset, filter.Bytes) {
			return true
		}
		id, ok := idFromKey(key)
		if !ok {
			return true
		}
		out = append(out, ledger.KeyedSlice{ID: id, Data: window(e.Data, slice)})
		return true
	})
	if err != nil {
		return nil, ledger.NewFetchError(ledger.ErrCodeNodeError, "scan_owned", err)
	}
	if decodeE != nil {
		return nil, ledger.NewFetchError(ledger.ErrCodeBadPayload, "scan_owned", decodeE)
	}
	return out, nil
}

// FetchBatch implements ledger.Client. Missing accounts yield nil payloads
// at their positions.
func (l *Ledger) FetchBatch(ctx context.Context, ids []ledger.AccountID) ([][]byte, error) {
	out := make([][]byte, len(ids))
	for i, id := range ids {
		if data, ok := l.cache.Get(id); ok {
			out[i] = data
			continue
		}
		value, err := l.store.Get(ctx, accountKey(id))
		if err == kv.ErrKeyNotFound {
			continue
		}
		if err != nil {
			return nil, ledger.NewFetchError(ledger.ErrCodeNodeError, "fetch_batch", err)
		}
		var e entry
		if err := codec.NewDecoderBytes(value, &cborHandle).Decode(&e); err != nil {
			return nil, ledger.NewFetchError(ledger.ErrCodeBadPayload, "fetch_batch", err)
		}
		l.cache.Add(id, e.Data)
		out[i] = e.Data
	}
	return out, nil
}

// Submit implements submit.Submitter: it writes the payload into the target
// account and returns the account's address as the submission id.
func (l *Ledger) Submit(ctx context.Context, target ledger.AccountID, payload []byte) (string, error) {
	e := entry{
		Owner:     l.owner[:],
		Data:      payload,
		UpdatedAt: time.Now().UnixNano(),
	}
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, &cborHandle).Encode(e); err != nil {
		return "", err
	}
	if err := l.store.Put(ctx, accountKey(target), buf); err != nil {
		return "", err
	}
	l.cache.Remove(target)
	l.log.Debug("account written", zap.String("account", target.String()), zap.Int("bytes", len(payload)))
	return target.String(), nil
}

// Remove deletes an account, as a validator closing it would.
func (l *Ledger) Remove(ctx context.Context, id ledger.AccountID) error {
	if err := l.store.Delete(ctx, accountKey(id)); err != nil {
		return err
	}
	l.cache.Remove(id)
	return nil
}

func accountKey(id ledger.AccountID) []byte {
	return append(append([]byte(nil), keyPrefix...), id[:]...)
}

func idFromKey(key []byte) (ledger.AccountID, bool) {
	var id ledger.AccountID
	raw := bytes.TrimPrefix(key, keyPrefix)
	if len(raw) != ledger.IDSize {
		return id, false
	}
	copy(id[:], raw)
	return id, true
}

func matchesAt(data []byte, offset int, want []byte) bool {
	if offset < 0 || offset+len(want) > len(data) {
		return false
	}
	return bytes.Equal(data[offset:offset+len(want)], want)
}

func window(data []byte, slice *ledger.SliceSpec) []byte {
	if slice == nil {
		return append([]byte(nil), data...)
	}
	start := slice.Offset
	if start > len(data) {
		start = len(data)
	}
	end := start + slice.Length
	if end > len(data) {
		end = len(data)
	}
	return append([]byte(nil), data[start:end]...)
}
