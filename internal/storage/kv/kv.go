// Package kv defines the key-value store the embedded dev ledger persists
// accounts in, with interchangeable backends.
package kv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("kv: store is closed")

	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("kv: key not found")
)

// DB defines the operations any backend must support.
type DB interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies ops atomically.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterate walks keys in [start, end) in ascending order, calling fn for
	// each pair. Returning false from fn stops the walk.
	Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error

	Close() error
}

// BatchOperation is a single operation in a batch.
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// Backend names accepted by Open.
const (
	BackendPebble  = "pebble"
	BackendBolt    = "bbolt"
	BackendLevelDB = "leveldb"
)

// Open creates or opens a store of the given backend at path.
func Open(backend, path string) (DB, error) {
	switch backend {
	case BackendPebble:
		return openPebble(path)
	case BackendBolt:
		return openBolt(path)
	case BackendLevelDB:
		return openLevelDB(path)
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", backend)
	}
}

// PrefixEnd returns the smallest key greater than every key with the given
// prefix, for use as an Iterate upper bound. A nil result means no upper
// bound (the prefix is all 0xff).
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
