package kv

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type levelDB struct {
	db *leveldb.DB
}

func openLevelDB(path string) (DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &levelDB{db: db}, nil
}

func (l *levelDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if errors.Is(err, leveldb.ErrClosed) {
		return nil, ErrClosed
	}
	return val, err
}

func (l *levelDB) Put(ctx context.Context, key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *levelDB) Delete(ctx context.Context, key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *levelDB) Batch(ctx context.Context, ops []BatchOperation) error {
	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case BatchPut:
			batch.Put(op.Key, op.Value)
		case BatchDelete:
			batch.Delete(op.Key)
		}
	}
	return l.db.Write(batch, nil)
}

func (l *levelDB) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	iter := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := append([]byte(nil), iter.Key()...)
		val := append([]byte(nil), iter.Value()...)
		if !fn(key, val) {
			break
		}
	}
	return iter.Error()
}

func (l *levelDB) Close() error {
	return l.db.Close()
}
