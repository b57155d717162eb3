package kv

import (
	"bytes"
	"context"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("guestdex")

type boltDB struct {
	db *bolt.DB
}

func openBolt(path string) (DB, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &boltDB{db: db}, nil
}

func (b *boltDB) Get(ctx context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(boltBucket).Get(key)
		if val == nil {
			return ErrKeyNotFound
		}
		out = append([]byte(nil), val...)
		return nil
	})
	return out, err
}

func (b *boltDB) Put(ctx context.Context, key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (b *boltDB) Delete(ctx context.Context, key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

func (b *boltDB) Batch(ctx context.Context, ops []BatchOperation) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		for _, op := range ops {
			var err error
			switch op.Type {
			case BatchPut:
				err = bucket.Put(op.Key, op.Value)
			case BatchDelete:
				err = bucket.Delete(op.Key)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltDB) Iterate(ctx context.Context, start, end []byte, fn func(key, value []byte) bool) error {
	return b.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(boltBucket).Cursor()
		key, val := cursor.Seek(start)
		for ; key != nil; key, val = cursor.Next() {
			if end != nil && bytes.Compare(key, end) >= 0 {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			k := append([]byte(nil), key...)
			v := append([]byte(nil), val...)
			if !fn(k, v) {
				break
			}
		}
		return nil
	})
}

func (b *boltDB) Close() error {
	return b.db.Close()
}
