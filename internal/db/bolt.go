package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Project-Sylos/Tabula/internal/types"
)

// BoltDB is the embedded single-file backend. Values live in the stores bucket,
// their modification times in stores_meta.
type BoltDB struct {
	db *bbolt.DB
}

// NewBolt opens or creates a bbolt database at path
func NewBolt(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if err := InitializeBuckets(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// Close closes the database file
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// Ping checks that the database is open and holds both buckets
func (b *BoltDB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return VerifyBucketsExist(b.db)
}

// Get returns a copy of the value stored under key
func (b *BoltDB) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketStore)).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put replaces the value stored under key
func (b *BoltDB) Put(ctx context.Context, key string, value []byte) error {
	return b.PutBatch(ctx, map[string][]byte{key: value})
}

// PutBatch writes all entries in one bolt transaction
func (b *BoltDB) PutBatch(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	return b.db.Update(func(tx *bbolt.Tx) error {
		store := tx.Bucket([]byte(bucketStore))
		meta := tx.Bucket([]byte(bucketMeta))
		for _, key := range sortedKeys(entries) {
			if err := store.Put([]byte(key), entries[key]); err != nil {
				return fmt.Errorf("failed to put key %s: %w", key, err)
			}
			if err := meta.Put([]byte(key), now); err != nil {
				return fmt.Errorf("failed to put metadata for %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes a key; deleting a missing key is not an error
func (b *BoltDB) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(bucketStore)).Delete([]byte(key)); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
		return tx.Bucket([]byte(bucketMeta)).Delete([]byte(key))
	})
}

// Info returns size and modification time of every stored key
func (b *BoltDB) Info(ctx context.Context) ([]types.StoreInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []types.StoreInfo
	err := b.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(bucketMeta))
		return tx.Bucket([]byte(bucketStore)).ForEach(func(k, v []byte) error {
			info := types.StoreInfo{Key: string(k), Bytes: len(v)}
			if ts := meta.Get(k); ts != nil {
				if t, err := time.Parse(time.RFC3339Nano, string(ts)); err == nil {
					info.UpdatedAt = t
				}
			}
			infos = append(infos, info)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read store info: %w", err)
	}
	return infos, nil
}

// Reset drops and recreates the buckets
func (b *BoltDB) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketStore, bucketMeta} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return fmt.Errorf("failed to delete %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return InitializeBuckets(b.db)
}
