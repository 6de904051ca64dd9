package db

import (
	"database/sql"
	"fmt"

	"go.etcd.io/bbolt"
)

// Table and bucket names
const (
	tableKV     = "kv_store"
	bucketStore = "stores"
	bucketMeta  = "stores_meta"
)

// kvTableSQL creates the single key-value table used by the DuckDB backend
const kvTableSQL = `
CREATE TABLE IF NOT EXISTS ` + tableKV + ` (
	key        VARCHAR PRIMARY KEY,
	value      VARCHAR NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// upsertSQL replaces the whole value stored under a key
const upsertSQL = `
INSERT INTO ` + tableKV + ` (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// InitializeTable creates the kv table in a DuckDB database
func InitializeTable(conn *sql.DB) error {
	if _, err := conn.Exec(kvTableSQL); err != nil {
		return fmt.Errorf("failed to create %s table: %w", tableKV, err)
	}
	return nil
}

// InitializeBuckets creates all required buckets in the BoltDB database
func InitializeBuckets(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketStore)); err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", bucketStore, err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketMeta)); err != nil {
			return fmt.Errorf("failed to create %s bucket: %w", bucketMeta, err)
		}
		return nil
	})
}

// VerifyBucketsExist checks if all required buckets exist in the database
func VerifyBucketsExist(db *bbolt.DB) error {
	return db.View(func(tx *bbolt.Tx) error {
		for _, bucketName := range []string{bucketStore, bucketMeta} {
			if tx.Bucket([]byte(bucketName)) == nil {
				return fmt.Errorf("required bucket %s does not exist", bucketName)
			}
		}
		return nil
	})
}
