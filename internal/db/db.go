package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Project-Sylos/Tabula/internal/types"
	_ "github.com/marcboeker/go-duckdb"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("key not found")

// KV is the whole-value key-value contract both stores are persisted through.
// Values are opaque bytes; every write replaces the previous value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// PutBatch writes all entries in one transaction.
	PutBatch(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Info(ctx context.Context) ([]types.StoreInfo, error)
	Reset(ctx context.Context) error
	// Ping reports whether the backend and its schema are usable.
	Ping(ctx context.Context) error
	Close() error
}

// Open opens the backend selected by the storage configuration
func Open(cfg types.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case "", types.DriverDuckDB:
		return New(cfg.DBPath)
	case types.DriverBolt:
		return NewBolt(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// DB wraps a DuckDB connection holding the kv_store table
type DB struct {
	conn *sql.DB
	mu   sync.Mutex // Protects all database operations from concurrent access
}

// New creates a new DuckDB connection and initializes the schema.
// An empty path opens an in-memory database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	// An in-memory DuckDB lives as long as its connection; keep exactly one.
	conn.SetMaxOpenConns(1)

	if err := InitializeTable(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection and that the kv table is readable
func (db *DB) Ping(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM `+tableKV).Scan(&n); err != nil {
		return fmt.Errorf("failed to query %s: %w", tableKV, err)
	}
	return nil
}

// Get returns the value stored under key
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM "+tableKV+" WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return []byte(value), nil
}

// Put replaces the value stored under key
func (db *DB) Put(ctx context.Context, key string, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.ExecContext(ctx, upsertSQL, key, string(value), time.Now()); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}
	return nil
}

// PutBatch replaces several values in a single transaction
func (db *DB) PutBatch(ctx context.Context, entries map[string][]byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, key := range sortedKeys(entries) {
		if _, err := stmt.ExecContext(ctx, key, string(entries[key]), now); err != nil {
			return fmt.Errorf("failed to put key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is not an error
func (db *DB) Delete(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+tableKV+" WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Info returns size and modification time of every stored key
func (db *DB) Info(ctx context.Context) ([]types.StoreInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.QueryContext(ctx, "SELECT key, length(value), updated_at FROM "+tableKV+" ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to query store info: %w", err)
	}
	defer rows.Close()

	var infos []types.StoreInfo
	for rows.Next() {
		var info types.StoreInfo
		if err := rows.Scan(&info.Key, &info.Bytes, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan store info: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating store info: %w", err)
	}
	return infos, nil
}

// Reset removes every key
func (db *DB) Reset(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+tableKV); err != nil {
		return fmt.Errorf("failed to delete from %s table: %w", tableKV, err)
	}
	return nil
}

func sortedKeys(entries map[string][]byte) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
