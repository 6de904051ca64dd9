package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/Project-Sylos/Tabula/internal/types"
)

// backends returns a fresh instance of every KV implementation
func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	duck, err := New(filepath.Join(dir, "test.duckdb"))
	if err != nil {
		t.Fatalf("Failed to create DuckDB backend: %v", err)
	}
	bolt, err := NewBolt(filepath.Join(dir, "test.bolt"))
	if err != nil {
		duck.Close()
		t.Fatalf("Failed to create bolt backend: %v", err)
	}
	t.Cleanup(func() {
		duck.Close()
		bolt.Close()
	})

	return map[string]KV{
		types.DriverDuckDB: duck,
		types.DriverBolt:   bolt,
	}
}

// TestOpen tests backend selection by driver name
func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name        string
		cfg         types.StorageConfig
		expectError bool
	}{
		{name: "duckdb file", cfg: types.StorageConfig{Driver: types.DriverDuckDB, DBPath: filepath.Join(dir, "a.duckdb")}},
		{name: "duckdb in memory", cfg: types.StorageConfig{Driver: types.DriverDuckDB}},
		{name: "bolt file", cfg: types.StorageConfig{Driver: types.DriverBolt, DBPath: filepath.Join(dir, "a.bolt")}},
		{name: "unknown driver", cfg: types.StorageConfig{Driver: "redis"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv, err := Open(tt.cfg)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					kv.Close()
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if err := kv.Close(); err != nil {
				t.Errorf("Unexpected error closing backend: %v", err)
			}
		})
	}
}

// TestKVMethods tests the core key-value methods on every backend
func TestKVMethods(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("GetMissing", func(t *testing.T) {
				_, err := kv.Get(ctx, "missing")
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Expected ErrNotFound, got %v", err)
				}
			})

			t.Run("PutGet", func(t *testing.T) {
				if err := kv.Put(ctx, "a", []byte(`{"x":1}`)); err != nil {
					t.Fatalf("Unexpected error putting key: %v", err)
				}
				got, err := kv.Get(ctx, "a")
				if err != nil {
					t.Fatalf("Unexpected error getting key: %v", err)
				}
				if string(got) != `{"x":1}` {
					t.Errorf("Expected stored value, got %s", got)
				}
			})

			t.Run("PutReplacesWholeValue", func(t *testing.T) {
				if err := kv.Put(ctx, "a", []byte(`[]`)); err != nil {
					t.Fatalf("Unexpected error putting key: %v", err)
				}
				got, _ := kv.Get(ctx, "a")
				if string(got) != `[]` {
					t.Errorf("Expected replaced value, got %s", got)
				}
			})

			t.Run("PutBatch", func(t *testing.T) {
				err := kv.PutBatch(ctx, map[string][]byte{
					"tree":    []byte(`[{"id":"1"}]`),
					"content": []byte(`{"1":{"content":"a,b"}}`),
				})
				if err != nil {
					t.Fatalf("Unexpected error in batch: %v", err)
				}
				for _, key := range []string{"tree", "content"} {
					if _, err := kv.Get(ctx, key); err != nil {
						t.Errorf("Expected %s to be stored: %v", key, err)
					}
				}
				if err := kv.PutBatch(ctx, nil); err != nil {
					t.Errorf("Empty batch should be a no-op: %v", err)
				}
			})

			t.Run("Info", func(t *testing.T) {
				infos, err := kv.Info(ctx)
				if err != nil {
					t.Fatalf("Unexpected error getting info: %v", err)
				}
				if len(infos) != 3 {
					t.Fatalf("Expected 3 keys, got %d", len(infos))
				}
				for _, info := range infos {
					if info.Key == "a" && info.Bytes != 2 {
						t.Errorf("Expected 2 bytes for key a, got %d", info.Bytes)
					}
					if info.UpdatedAt.IsZero() {
						t.Errorf("Expected update time for %s", info.Key)
					}
				}
			})

			t.Run("Delete", func(t *testing.T) {
				if err := kv.Delete(ctx, "a"); err != nil {
					t.Fatalf("Unexpected error deleting key: %v", err)
				}
				if _, err := kv.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
					t.Errorf("Expected ErrNotFound after delete, got %v", err)
				}
				if err := kv.Delete(ctx, "a"); err != nil {
					t.Errorf("Deleting a missing key should not fail: %v", err)
				}
			})

			t.Run("Reset", func(t *testing.T) {
				if err := kv.Reset(ctx); err != nil {
					t.Fatalf("Unexpected error resetting: %v", err)
				}
				infos, err := kv.Info(ctx)
				if err != nil {
					t.Fatalf("Unexpected error getting info: %v", err)
				}
				if len(infos) != 0 {
					t.Errorf("Expected empty backend after reset, got %d keys", len(infos))
				}
				if err := kv.Put(ctx, "after", []byte("1")); err != nil {
					t.Errorf("Backend should be writable after reset: %v", err)
				}
			})
		})
	}
}

// TestPersistenceAcrossReopen verifies file backends keep their data
func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, driver := range []string{types.DriverDuckDB, types.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			cfg := types.StorageConfig{Driver: driver, DBPath: filepath.Join(dir, "persist."+driver)}

			kv, err := Open(cfg)
			if err != nil {
				t.Fatalf("Failed to open: %v", err)
			}
			if err := kv.Put(ctx, types.TreeStoreKey, []byte(`[]`)); err != nil {
				t.Fatalf("Failed to put: %v", err)
			}
			kv.Close()

			if _, err := os.Stat(cfg.DBPath); err != nil {
				t.Fatalf("Expected database file to exist: %v", err)
			}

			kv, err = Open(cfg)
			if err != nil {
				t.Fatalf("Failed to reopen: %v", err)
			}
			defer kv.Close()

			got, err := kv.Get(ctx, types.TreeStoreKey)
			if err != nil {
				t.Fatalf("Expected value after reopen: %v", err)
			}
			if string(got) != `[]` {
				t.Errorf("Expected [] after reopen, got %s", got)
			}
		})
	}
}

// TestVerifyBucketsExist tests bucket initialization of the bolt backend
func TestVerifyBucketsExist(t *testing.T) {
	b, err := NewBolt(filepath.Join(t.TempDir(), "verify.bolt"))
	if err != nil {
		t.Fatalf("Failed to open bolt: %v", err)
	}
	defer b.Close()

	if err := VerifyBucketsExist(b.db); err != nil {
		t.Errorf("Expected buckets to exist: %v", err)
	}
	if err := b.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed: %v", err)
	}

	// Dropping a bucket behind the backend's back must surface in Ping
	b.db.Update(func(tx *bbolt.Tx) error { return tx.DeleteBucket([]byte(bucketMeta)) })
	if err := b.Ping(context.Background()); err == nil {
		t.Errorf("Expected ping to fail without the meta bucket")
	}
}

// TestPing tests the health check of both backends
func TestPing(t *testing.T) {
	for _, driver := range []string{types.DriverDuckDB, types.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			kv, err := Open(types.StorageConfig{Driver: driver, DBPath: filepath.Join(t.TempDir(), "ping.db")})
			if err != nil {
				t.Fatalf("Failed to open %s: %v", driver, err)
			}
			if err := kv.Ping(context.Background()); err != nil {
				t.Errorf("Expected ping to succeed: %v", err)
			}
			kv.Close()
			if err := kv.Ping(context.Background()); err == nil {
				t.Errorf("Expected ping to fail after close")
			}
		})
	}
}

func BenchmarkDuckDBPutGet(b *testing.B) {
	kv, err := New(filepath.Join(b.TempDir(), "bench.duckdb"))
	if err != nil {
		b.Fatalf("Failed to create database: %v", err)
	}
	defer kv.Close()

	ctx := context.Background()
	value := []byte(`{"id":{"content":"a,b\n1,2"}}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := kv.Put(ctx, "k", value); err != nil {
			b.Fatal(err)
		}
		if _, err := kv.Get(ctx, "k"); err != nil {
			b.Fatal(err)
		}
	}
}
