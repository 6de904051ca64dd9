// Package store persists whole JSON values under fixed keys of a db.KV
// and notifies subscribers after every write.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Tabula/internal/db"
	"github.com/Project-Sylos/Tabula/internal/types"
)

// Write is one staged value waiting to be committed
type Write struct {
	Key   string
	Value []byte
}

// Store is a typed view of one key. Every Set replaces the whole value; the
// last write wins.
type Store[T any] struct {
	kv   db.KV
	bus  *Broadcaster
	key  string
	zero func() T
}

// New creates a store for key. def supplies the value returned while the key
// has never been written.
func New[T any](kv db.KV, bus *Broadcaster, key string, def func() T) *Store[T] {
	return &Store[T]{kv: kv, bus: bus, key: key, zero: def}
}

// Key returns the storage key
func (s *Store[T]) Key() string {
	return s.key
}

// Get decodes the current value. Each call returns a freshly decoded copy.
func (s *Store[T]) Get(ctx context.Context) (T, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return s.zero(), nil
		}
		var zero T
		return zero, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode %s: %w", s.key, err)
	}
	return v, nil
}

// Stage encodes v without writing it
func (s *Store[T]) Stage(v T) (Write, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Write{}, fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	return Write{Key: s.key, Value: raw}, nil
}

// Set replaces the stored value and notifies subscribers
func (s *Store[T]) Set(ctx context.Context, v T) error {
	w, err := s.Stage(v)
	if err != nil {
		return err
	}
	return Commit(ctx, s.kv, s.bus, w)
}

// Commit persists every write in one transaction, then publishes one event per key.
// Nothing is published when the transaction fails.
func Commit(ctx context.Context, kv db.KV, bus *Broadcaster, writes ...Write) error {
	if len(writes) == 0 {
		return nil
	}

	entries := make(map[string][]byte, len(writes))
	for _, w := range writes {
		entries[w.Key] = w.Value
	}
	if err := kv.PutBatch(ctx, entries); err != nil {
		return fmt.Errorf("failed to commit stores: %w", err)
	}

	if bus != nil {
		for _, w := range writes {
			bus.Publish(Event{Key: w.Key})
		}
	}
	return nil
}

// Stores groups the two workspace stores that share a backend and a broadcaster
type Stores struct {
	KV      db.KV
	Bus     *Broadcaster
	Tree    *Store[[]*types.Node]
	Content *Store[types.ContentMap]
}

// Open wires the node tree store and the content store onto kv
func Open(kv db.KV) *Stores {
	bus := NewBroadcaster()
	return &Stores{
		KV:  kv,
		Bus: bus,
		Tree: New(kv, bus, types.TreeStoreKey, func() []*types.Node {
			return []*types.Node{}
		}),
		Content: New(kv, bus, types.ContentStoreKey, func() types.ContentMap {
			return types.ContentMap{}
		}),
	}
}

// Snapshot reads both stores
func (s *Stores) Snapshot(ctx context.Context) ([]*types.Node, types.ContentMap, error) {
	forest, err := s.Tree.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	content, err := s.Content.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	if forest == nil {
		forest = []*types.Node{}
	}
	if content == nil {
		content = types.ContentMap{}
	}
	return forest, content, nil
}

// Save writes the forest and the content map in one transaction
func (s *Stores) Save(ctx context.Context, forest []*types.Node, content types.ContentMap) error {
	tw, err := s.Tree.Stage(forest)
	if err != nil {
		return err
	}
	cw, err := s.Content.Stage(content)
	if err != nil {
		return err
	}
	return Commit(ctx, s.KV, s.Bus, tw, cw)
}

// Reset clears the backend and announces both keys as replaced
func (s *Stores) Reset(ctx context.Context) error {
	if err := s.KV.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset stores: %w", err)
	}
	s.Bus.Publish(Event{Key: types.TreeStoreKey})
	s.Bus.Publish(Event{Key: types.ContentStoreKey})
	return nil
}
