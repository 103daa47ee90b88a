// Package memory provides an in-memory key-value store
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dietcompass/planner/internal/ports/outbound"
)

// Store implements outbound.KeyValueStore in process memory. Updates are
// serialized and staged, so a failing update leaves no trace.
type Store struct {
	data  map[string][]byte
	mutex sync.RWMutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		return nil, outbound.ErrKeyNotFound
	}
	return clone(value), nil
}

// Update runs fn against a staged view and applies its writes when fn
// succeeds
func (s *Store) Update(ctx context.Context, _ []string, fn func(tx outbound.KVTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx := &stagedTx{base: s.data, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for key, value := range tx.writes {
		if value == nil {
			delete(s.data, key)
			continue
		}
		s.data[key] = value
	}
	return nil
}

// Keys lists the stored keys with the given prefix in order
func (s *Store) Keys(prefix string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// stagedTx buffers writes over the live map. A nil value marks a delete.
type stagedTx struct {
	base   map[string][]byte
	writes map[string][]byte
}

func (t *stagedTx) Get(key string) ([]byte, error) {
	if value, staged := t.writes[key]; staged {
		if value == nil {
			return nil, outbound.ErrKeyNotFound
		}
		return clone(value), nil
	}
	value, exists := t.base[key]
	if !exists {
		return nil, outbound.ErrKeyNotFound
	}
	return clone(value), nil
}

func (t *stagedTx) Put(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	t.writes[key] = clone(value)
	return nil
}

func (t *stagedTx) Delete(key string) error {
	t.writes[key] = nil
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ outbound.KeyValueStore = (*Store)(nil)
