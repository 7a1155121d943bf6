// Package store is the repository abstraction behind every component.
//
// A component never sees raw keys: it receives a prefixed KVStore at
// construction and wraps it in typed Item, Map and SnapshotMap handles.
// TxStore layers a write buffer over the backend so a transaction either
// commits as a whole or leaves no trace.
package store

import (
	"bytes"
	"sort"
)

// KVStore is an ordered byte key-value store.
type KVStore interface {
	// Get returns nil when the key is absent.
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Iterate calls fn for every key starting with prefix, in ascending key
	// order, until fn returns stop or an error.
	Iterate(prefix []byte, fn func(key, value []byte) (stop bool, err error)) error
}

// Op is a single write of a batch. A nil Value deletes the key.
type Op struct {
	Key   []byte
	Value []byte
}

// Batcher is implemented by backends that can apply several writes
// atomically.
type Batcher interface {
	WriteBatch(ops []Op) error
}

// WriteBatch applies ops to s, atomically when s supports it.
func WriteBatch(s KVStore, ops []Op) error {
	if b, ok := s.(Batcher); ok {
		return b.WriteBatch(ops)
	}
	for _, op := range ops {
		var err error
		if op.Value == nil {
			err = s.Delete(op.Key)
		} else {
			err = s.Set(op.Key, op.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MemStore is an in-memory KVStore.
type MemStore struct {
	data map[string][]byte
}

var _ KVStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (m *MemStore) Set(key, value []byte) error {
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemStore) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *MemStore) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	keys := make([]string, 0)
	for k := range m.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		stop, err := fn([]byte(k), bytes.Clone(m.data[k]))
		if err != nil || stop {
			return err
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (m *MemStore) Len() int {
	return len(m.data)
}
