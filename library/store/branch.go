package store

import (
	"bytes"
	"errors"
	"sort"
)

// Branch buffers writes over a parent store. Reads see the buffered writes
// first. Nothing reaches the parent until Write.
type Branch struct {
	parent KVStore
	// a nil value marks a deleted key
	writes map[string][]byte
}

var _ KVStore = (*Branch)(nil)

func NewBranch(parent KVStore) *Branch {
	return &Branch{parent: parent, writes: make(map[string][]byte)}
}

func (b *Branch) Get(key []byte) ([]byte, error) {
	if v, ok := b.writes[string(key)]; ok {
		return bytes.Clone(v), nil
	}
	return b.parent.Get(key)
}

func (b *Branch) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	b.writes[string(key)] = bytes.Clone(value)
	return nil
}

func (b *Branch) Delete(key []byte) error {
	b.writes[string(key)] = nil
	return nil
}

func (b *Branch) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	merged := make(map[string][]byte)
	err := b.parent.Iterate(prefix, func(key, value []byte) (bool, error) {
		merged[string(key)] = value
		return false, nil
	})
	if err != nil {
		return err
	}
	for k, v := range b.writes {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stop, err := fn([]byte(k), bytes.Clone(merged[k]))
		if err != nil || stop {
			return err
		}
	}
	return nil
}

// Ops returns the buffered writes in key order.
func (b *Branch) Ops() []Op {
	keys := make([]string, 0, len(b.writes))
	for k := range b.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ops := make([]Op, 0, len(keys))
	for _, k := range keys {
		ops = append(ops, Op{Key: []byte(k), Value: b.writes[k]})
	}
	return ops
}

// Write flushes the buffered writes to the parent and resets the branch.
func (b *Branch) Write() error {
	if err := WriteBatch(b.parent, b.Ops()); err != nil {
		return err
	}
	b.writes = make(map[string][]byte)
	return nil
}

// Discard drops every buffered write.
func (b *Branch) Discard() {
	b.writes = make(map[string][]byte)
}

var (
	ErrTxInProgress = errors.New("store: transaction already in progress")
	ErrNoTx         = errors.New("store: no transaction in progress")
)

// TxStore routes reads and writes to the active transaction branch, or to
// the backend directly when no transaction is open. Components hold prefixed
// views of a TxStore, so they always observe the current transaction.
//
// TxStore is not safe for concurrent use; execution is serial.
type TxStore struct {
	backend KVStore
	tx      *Branch
}

var _ KVStore = (*TxStore)(nil)

func NewTxStore(backend KVStore) *TxStore {
	return &TxStore{backend: backend}
}

func (t *TxStore) current() KVStore {
	if t.tx != nil {
		return t.tx
	}
	return t.backend
}

func (t *TxStore) Begin() error {
	if t.tx != nil {
		return ErrTxInProgress
	}
	t.tx = NewBranch(t.backend)
	return nil
}

func (t *TxStore) Commit() error {
	if t.tx == nil {
		return ErrNoTx
	}
	tx := t.tx
	t.tx = nil
	return tx.Write()
}

func (t *TxStore) Rollback() {
	if t.tx != nil {
		t.tx.Discard()
		t.tx = nil
	}
}

func (t *TxStore) InTx() bool {
	return t.tx != nil
}

func (t *TxStore) Get(key []byte) ([]byte, error) {
	return t.current().Get(key)
}

func (t *TxStore) Set(key, value []byte) error {
	return t.current().Set(key, value)
}

func (t *TxStore) Delete(key []byte) error {
	return t.current().Delete(key)
}

func (t *TxStore) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	return t.current().Iterate(prefix, fn)
}
