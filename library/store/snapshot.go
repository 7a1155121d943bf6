package store

import (
	"fmt"
	"strconv"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/types"
)

type checkpoint[V any] struct {
	Value   V    `json:"value"`
	Removed bool `json:"removed,omitempty"`
}

// SnapshotMap is a Map whose history is queryable. Every write appends a
// checkpoint at a point (block height or unix seconds) and earlier
// checkpoints are never overwritten, only superseded.
type SnapshotMap[V any] struct {
	primary   Map[V]
	changelog Map[checkpoint[V]]
}

func NewSnapshotMap[V any](s KVStore, namespace string) SnapshotMap[V] {
	return SnapshotMap[V]{
		primary:   NewMap[V](s, namespace),
		changelog: NewMap[checkpoint[V]](s, namespace+"__changelog"),
	}
}

func point(at int64) string {
	return fmt.Sprintf("%020d", at)
}

func (m SnapshotMap[V]) Save(key string, at int64, v V) error {
	if at < 0 {
		return errorsmod.Wrapf(types.ErrInvalidInput, "negative checkpoint %d", at)
	}
	if err := m.primary.Save(key, v); err != nil {
		return err
	}
	return m.changelog.Save(Key(key, point(at)), checkpoint[V]{Value: v})
}

func (m SnapshotMap[V]) Remove(key string, at int64) error {
	if at < 0 {
		return errorsmod.Wrapf(types.ErrInvalidInput, "negative checkpoint %d", at)
	}
	if err := m.primary.Remove(key); err != nil {
		return err
	}
	return m.changelog.Save(Key(key, point(at)), checkpoint[V]{Removed: true})
}

// MayLoad returns the latest value.
func (m SnapshotMap[V]) MayLoad(key string) (V, bool, error) {
	return m.primary.MayLoad(key)
}

// MayLoadAt returns the value as of the last checkpoint at or before at.
func (m SnapshotMap[V]) MayLoadAt(key string, at int64) (V, bool, error) {
	var (
		found checkpoint[V]
		ok    bool
	)
	prefix := KeyPrefix(key)
	err := m.changelog.store.Iterate([]byte(prefix), func(k, value []byte) (bool, error) {
		h, err := strconv.ParseInt(string(k[len(prefix):]), 10, 64)
		if err != nil {
			return true, errorsmod.Wrap(types.ErrCorruptedStorage, err.Error())
		}
		if h > at {
			return true, nil
		}
		found, err = decode[checkpoint[V]](value)
		ok = err == nil
		return false, err
	})
	var zero V
	if err != nil || !ok || found.Removed {
		return zero, false, err
	}
	return found.Value, true, nil
}

// Each iterates the latest values.
func (m SnapshotMap[V]) Each(prefix string, fn func(key string, v V) error) error {
	return m.primary.Each(prefix, fn)
}

func (m SnapshotMap[V]) Entries(prefix, startAfter string, limit int) ([]Entry[V], error) {
	return m.primary.Entries(prefix, startAfter, limit)
}
