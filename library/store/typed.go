package store

import (
	"encoding/binary"
	"encoding/json"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// Key joins parts into a composite map key. Every part but the last is
// length-prefixed, so keys sharing leading parts sort by the last part and
// KeyPrefix(a) selects exactly the keys whose first part is a.
func Key(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	return KeyPrefix(parts[:len(parts)-1]...) + parts[len(parts)-1]
}

// KeyPrefix length-prefixes every part, for range reads over composite keys.
func KeyPrefix(parts ...string) string {
	var sb strings.Builder
	for _, p := range parts {
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(p)))
		sb.Write(l[:])
		sb.WriteString(p)
	}
	return sb.String()
}

// SplitKey reverses Key for a key of n parts.
func SplitKey(key string, n int) ([]string, error) {
	parts := make([]string, 0, n)
	for i := 0; i < n-1; i++ {
		if len(key) < 2 {
			return nil, errorsmod.Wrap(types.ErrCorruptedStorage, "truncated key")
		}
		l := int(binary.BigEndian.Uint16([]byte(key[:2])))
		if len(key) < 2+l {
			return nil, errorsmod.Wrap(types.ErrCorruptedStorage, "truncated key part")
		}
		parts = append(parts, key[2:2+l])
		key = key[2+l:]
	}
	return append(parts, key), nil
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decode[T any](bz []byte) (T, error) {
	var v T
	if err := json.Unmarshal(bz, &v); err != nil {
		return v, errorsmod.Wrap(types.ErrCorruptedStorage, err.Error())
	}
	return v, nil
}

// Item is a single typed value.
type Item[T any] struct {
	store     KVStore
	namespace string
}

func NewItem[T any](s KVStore, namespace string) Item[T] {
	return Item[T]{store: Prefix(s, namespace), namespace: namespace}
}

func (i Item[T]) MayLoad() (T, bool, error) {
	var zero T
	bz, err := i.store.Get(nil)
	if err != nil || bz == nil {
		return zero, false, err
	}
	v, err := decode[T](bz)
	return v, err == nil, err
}

func (i Item[T]) Load() (T, error) {
	v, ok, err := i.MayLoad()
	if err != nil {
		return v, err
	}
	if !ok {
		return v, errorsmod.Wrapf(types.ErrNotFound, "%s not set", i.namespace)
	}
	return v, nil
}

func (i Item[T]) Save(v T) error {
	bz, err := encode(v)
	if err != nil {
		return err
	}
	return i.store.Set(nil, bz)
}

func (i Item[T]) Remove() error {
	return i.store.Delete(nil)
}

// Entry is one key-value pair returned by Map range reads.
type Entry[V any] struct {
	Key   string
	Value V
}

// Map is a typed collection keyed by string. Composite keys are built with Key.
type Map[V any] struct {
	store     KVStore
	namespace string
}

func NewMap[V any](s KVStore, namespace string) Map[V] {
	return Map[V]{store: Prefix(s, namespace), namespace: namespace}
}

func (m Map[V]) MayLoad(key string) (V, bool, error) {
	var zero V
	bz, err := m.store.Get([]byte(key))
	if err != nil || bz == nil {
		return zero, false, err
	}
	v, err := decode[V](bz)
	return v, err == nil, err
}

func (m Map[V]) Load(key string) (V, error) {
	v, ok, err := m.MayLoad(key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, errorsmod.Wrapf(types.ErrNotFound, "%s %q", m.namespace, key)
	}
	return v, nil
}

func (m Map[V]) Has(key string) (bool, error) {
	bz, err := m.store.Get([]byte(key))
	return bz != nil, err
}

func (m Map[V]) Save(key string, v V) error {
	bz, err := encode(v)
	if err != nil {
		return err
	}
	return m.store.Set([]byte(key), bz)
}

func (m Map[V]) Remove(key string) error {
	return m.store.Delete([]byte(key))
}

// Each calls fn for every entry whose key starts with prefix, in key order.
func (m Map[V]) Each(prefix string, fn func(key string, v V) error) error {
	return m.store.Iterate([]byte(prefix), func(key, value []byte) (bool, error) {
		v, err := decode[V](value)
		if err != nil {
			return true, err
		}
		return false, fn(string(key), v)
	})
}

// Entries returns up to limit entries with the given prefix whose key sorts
// strictly after startAfter. A limit of 0 returns every entry.
func (m Map[V]) Entries(prefix, startAfter string, limit int) ([]Entry[V], error) {
	entries := make([]Entry[V], 0)
	err := m.store.Iterate([]byte(prefix), func(key, value []byte) (bool, error) {
		if startAfter != "" && string(key) <= startAfter {
			return false, nil
		}
		v, err := decode[V](value)
		if err != nil {
			return true, err
		}
		entries = append(entries, Entry[V]{Key: string(key), Value: v})
		return limit > 0 && len(entries) >= limit, nil
	})
	return entries, err
}
