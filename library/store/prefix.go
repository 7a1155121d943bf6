package store

import "encoding/binary"

// prefixStore namespaces every key of a parent store.
type prefixStore struct {
	parent KVStore
	prefix []byte
}

// Prefix returns a view of parent where every key is namespaced. Namespaces
// are length-prefixed so "a" and "ab" can never collide.
func Prefix(parent KVStore, namespace string) KVStore {
	return &prefixStore{parent: parent, prefix: namespaceKey(namespace)}
}

func namespaceKey(namespace string) []byte {
	key := make([]byte, 2, 2+len(namespace))
	binary.BigEndian.PutUint16(key, uint16(len(namespace)))
	return append(key, namespace...)
}

func (p *prefixStore) key(key []byte) []byte {
	k := make([]byte, 0, len(p.prefix)+len(key))
	k = append(k, p.prefix...)
	return append(k, key...)
}

func (p *prefixStore) Get(key []byte) ([]byte, error) {
	return p.parent.Get(p.key(key))
}

func (p *prefixStore) Set(key, value []byte) error {
	return p.parent.Set(p.key(key), value)
}

func (p *prefixStore) Delete(key []byte) error {
	return p.parent.Delete(p.key(key))
}

func (p *prefixStore) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	return p.parent.Iterate(p.key(prefix), func(key, value []byte) (bool, error) {
		return fn(key[len(p.prefix):], value)
	})
}
