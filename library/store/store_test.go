package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satlayer/satlayer-restaking/library/types"
)

func collect(t *testing.T, s KVStore, prefix string) []string {
	var keys []string
	err := s.Iterate([]byte(prefix), func(key, value []byte) (bool, error) {
		keys = append(keys, string(key)+"="+string(value))
		return false, nil
	})
	require.NoError(t, err)
	return keys
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, s.Set([]byte("b"), []byte("2")))
	require.NoError(t, s.Set([]byte("a"), []byte("1")))
	require.NoError(t, s.Set([]byte("c"), []byte("3")))

	v, err := s.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	v, err = s.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, collect(t, s, ""))

	require.NoError(t, s.Delete([]byte("b")))
	assert.Equal(t, []string{"a=1", "c=3"}, collect(t, s, ""))
	assert.Equal(t, 2, s.Len())
}

func TestBranch(t *testing.T) {
	parent := NewMemStore()
	require.NoError(t, parent.Set([]byte("k1"), []byte("p1")))
	require.NoError(t, parent.Set([]byte("k2"), []byte("p2")))

	b := NewBranch(parent)
	require.NoError(t, b.Set([]byte("k1"), []byte("b1")))
	require.NoError(t, b.Delete([]byte("k2")))
	require.NoError(t, b.Set([]byte("k3"), []byte("b3")))

	assert.Equal(t, []string{"k1=b1", "k3=b3"}, collect(t, b, "k"))
	assert.Equal(t, []string{"k1=p1", "k2=p2"}, collect(t, parent, "k"))

	require.NoError(t, b.Write())
	assert.Equal(t, []string{"k1=b1", "k3=b3"}, collect(t, parent, "k"))
	assert.Empty(t, b.Ops())
}

func TestTxStore(t *testing.T) {
	backend := NewMemStore()
	tx := NewTxStore(backend)

	t.Run("writes outside a transaction reach the backend", func(t *testing.T) {
		require.NoError(t, tx.Set([]byte("genesis"), []byte("1")))
		v, err := backend.Get([]byte("genesis"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
	})

	t.Run("rollback leaves no trace", func(t *testing.T) {
		require.NoError(t, tx.Begin())
		require.NoError(t, tx.Set([]byte("x"), []byte("1")))
		require.NoError(t, tx.Delete([]byte("genesis")))
		tx.Rollback()
		assert.False(t, tx.InTx())

		v, err := tx.Get([]byte("x"))
		require.NoError(t, err)
		assert.Nil(t, v)
		v, err = tx.Get([]byte("genesis"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
	})

	t.Run("commit applies every write", func(t *testing.T) {
		require.NoError(t, tx.Begin())
		assert.ErrorIs(t, tx.Begin(), ErrTxInProgress)
		require.NoError(t, tx.Set([]byte("x"), []byte("1")))
		require.NoError(t, tx.Commit())
		v, err := backend.Get([]byte("x"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
		assert.ErrorIs(t, tx.Commit(), ErrNoTx)
	})
}

func TestPrefix(t *testing.T) {
	parent := NewMemStore()
	a := Prefix(parent, "a")
	ab := Prefix(parent, "ab")
	require.NoError(t, a.Set([]byte("bk"), []byte("1")))
	require.NoError(t, ab.Set([]byte("k"), []byte("2")))

	assert.Equal(t, []string{"bk=1"}, collect(t, a, ""))
	assert.Equal(t, []string{"k=2"}, collect(t, ab, ""))
	assert.Equal(t, 2, parent.Len())
}

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestItem(t *testing.T) {
	item := NewItem[record](NewMemStore(), "config")

	_, ok, err := item.MayLoad()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = item.Load()
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, item.Save(record{Name: "n", Count: 1}))
	got, err := item.Load()
	require.NoError(t, err)
	assert.Equal(t, record{Name: "n", Count: 1}, got)

	require.NoError(t, item.Remove())
	_, ok, err = item.MayLoad()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestItemCorrupted(t *testing.T) {
	s := NewMemStore()
	require.NoError(t, Prefix(s, "config").Set(nil, []byte("{not json")))
	_, err := NewItem[record](s, "config").Load()
	assert.ErrorIs(t, err, types.ErrCorruptedStorage)
}

func TestMap(t *testing.T) {
	m := NewMap[int](NewMemStore(), "shares")
	require.NoError(t, m.Save(Key("vault1", "alice"), 10))
	require.NoError(t, m.Save(Key("vault1", "bob"), 20))
	require.NoError(t, m.Save(Key("vault2", "alice"), 30))

	has, err := m.Has(Key("vault1", "bob"))
	require.NoError(t, err)
	assert.True(t, has)

	_, err = m.Load(Key("vault3", "bob"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	entries, err := m.Entries(KeyPrefix("vault1"), "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	parts, err := SplitKey(entries[1].Key, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"vault1", "bob"}, parts)
	assert.Equal(t, 20, entries[1].Value)

	entries, err = m.Entries("", Key("vault1", "alice"), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Key("vault1", "bob"), entries[0].Key)

	sum := 0
	require.NoError(t, m.Each("", func(_ string, v int) error {
		sum += v
		return nil
	}))
	assert.Equal(t, 60, sum)

	require.NoError(t, m.Remove(Key("vault1", "alice")))
	_, ok, err := m.MayLoad(Key("vault1", "alice"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSplitKey(t *testing.T) {
	parts, err := SplitKey(Key("", "a", "bc"), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a", "bc"}, parts)

	_, err = SplitKey("\x00\x05ab", 2)
	assert.ErrorIs(t, err, types.ErrCorruptedStorage)
}

func TestSnapshotMap(t *testing.T) {
	m := NewSnapshotMap[uint64](NewMemStore(), "members")
	require.NoError(t, m.Save("alice", 10, 1))
	require.NoError(t, m.Save("alice", 20, 5))
	require.NoError(t, m.Save("bob", 15, 2))
	require.NoError(t, m.Remove("alice", 30))

	tests := []struct {
		key   string
		at    int64
		want  uint64
		found bool
	}{
		{"alice", 9, 0, false},
		{"alice", 10, 1, true},
		{"alice", 19, 1, true},
		{"alice", 20, 5, true},
		{"alice", 29, 5, true},
		{"alice", 30, 0, false},
		{"bob", 14, 0, false},
		{"bob", 100, 2, true},
	}
	for _, tt := range tests {
		got, ok, err := m.MayLoadAt(tt.key, tt.at)
		require.NoError(t, err)
		assert.Equal(t, tt.found, ok, "%s@%d", tt.key, tt.at)
		assert.Equal(t, tt.want, got, "%s@%d", tt.key, tt.at)
	}

	_, ok, err := m.MayLoad("alice")
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := m.Entries("", "", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].Key)

	assert.ErrorIs(t, m.Save("bob", -1, 1), types.ErrInvalidInput)
}
