package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// RedisStore persists keys in redis. Values live under "<namespace>:d:<key>"
// and a sorted set "<namespace>:idx" holds every key with score 0, so prefix
// iteration is a ZRANGEBYLEX.
type RedisStore struct {
	ctx       context.Context
	client    redis.UniversalClient
	namespace string
}

var (
	_ KVStore = (*RedisStore)(nil)
	_ Batcher = (*RedisStore)(nil)
)

func NewRedisStore(ctx context.Context, client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{ctx: ctx, client: client, namespace: namespace}
}

func (r *RedisStore) dataKey(key []byte) string {
	return r.namespace + ":d:" + string(key)
}

func (r *RedisStore) indexKey() string {
	return r.namespace + ":idx"
}

func (r *RedisStore) Get(key []byte) ([]byte, error) {
	bz, err := r.client.Get(r.ctx, r.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if bz == nil {
		bz = []byte{}
	}
	return bz, nil
}

func (r *RedisStore) Set(key, value []byte) error {
	return r.WriteBatch([]Op{{Key: key, Value: nonNil(value)}})
}

func (r *RedisStore) Delete(key []byte) error {
	return r.WriteBatch([]Op{{Key: key}})
}

func nonNil(bz []byte) []byte {
	if bz == nil {
		return []byte{}
	}
	return bz
}

// WriteBatch applies ops in a single MULTI/EXEC.
func (r *RedisStore) WriteBatch(ops []Op) error {
	if len(ops) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(r.ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			if op.Value == nil {
				pipe.Del(r.ctx, r.dataKey(op.Key))
				pipe.ZRem(r.ctx, r.indexKey(), string(op.Key))
				continue
			}
			pipe.Set(r.ctx, r.dataKey(op.Key), op.Value, 0)
			pipe.ZAdd(r.ctx, r.indexKey(), &redis.Z{Score: 0, Member: string(op.Key)})
		}
		return nil
	})
	return err
}

// prefixEnd returns the smallest key greater than every key with prefix, or
// nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (r *RedisStore) Iterate(prefix []byte, fn func(key, value []byte) (bool, error)) error {
	rng := &redis.ZRangeBy{Min: "-", Max: "+"}
	if len(prefix) > 0 {
		rng.Min = "[" + string(prefix)
		if end := prefixEnd(prefix); end != nil {
			rng.Max = "(" + string(end)
		}
	}
	keys, err := r.client.ZRangeByLex(r.ctx, r.indexKey(), rng).Result()
	if err != nil {
		return err
	}
	for _, k := range keys {
		value, err := r.Get([]byte(k))
		if err != nil {
			return err
		}
		if value == nil {
			continue
		}
		stop, err := fn([]byte(k), value)
		if err != nil || stop {
			return err
		}
	}
	return nil
}
