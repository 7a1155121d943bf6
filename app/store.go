package app

import (
	"context"

	errorsmod "cosmossdk.io/errors"
	"github.com/go-redis/redis/v8"

	"github.com/satlayer/satlayer-restaking/conf"
	"github.com/satlayer/satlayer-restaking/library/store"
	"github.com/satlayer/satlayer-restaking/library/types"
)

// OpenStore returns the configured backend and a func releasing it.
func OpenStore(ctx context.Context, cfg conf.StoreConfig) (store.KVStore, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemStore(), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errorsmod.Wrapf(types.ErrInvalidInput, "redis %s: %v", cfg.RedisAddr, err)
		}
		return store.NewRedisStore(ctx, client, cfg.Namespace), client.Close, nil
	}
	return nil, nil, errorsmod.Wrapf(types.ErrInvalidInput, "unknown store backend %q", cfg.Backend)
}
