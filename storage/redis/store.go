package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/session"
)

const keyPrefix = "masomo:session:"

// Store keeps each namespace in a redis hash expiring after ttl of inactivity.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ session.Provider = (*Store)(nil)

func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Open connects to redis and checks it is reachable.
func Open(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return rdb, nil
}

func (s *Store) Scope(namespace string) session.Storage {
	return &scoped{store: s, key: keyPrefix + namespace}
}

type scoped struct {
	store *Store
	key   string
}

var _ session.Storage = (*scoped)(nil)

func (sc *scoped) Get(ctx context.Context, field string) (string, error) {
	v, err := sc.store.rdb.HGet(ctx, sc.key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrNotFound
		}
		return "", errors.Wrap(err, "reading session value")
	}
	return v, nil
}

func (sc *scoped) Set(ctx context.Context, field, value string) error {
	_, err := sc.store.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sc.key, field, value)
		if sc.store.ttl > 0 {
			pipe.Expire(ctx, sc.key, sc.store.ttl)
		}
		return nil
	})
	return errors.Wrap(err, "writing session value")
}

func (sc *scoped) Delete(ctx context.Context, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return errors.Wrap(sc.store.rdb.HDel(ctx, sc.key, fields...).Err(), "deleting session values")
}
