package masterdata

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Store keeps encoded master lists by key. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Locker is implemented by stores shared between processes, so only one of them refills a key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LRUStore is the in-process store.
type LRUStore struct {
	cache *expirable.LRU[string, []byte]
}

func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	return &LRUStore{cache: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.cache.Get(key)
	return v, ok, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, value)
	return nil
}

func (s *LRUStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.cache.Remove(k)
	}
	return nil
}

// RedisStore shares master lists between every client of a tenant.
type RedisStore struct {
	client  *redis.Client
	locker  *redislock.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *redis.Client, locker *redislock.Client, ttl time.Duration) *RedisStore {
	if locker == nil {
		locker = redislock.New(client)
	}
	return &RedisStore{client: client, locker: locker, ttl: ttl, lockTTL: 30 * time.Second}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Lock waits up to the lock ttl for the refill lock of key.
func (s *RedisStore) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := s.locker.Obtain(ctx, "lock:"+key, s.lockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), int(s.lockTTL/(100*time.Millisecond))),
	})
	if err != nil {
		return nil, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

type nopStore struct{}

func (nopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nopStore) Set(context.Context, string, []byte) error         { return nil }
func (nopStore) Delete(context.Context, ...string) error           { return nil }
