package config

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
	rdbMu  sync.RWMutex
)

// GetRedisDB returns nil until ConnectRedisWithRetry succeeded.
func GetRedisDB() *redis.Client {
	rdbMu.RLock()
	defer rdbMu.RUnlock()
	return rdb
}

// GetRedisLock returns nil until ConnectRedisWithRetry succeeded.
func GetRedisLock() *redislock.Client {
	rdbMu.RLock()
	defer rdbMu.RUnlock()
	return locker
}

// ConnectRedisWithRetry connects and sets the shared Redis client.
// It gives up after attempts tries, backing off between them.
func ConnectRedisWithRetry(ctx context.Context, redisAddr string, attempts int) (*redis.Client, error) {
	if redisAddr == "" {
		return nil, errors.New("redis address is empty")
	}
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: "",
			DB:       0, // use default DB
			PoolSize: 10,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			rdbMu.Lock()
			rdb = client
			locker = redislock.New(client)
			rdbMu.Unlock()
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		if attempt == attempts {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, lastErr
}

// CloseRedis releases the shared client, if any.
func CloseRedis() error {
	rdbMu.Lock()
	defer rdbMu.Unlock()
	if rdb == nil {
		return nil
	}
	err := rdb.Close()
	rdb = nil
	locker = nil
	return err
}
