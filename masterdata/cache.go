package masterdata

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Fetcher reads the master lists from the backend.
type Fetcher interface {
	Vendors(ctx context.Context) ([]models.Vendor, error)
	Customers(ctx context.Context) ([]models.Customer, error)
	Products(ctx context.Context) ([]models.Product, error)
}

// Cache is the shared read-mostly cache of vendor, customer and product lists.
// Invalidate followed by a refetch is the only way an entry changes.
type Cache struct {
	fetcher Fetcher
	store   Store
	logger  *logrus.Logger
	group   singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

type Option func(*Cache)

func WithStore(store Store) Option {
	return func(c *Cache) { c.store = store }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:     fetcher,
		store:       NewLRUStore(64, 0),
		logger:      config.GetLogger(),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if config.MasterCacheDisabled() {
		c.store = nopStore{}
	}
	return c
}

// Key is the store key of resource for the tenant carried by ctx.
func Key(ctx context.Context, resource models.MasterResource) string {
	tenant, ok := utils.GetTenantIdFromContext(ctx)
	if !ok || tenant == "" {
		tenant = "default"
	}
	return "MasterList:" + tenant + ":" + string(resource)
}

func (c *Cache) Vendors(ctx context.Context) ([]models.Vendor, error) {
	return load(ctx, c, models.MasterResourceVendors, c.fetcher.Vendors)
}

func (c *Cache) Customers(ctx context.Context) ([]models.Customer, error) {
	return load(ctx, c, models.MasterResourceCustomers, c.fetcher.Customers)
}

func (c *Cache) Products(ctx context.Context) ([]models.Product, error) {
	return load(ctx, c, models.MasterResourceProducts, c.fetcher.Products)
}

// Invalidate drops the given lists (all of them when none is named); the next read refetches.
func (c *Cache) Invalidate(ctx context.Context, resources ...models.MasterResource) error {
	if len(resources) == 0 {
		resources = models.AllMasterResources()
	}
	keys := make([]string, 0, len(resources))
	c.mu.Lock()
	for _, r := range resources {
		key := Key(ctx, r)
		c.generations[key]++
		c.group.Forget(key)
		keys = append(keys, key)
	}
	c.mu.Unlock()
	return c.store.Delete(ctx, keys...)
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// load shares one fetch per key between concurrent callers. The fetch is detached from the
// caller's cancellation so one caller giving up does not fail the others waiting on it.
func load[T any](ctx context.Context, c *Cache, resource models.MasterResource, fetch func(context.Context) ([]T, error)) ([]T, error) {
	key := Key(ctx, resource)
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if items, ok := readStore[T](fetchCtx, c, key); ok {
			return items, nil
		}
		if locker, ok := c.store.(Locker); ok {
			unlock, err := locker.Lock(fetchCtx, key)
			switch {
			case err == nil:
				defer unlock()
				// another process may have refilled the key while we waited
				if items, ok := readStore[T](fetchCtx, c, key); ok {
					return items, nil
				}
			case errors.Is(err, redislock.ErrNotObtained):
				c.logger.WithFields(logrus.Fields{"key": key}).Warn("could not obtain master list lock; fetching anyway")
			default:
				config.LogError(c.logger, "masterdata", "load", "obtain lock", key, err)
			}
		}

		gen := c.generation(key)
		items, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []T{}
		}
		if gen == c.generation(key) {
			if data, err := json.Marshal(items); err == nil {
				if err := c.store.Set(fetchCtx, key, data); err != nil {
					config.LogError(c.logger, "masterdata", "load", "store master list", key, err)
				}
			}
		}
		return items, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]T)), nil
	}
}

func readStore[T any](ctx context.Context, c *Cache, key string) ([]T, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		config.LogError(c.logger, "masterdata", "readStore", "read master list", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		config.LogError(c.logger, "masterdata", "readStore", "decode master list", key, err)
		return nil, false
	}
	return items, true
}
