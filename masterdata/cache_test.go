package masterdata

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/mmdatafocus/voucher_desk/utils"
)

type fakeFetcher struct {
	mu        sync.Mutex
	vendors   []models.Vendor
	customers []models.Customer
	products  []models.Product
	err       error

	vendorCalls atomic.Int32
	// when set, Vendors blocks until it is closed
	gate chan struct{}
	// signalled once per Vendors call
	entered chan struct{}
}

func (f *fakeFetcher) Vendors(ctx context.Context) ([]models.Vendor, error) {
	f.vendorCalls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Vendor(nil), f.vendors...), nil
}

func (f *fakeFetcher) Customers(ctx context.Context) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Customer(nil), f.customers...), f.err
}

func (f *fakeFetcher) Products(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Product(nil), f.products...), f.err
}

func (f *fakeFetcher) setVendors(v ...models.Vendor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vendors = v
}

func vendor(id int, name string) models.Vendor {
	return models.Vendor{Party: models.Party{Id: id, Name: name}}
}

func customer(id int, name string) models.Customer {
	return models.Customer{Party: models.Party{Id: id, Name: name}}
}

func TestCacheReadThrough(t *testing.T) {
	f := &fakeFetcher{vendors: []models.Vendor{vendor(1, "Acme")}}
	c := New(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Vendors(ctx)
		if err != nil {
			t.Fatalf("Vendors: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Acme" {
			t.Fatalf("unexpected vendors %+v", got)
		}
	}
	if n := f.vendorCalls.Load(); n != 1 {
		t.Fatalf("expected 1 fetch, got %d", n)
	}
}

func TestCacheInvalidateRefetches(t *testing.T) {
	f := &fakeFetcher{vendors: []models.Vendor{vendor(1, "Acme")}}
	c := New(f)
	ctx := context.Background()

	if _, err := c.Vendors(ctx); err != nil {
		t.Fatalf("Vendors: %v", err)
	}
	f.setVendors(vendor(1, "Acme"), vendor(2, "Globex"))
	if err := c.Invalidate(ctx, models.MasterResourceVendors); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	got, err := c.Vendors(ctx)
	if err != nil {
		t.Fatalf("Vendors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected refetched list of 2, got %+v", got)
	}
	if n := f.vendorCalls.Load(); n != 2 {
		t.Fatalf("expected 2 fetches, got %d", n)
	}
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	f := &fakeFetcher{
		vendors: []models.Vendor{vendor(1, "Acme")},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 16),
	}
	c := New(f)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Vendors(ctx); err != nil {
				errs <- err
			}
		}()
	}
	<-f.entered
	// give the other readers time to join the flight
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Vendors: %v", err)
	}
	if n := f.vendorCalls.Load(); n != 1 {
		t.Fatalf("expected concurrent misses to share 1 fetch, got %d", n)
	}
}

func TestCacheInvalidateDuringFetchDoesNotStoreStaleList(t *testing.T) {
	f := &fakeFetcher{
		vendors: []models.Vendor{vendor(1, "Old")},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	c := New(f)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Vendors(ctx)
	}()
	<-f.entered
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	close(f.gate)
	<-done

	f.gate = nil
	f.setVendors(vendor(1, "New"))
	got, err := c.Vendors(ctx)
	if err != nil {
		t.Fatalf("Vendors: %v", err)
	}
	if len(got) != 1 || got[0].Name != "New" {
		t.Fatalf("expected fresh list after invalidation, got %+v", got)
	}
}

func TestCacheErrorIsNotCached(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	c := New(f)
	ctx := context.Background()

	if _, err := c.Vendors(ctx); err == nil {
		t.Fatalf("expected error")
	}
	f.mu.Lock()
	f.err = nil
	f.vendors = []models.Vendor{vendor(3, "Initech")}
	f.mu.Unlock()

	got, err := c.Vendors(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected recovery after error, got %+v, %v", got, err)
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	f := &fakeFetcher{vendors: []models.Vendor{vendor(1, "Acme")}}
	c := New(f)
	ctx := context.Background()

	got, _ := c.Vendors(ctx)
	got[0].Name = "Changed"
	again, _ := c.Vendors(ctx)
	if again[0].Name != "Acme" {
		t.Fatalf("cached list was mutated through a returned slice")
	}
}

func TestCacheDisabledAlwaysFetches(t *testing.T) {
	t.Setenv("MASTER_CACHE_DISABLED", "true")
	f := &fakeFetcher{vendors: []models.Vendor{vendor(1, "Acme")}}
	c := New(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Vendors(ctx); err != nil {
			t.Fatalf("Vendors: %v", err)
		}
	}
	if n := f.vendorCalls.Load(); n != 3 {
		t.Fatalf("expected 3 fetches with cache disabled, got %d", n)
	}
}

func TestKeyIsScopedByTenant(t *testing.T) {
	ctx := context.Background()
	if got := Key(ctx, models.MasterResourceProducts); got != "MasterList:default:products" {
		t.Fatalf("unexpected key %q", got)
	}
	ctx = utils.SetTenantIdInContext(ctx, "42")
	if got := Key(ctx, models.MasterResourceVendors); got != "MasterList:42:vendors" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestLRUStore(t *testing.T) {
	s := NewLRUStore(2, time.Minute)
	ctx := context.Background()
	_ = s.Set(ctx, "a", []byte("1"))
	_ = s.Set(ctx, "b", []byte("2"))
	_ = s.Set(ctx, "c", []byte("3"))

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("expected oldest key to be evicted")
	}
	if v, ok, _ := s.Get(ctx, "c"); !ok || string(v) != "3" {
		t.Fatalf("expected c=3, got %q %v", v, ok)
	}
	_ = s.Delete(ctx, "b", "c")
	if _, ok, _ := s.Get(ctx, "b"); ok {
		t.Fatalf("expected b to be deleted")
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	ctx := context.Background()
	client, err := config.ConnectRedisWithRetry(ctx, addr, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer config.CloseRedis()

	ctx = utils.SetTenantIdInContext(ctx, "test-"+time.Now().Format("150405.000000"))
	store := NewRedisStore(client, config.GetRedisLock(), time.Minute)
	f := &fakeFetcher{vendors: []models.Vendor{vendor(1, "Acme")}}
	c := New(f, WithStore(store))
	defer c.Invalidate(ctx)

	if _, err := c.Vendors(ctx); err != nil {
		t.Fatalf("Vendors: %v", err)
	}
	// a second cache over the same store reads what the first one stored
	other := New(f, WithStore(store))
	if _, err := other.Vendors(ctx); err != nil {
		t.Fatalf("Vendors: %v", err)
	}
	if n := f.vendorCalls.Load(); n != 1 {
		t.Fatalf("expected the shared store to serve the second cache, got %d fetches", n)
	}

	unlock, err := store.Lock(ctx, Key(ctx, models.MasterResourceVendors))
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()
}

func TestCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	f := &fakeFetcher{
		vendors: []models.Vendor{vendor(1, "Acme")},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 4),
	}
	c := New(f)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Vendors(leaderCtx)
		leaderErr <- err
	}()
	<-f.entered

	type result struct {
		vendors []models.Vendor
		err     error
	}
	other := make(chan result, 1)
	go func() {
		v, err := c.Vendors(context.Background())
		other <- result{v, err}
	}()
	// let the second reader join the flight
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller expected context.Canceled, got %v", err)
	}
	close(f.gate)

	res := <-other
	if res.err != nil {
		t.Fatalf("live caller failed with %v", res.err)
	}
	if len(res.vendors) != 1 || res.vendors[0].Name != "Acme" {
		t.Fatalf("unexpected vendors %+v", res.vendors)
	}
	if n := f.vendorCalls.Load(); n != 1 {
		t.Fatalf("expected 1 shared fetch, got %d", n)
	}
	if _, err := c.Vendors(context.Background()); err != nil || f.vendorCalls.Load() != 1 {
		t.Fatalf("the shared fetch should have filled the cache: err=%v calls=%d", err, f.vendorCalls.Load())
	}
}
