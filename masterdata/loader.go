package masterdata

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/mmdatafocus/voucher_desk/models"
)

// PartyKey identifies one vendor or customer.
type PartyKey struct {
	Resource models.MasterResource
	Id       int
}

type partyReader struct {
	cache *Cache
}

func (r *partyReader) getNames(ctx context.Context, keys []PartyKey) []*dataloader.Result[string] {
	names := make(map[PartyKey]string)
	fetched := make(map[models.MasterResource]bool)
	for _, k := range keys {
		if fetched[k.Resource] {
			continue
		}
		fetched[k.Resource] = true
		switch k.Resource {
		case models.MasterResourceVendors:
			vendors, err := r.cache.Vendors(ctx)
			if err != nil {
				return handleError[string](len(keys), err)
			}
			for _, v := range vendors {
				names[PartyKey{k.Resource, v.Id}] = v.Name
			}
		case models.MasterResourceCustomers:
			customers, err := r.cache.Customers(ctx)
			if err != nil {
				return handleError[string](len(keys), err)
			}
			for _, c := range customers {
				names[PartyKey{k.Resource, c.Id}] = c.Name
			}
		}
	}

	results := make([]*dataloader.Result[string], 0, len(keys))
	for _, k := range keys {
		results = append(results, &dataloader.Result[string]{Data: names[k]})
	}
	return results
}

func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// NewPartyNameLoader batches name lookups against the cached lists. Unknown ids resolve to "".
// A loader memoizes its answers, so build one per search.
func (c *Cache) NewPartyNameLoader() *dataloader.Loader[PartyKey, string] {
	reader := &partyReader{cache: c}
	return dataloader.NewBatchedLoader(reader.getNames, dataloader.WithWait[PartyKey, string](time.Millisecond))
}

// PartyNames resolves the names of ids in the list entity links to.
func (c *Cache) PartyNames(ctx context.Context, entity models.EntityType, ids []int) (map[int]string, error) {
	resource := entity.PartyResource()
	out := make(map[int]string, len(ids))
	if resource == "" || len(ids) == 0 {
		return out, nil
	}
	keys := make([]PartyKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, PartyKey{Resource: resource, Id: id})
	}
	names, errs := c.NewPartyNameLoader().LoadMany(ctx, keys)()
	for i, id := range ids {
		if len(errs) > i && errs[i] != nil {
			return nil, errs[i]
		}
		out[id] = names[i]
	}
	return out, nil
}
