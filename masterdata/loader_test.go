package masterdata

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/voucher_desk/models"
)

func TestPartyNames(t *testing.T) {
	f := &fakeFetcher{
		vendors:   []models.Vendor{vendor(1, "Acme"), vendor(2, "Globex")},
		customers: []models.Customer{customer(1, "Initech")},
	}
	c := New(f)
	ctx := context.Background()

	tests := []struct {
		entity models.EntityType
		ids    []int
		want   map[int]string
	}{
		{models.EntityTypePurchase, []int{1, 2, 9}, map[int]string{1: "Acme", 2: "Globex", 9: ""}},
		{models.EntityTypeSales, []int{1}, map[int]string{1: "Initech"}},
		{models.EntityTypeFinancial, []int{1}, map[int]string{}},
		{models.EntityTypePurchase, nil, map[int]string{}},
	}
	for _, tc := range tests {
		got, err := c.PartyNames(ctx, tc.entity, tc.ids)
		if err != nil {
			t.Fatalf("PartyNames(%s): %v", tc.entity, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("PartyNames(%s, %v) = %v, want %v", tc.entity, tc.ids, got, tc.want)
		}
		for id, name := range tc.want {
			if got[id] != name {
				t.Fatalf("PartyNames(%s)[%d] = %q, want %q", tc.entity, id, got[id], name)
			}
		}
	}
	if n := f.vendorCalls.Load(); n != 1 {
		t.Fatalf("expected vendor list fetched once, got %d", n)
	}
}

func TestPartyNamesPropagatesFetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("backend down")}
	c := New(f)
	if _, err := c.PartyNames(context.Background(), models.EntityTypePurchase, []int{1}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPartyNameLoaderBatchesMixedResources(t *testing.T) {
	f := &fakeFetcher{
		vendors:   []models.Vendor{vendor(5, "Acme")},
		customers: []models.Customer{customer(5, "Initech")},
	}
	c := New(f)
	loader := c.NewPartyNameLoader()
	ctx := context.Background()

	vendorThunk := loader.Load(ctx, PartyKey{models.MasterResourceVendors, 5})
	customerThunk := loader.Load(ctx, PartyKey{models.MasterResourceCustomers, 5})
	v, err := vendorThunk()
	if err != nil || v != "Acme" {
		t.Fatalf("vendor name = %q, %v", v, err)
	}
	cu, err := customerThunk()
	if err != nil || cu != "Initech" {
		t.Fatalf("customer name = %q, %v", cu, err)
	}
}
