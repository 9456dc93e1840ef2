package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineItemRecompute_Scenario(t *testing.T) {
	item := LineItem{
		Quantity:           dec("2"),
		UnitPrice:          dec("100"),
		DiscountPercentage: dec("10"),
		GstRate:            dec("18"),
	}
	item.Recompute()

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"discount_amount", item.DiscountAmount, "20"},
		{"taxable_amount", item.TaxableAmount, "180"},
		{"gst", item.GstAmount(), "32.4"},
		{"cgst_amount", item.CgstAmount, "16.2"},
		{"sgst_amount", item.SgstAmount, "16.2"},
		{"igst_amount", item.IgstAmount, "0"},
		{"total_amount", item.TotalAmount, "212.4"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Fatalf("%s expected %s, got %s", c.name, c.want, c.got)
		}
	}
}

func TestLineItemRecompute_Properties(t *testing.T) {
	cases := []struct {
		qty, price, disc, rate string
	}{
		{"1", "0.333", "0", "5"},
		{"3", "33.333", "7.5", "12"},
		{"17", "19.99", "12.5", "28"},
		{"0", "100", "10", "18"},
		{"2.5", "1999.95", "0", "0"},
	}
	for _, tc := range cases {
		item := LineItem{Quantity: dec(tc.qty), UnitPrice: dec(tc.price), DiscountPercentage: dec(tc.disc), GstRate: dec(tc.rate)}
		item.Recompute()

		gst := item.GstAmount()
		if !item.TotalAmount.Equal(item.TaxableAmount.Add(gst)) {
			t.Fatalf("%+v: total %s != taxable %s + gst %s", tc, item.TotalAmount, item.TaxableAmount, gst)
		}
		if !item.CgstAmount.Equal(item.SgstAmount) || !item.CgstAmount.Equal(gst.Div(decimal.NewFromInt(2))) {
			t.Fatalf("%+v: cgst %s sgst %s gst %s", tc, item.CgstAmount, item.SgstAmount, gst)
		}
		if !item.IgstAmount.IsZero() {
			t.Fatalf("%+v: igst expected 0, got %s", tc, item.IgstAmount)
		}

		before := item
		item.Recompute()
		if !item.TotalAmount.Equal(before.TotalAmount) || !item.TaxableAmount.Equal(before.TaxableAmount) || !item.CgstAmount.Equal(before.CgstAmount) {
			t.Fatalf("%+v: recompute is not idempotent", tc)
		}
	}
}

func TestLineItemSet_RejectsDerivedFields(t *testing.T) {
	item := NewLineItem()
	for key := range derivedItemFields {
		if err := item.Set(key, "10"); !errors.Is(err, ErrDerivedField) {
			t.Fatalf("Set(%q) expected ErrDerivedField, got %v", key, err)
		}
	}
}

func TestLineItemSet_FormattedInput(t *testing.T) {
	item := NewLineItem()
	if err := item.Set(ItemUnitPrice, "₹ 1,200.50"); err != nil {
		t.Fatalf("Set unit_price: %v", err)
	}
	if !item.UnitPrice.Equal(dec("1200.5")) {
		t.Fatalf("unit_price expected 1200.5, got %s", item.UnitPrice)
	}
	if err := item.Set(ItemQuantity, "two"); err == nil {
		t.Fatalf("expected error for non numeric quantity")
	}
	if err := item.Set(ItemProductId, "42"); err != nil || item.ProductId == nil || *item.ProductId != 42 {
		t.Fatalf("product_id expected 42, got %v (err %v)", item.ProductId, err)
	}
	if err := item.Set("hsn_code", "8471"); err != nil {
		t.Fatalf("Set hsn_code: %v", err)
	}
	if v, ok := item.Value("hsn_code"); !ok || v != "8471" {
		t.Fatalf("hsn_code expected 8471, got %v", v)
	}
}

func TestLineItemJSON_KeepsUnknownFieldsAndQuoting(t *testing.T) {
	in := `{"product_id":5,"hsn_code":"8471","unit":"Nos","quantity":"2.00","unit_price":100,"discount_percentage":0,"gst_rate":18,"batch":{"no":"B1"}}`
	var item LineItem
	if err := json.Unmarshal([]byte(in), &item); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if item.ProductId == nil || *item.ProductId != 5 {
		t.Fatalf("product_id expected 5, got %v", item.ProductId)
	}
	item.Recompute()

	out, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded["unit"] != "Nos" || decoded["hsn_code"] != "8471" {
		t.Fatalf("unknown fields lost: %s", out)
	}
	if batch, ok := decoded["batch"].(map[string]any); !ok || batch["no"] != "B1" {
		t.Fatalf("nested unknown field lost: %s", out)
	}
	if decoded["quantity"] != "2" {
		t.Fatalf("quoted quantity expected to stay a string, got %#v", decoded["quantity"])
	}
	if decoded["total_amount"] != 236.0 {
		t.Fatalf("total_amount expected 236, got %#v", decoded["total_amount"])
	}
}
