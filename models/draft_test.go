package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/shopspring/decimal"
)

var testToday = time.Date(2024, 4, 1, 10, 30, 0, 0, time.UTC)

func TestNewDraft_Defaults(t *testing.T) {
	po := NewDraft(MustConfig("purchase-order"), testToday)
	if len(po.Items) != 1 {
		t.Fatalf("expected one blank item, got %d", len(po.Items))
	}
	if v, ok := po.Header["vendor_id"]; !ok || v != nil {
		t.Fatalf("expected vendor_id default nil, got %v (present %v)", v, ok)
	}
	if po.String(FieldDate) != "2024-04-01" {
		t.Fatalf("expected date 2024-04-01, got %s", po.String(FieldDate))
	}

	contra := NewDraft(MustConfig("contra-voucher"), testToday)
	if contra.Items != nil {
		t.Fatalf("header only draft should not carry items")
	}
	for _, k := range []string{FieldFromAccount, FieldToAccount, "payment_method", "receipt_method"} {
		if _, ok := contra.Header[k]; !ok {
			t.Fatalf("expected default header field %s", k)
		}
	}
}

func TestDraftSetField_ScenarioTotals(t *testing.T) {
	d := NewDraft(MustConfig("purchase-voucher"), testToday)
	edits := []struct {
		path  string
		value any
	}{
		{"voucher_number", "PV/2024/0042"},
		{"vendor_id", "3"},
		{"items.0.product_id", 9},
		{"items.0.quantity", "2"},
		{"items[0].unit_price", 100},
		{"items.0.discount_percentage", json.Number("10")},
		{"items.0.gst_rate", 18.0},
	}
	for _, e := range edits {
		if err := d.SetField(e.path, e.value); err != nil {
			t.Fatalf("SetField(%s): %v", e.path, err)
		}
	}
	item := d.Items[0]
	if !item.TaxableAmount.Equal(dec("180")) || !item.GstAmount().Equal(dec("32.4")) || !item.TotalAmount.Equal(dec("212.4")) {
		t.Fatalf("unexpected line: taxable %s gst %s total %s", item.TaxableAmount, item.GstAmount(), item.TotalAmount)
	}
	if !d.Totals.GrandTotal.Equal(dec("212.4")) || !d.Totals.Subtotal.Equal(dec("200")) || !d.Totals.TotalGst.Equal(dec("32.4")) {
		t.Fatalf("unexpected totals: %+v", d.Totals)
	}
	if d.Header["vendor_id"] != 3 {
		t.Fatalf("vendor_id expected 3, got %#v", d.Header["vendor_id"])
	}
	if err := d.Validate(MustConfig("purchase-voucher")); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}
}

func TestDraftSetField_Errors(t *testing.T) {
	d := NewDraft(MustConfig("sales-voucher"), testToday)
	if err := d.SetField("items.0.total_amount", 5); !errors.Is(err, ErrDerivedField) {
		t.Fatalf("expected ErrDerivedField, got %v", err)
	}
	if err := d.SetField("total_amount", 5); !errors.Is(err, ErrDerivedField) {
		t.Fatalf("expected ErrDerivedField for line item voucher total, got %v", err)
	}
	if err := d.SetField("items.3.quantity", 1); !errors.Is(err, ErrItemOutOfRange) {
		t.Fatalf("expected ErrItemOutOfRange, got %v", err)
	}
	if err := d.SetField("items.x.quantity", 1); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}

	header := NewDraft(MustConfig("payment-voucher"), testToday)
	if err := header.SetField("items.0.quantity", 1); !errors.Is(err, ErrNoLineItems) {
		t.Fatalf("expected ErrNoLineItems, got %v", err)
	}
	if err := header.SetField("total_amount", "1,500.25"); err != nil {
		t.Fatalf("SetField total_amount: %v", err)
	}
	if !header.Totals.GrandTotal.Equal(dec("1500.25")) {
		t.Fatalf("header only grand total expected 1500.25, got %s", header.Totals.GrandTotal)
	}
}

func TestDraftTotals_RoundPerLineBeforeSum(t *testing.T) {
	d := NewDraft(MustConfig("sales-order"), testToday)
	if err := d.AddItem(); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	for i := range d.Items {
		_ = d.SetField("items."+string(rune('0'+i))+".quantity", 1)
		_ = d.SetField("items."+string(rune('0'+i))+".unit_price", "0.335")
	}
	// each line rounds 0.335 to 0.34 before the voucher sum
	if !d.Totals.GrandTotal.Equal(dec("0.68")) {
		t.Fatalf("grand total expected 0.68, got %s", d.Totals.GrandTotal)
	}
	if !d.Totals.Subtotal.Equal(dec("0.67")) {
		t.Fatalf("subtotal expected 0.67, got %s", d.Totals.Subtotal)
	}
}

func TestDraftTotals_SumsAndIdempotence(t *testing.T) {
	d := NewDraft(MustConfig("quotation"), testToday)
	rows := [][3]string{{"2", "100", "18"}, {"5", "12.49", "5"}, {"1", "999.99", "28"}}
	for i, r := range rows {
		if i > 0 {
			_ = d.AddItem()
		}
		idx := string(rune('0' + i))
		_ = d.SetField("items."+idx+".quantity", r[0])
		_ = d.SetField("items."+idx+".unit_price", r[1])
		_ = d.SetField("items."+idx+".gst_rate", r[2])
	}
	subtotal, grand := dec("0"), dec("0")
	for _, item := range d.Items {
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
		grand = grand.Add(item.TotalAmount)
	}
	if !d.Totals.Subtotal.Equal(subtotal) || !d.Totals.GrandTotal.Equal(grand) {
		t.Fatalf("totals %+v do not match sums subtotal %s grand %s", d.Totals, subtotal, grand)
	}

	before := d.Clone()
	d.Recompute()
	d.Recompute()
	if !d.Totals.Equal(before.Totals) {
		t.Fatalf("recompute drifted: %+v -> %+v", before.Totals, d.Totals)
	}

	if err := d.RemoveItem(1); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(d.Items) != 2 || len(before.Items) != 3 {
		t.Fatalf("RemoveItem should not touch the clone: %d / %d", len(d.Items), len(before.Items))
	}
}

func TestDraftValidate_ContraSameAccount(t *testing.T) {
	cfg := MustConfig("contra-voucher")
	d := NewDraft(cfg, testToday)
	_ = d.SetField("voucher_number", "CV/0001")
	_ = d.SetField("total_amount", 500)
	_ = d.SetField("from_account", "Cash")
	_ = d.SetField("to_account", "Cash")

	err := d.Validate(cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["to_account"] != "From Account and To Account cannot be the same" {
		t.Fatalf("unexpected messages: %v", verr.Fields)
	}

	_ = d.SetField("to_account", "Bank")
	if err := d.Validate(cfg); err != nil {
		t.Fatalf("expected valid contra voucher, got %v", err)
	}

	// names differing only in case are different accounts
	_ = d.SetField("to_account", "cash")
	if err := d.Validate(cfg); err != nil {
		t.Fatalf("expected Cash and cash to be distinct accounts, got %v", err)
	}
}

func TestDraftValidate_RequiredFields(t *testing.T) {
	cfg := MustConfig("purchase-order")
	d := NewDraft(cfg, testToday)
	err := d.Validate(cfg)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]string{
		"voucher_number":     "Voucher number is required",
		"vendor_id":          "Vendor is required",
		"items.0.product_id": "Product is required",
	}
	if !reflect.DeepEqual(verr.Fields, want) {
		t.Fatalf("expected %v, got %v", want, verr.Fields)
	}

	payment := MustConfig("payment-voucher")
	pd := NewDraft(payment, testToday)
	_ = pd.SetField("voucher_number", "PAY/1")
	pd.Header[FieldTotalAmount] = ""
	err = pd.Validate(payment)
	if !errors.As(err, &verr) || verr.Fields["total_amount"] != "Amount is required" {
		t.Fatalf("expected amount required, got %v", err)
	}
}

func TestDecodeDraft_RoundTrip(t *testing.T) {
	record := `{
		"id": 12,
		"voucher_number": "PV/2024/0042",
		"date": "2024-04-01T00:00:00",
		"vendor_id": 3,
		"reference": "INV-9",
		"status": "draft",
		"created_by": 1,
		"total_amount": 212.4,
		"items": [{
			"id": 99, "product_id": 9, "hsn_code": "8471", "unit": "Nos",
			"quantity": 2, "unit_price": 100, "discount_percentage": 10, "gst_rate": 18,
			"discount_amount": 20, "taxable_amount": 180, "cgst_amount": 16.2, "sgst_amount": 16.2,
			"igst_amount": 0, "total_amount": 212.4
		}]
	}`
	d, err := DecodeDraft(VoucherKindWithLineItems, []byte(record))
	if err != nil {
		t.Fatalf("DecodeDraft: %v", err)
	}
	if d.VoucherNumber() != "PV/2024/0042" {
		t.Fatalf("voucher number expected PV/2024/0042, got %s", d.VoucherNumber())
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var want, got any
	_ = json.Unmarshal([]byte(record), &want)
	_ = json.Unmarshal(out, &got)
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip changed the record:\nwant %v\ngot  %v", want, got)
	}
}

func TestDecodeDraft_HeaderOnlyKeepsTotal(t *testing.T) {
	record := `{"id":1,"voucher_number":"PAY/7","date":"2024-04-02","total_amount":"1500.00","from_account":"Cash","notes":null}`
	d, err := DecodeDraft(VoucherKindHeaderOnly, []byte(record))
	if err != nil {
		t.Fatalf("DecodeDraft: %v", err)
	}
	if !d.Totals.GrandTotal.Equal(dec("1500")) {
		t.Fatalf("grand total expected 1500, got %s", d.Totals.GrandTotal)
	}
	out, _ := json.Marshal(d)
	var got map[string]any
	_ = json.Unmarshal(out, &got)
	if got["total_amount"] != "1500.00" {
		t.Fatalf("untouched total should be sent back verbatim, got %#v", got["total_amount"])
	}
	if _, ok := got["items"]; ok {
		t.Fatalf("header only body must not carry items: %s", out)
	}
}

func TestParseFieldPath(t *testing.T) {
	cases := []struct {
		path   string
		index  int
		key    string
		isItem bool
	}{
		{"vendor_id", 0, "vendor_id", false},
		{"items.2.quantity", 2, "quantity", true},
		{"items[10].gst_rate", 10, "gst_rate", true},
		{"items_note", 0, "items_note", false},
	}
	for _, tc := range cases {
		index, key, isItem, err := parseFieldPath(tc.path)
		if err != nil {
			t.Fatalf("parseFieldPath(%q): %v", tc.path, err)
		}
		if index != tc.index || key != tc.key || isItem != tc.isItem {
			t.Fatalf("parseFieldPath(%q) = %d %q %v", tc.path, index, key, isItem)
		}
	}
}

func TestDecodeDraft_KeepsMatchingItemsTotal(t *testing.T) {
	record := `{"voucher_number":"SV/1","total_amount":"118.00","items":[{"product_id":1,"quantity":1,"unit_price":100,"gst_rate":18}]}`
	d, err := DecodeDraft(VoucherKindWithLineItems, []byte(record))
	if err != nil {
		t.Fatalf("DecodeDraft: %v", err)
	}
	totalOf := func() any {
		out, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var got map[string]any
		_ = json.Unmarshal(out, &got)
		return got["total_amount"]
	}
	if got := totalOf(); got != "118.00" {
		t.Fatalf("matching total should be kept as received, got %#v", got)
	}
	if err := d.SetField("items.0.quantity", 2); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if got := totalOf(); got != "236" {
		t.Fatalf("changed total should be rewritten in the received shape, got %#v", got)
	}
}

func TestDraftSetField_RejectsMalformedAmounts(t *testing.T) {
	d := NewDraft(MustConfig("purchase-voucher"), testToday)
	if err := d.SetField("items.0.quantity", "2"); err != nil {
		t.Fatal(err)
	}
	for _, in := range []string{"1e3", "12abc", "1/2", "2-1"} {
		err := d.SetField("items.0.quantity", in)
		if !errors.Is(err, utils.ErrInvalidAmount) {
			t.Fatalf("SetField(quantity, %q) expected ErrInvalidAmount, got %v", in, err)
		}
		if !d.Items[0].Quantity.Equal(decimal.NewFromInt(2)) {
			t.Fatalf("quantity changed to %s after rejected input %q", d.Items[0].Quantity, in)
		}
	}
}
