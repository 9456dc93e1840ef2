package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/shopspring/decimal"
)

const (
	FieldVoucherNumber = "voucher_number"
	FieldDate          = "date"
	FieldTotalAmount   = "total_amount"
	FieldItems         = "items"
	FieldFromAccount   = "from_account"
	FieldToAccount     = "to_account"

	DateLayout = "2006-01-02"
)

// VoucherDraft is the in-progress form value of one voucher.
// Header holds every top level field as decoded from the backend (numbers as json.Number),
// so fields the client does not know about are sent back untouched.
type VoucherDraft struct {
	Kind   VoucherKind
	Header map[string]any
	Items  []LineItem
	Totals VoucherTotals

	totalQuoted bool
}

// NewDraft returns the blank form for cfg, dated today.
func NewDraft(cfg VoucherConfig, today time.Time) *VoucherDraft {
	header := map[string]any{
		FieldVoucherNumber: "",
		FieldDate:          today.Format(DateLayout),
		"reference":        "",
		"notes":            "",
		FieldTotalAmount:   json.Number("0"),
	}
	d := &VoucherDraft{Kind: cfg.Kind, Header: header}
	if cfg.HasLineItems() {
		header["payment_terms"] = ""
		if party := cfg.EntityType.PartyField(); party != "" {
			header[party] = nil
		}
		d.Items = []LineItem{NewLineItem()}
	} else {
		header[FieldFromAccount] = ""
		header[FieldToAccount] = ""
		header["payment_method"] = ""
		header["receipt_method"] = ""
	}
	d.Recompute()
	return d
}

// DecodeDraft reads a backend record into a draft and recomputes its derived amounts.
func DecodeDraft(kind VoucherKind, data []byte) (*VoucherDraft, error) {
	var header map[string]any
	if err := utils.UnmarshalWithNumbers(data, &header); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("voucher record is not an object")
	}
	d := &VoucherDraft{Kind: kind, Header: header}
	_, d.totalQuoted = header[FieldTotalAmount].(string)

	if kind.HasLineItems() {
		var wrapper struct {
			Items []LineItem `json:"items"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		d.Items = wrapper.Items
		if d.Items == nil {
			d.Items = []LineItem{}
		}
		delete(d.Header, FieldItems)
	}
	d.Recompute()
	return d, nil
}

// Recompute derives every line item and the voucher totals from the current inputs.
func (d *VoucherDraft) Recompute() {
	if !d.Kind.HasLineItems() {
		amount, err := utils.ParseAmount(d.Header[FieldTotalAmount])
		if err != nil {
			amount = decimal.Zero
		}
		d.Totals = VoucherTotals{Subtotal: amount, TotalGst: decimal.Zero, GrandTotal: amount}
		return
	}
	for i := range d.Items {
		d.Items[i].Recompute()
	}
	d.Totals = CalculateTotals(d.Items)
	d.Header[FieldTotalAmount] = d.totalHeaderValue()
}

// totalHeaderValue keeps the received total_amount when it already equals the grand total.
func (d *VoucherDraft) totalHeaderValue() any {
	current := d.Header[FieldTotalAmount]
	if text, ok := current.(string); ok && strings.TrimSpace(text) == "" {
		return encodeAmount(d.Totals.GrandTotal, d.totalQuoted)
	}
	if amount, err := utils.ParseAmount(current); err == nil && current != nil && amount.Equal(d.Totals.GrandTotal) {
		return current
	}
	return encodeAmount(d.Totals.GrandTotal, d.totalQuoted)
}

// SetField applies one user edit. path is a header key ("vendor_id") or an item
// path ("items.0.quantity" or "items[0].quantity").
func (d *VoucherDraft) SetField(path string, value any) error {
	index, key, isItem, err := parseFieldPath(path)
	if err != nil {
		return err
	}
	if !isItem {
		return d.setHeader(key, value)
	}
	if !d.Kind.HasLineItems() {
		return ErrNoLineItems
	}
	if index < 0 || index >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrItemOutOfRange, index)
	}
	item := &d.Items[index]
	if err := item.Set(key, value); err != nil {
		return err
	}
	if IsTotalsInput(key) {
		item.Recompute()
		d.Totals = CalculateTotals(d.Items)
		d.Header[FieldTotalAmount] = d.totalHeaderValue()
	}
	return nil
}

// IsTotalsInput reports whether an item key feeds the line and voucher totals.
func IsTotalsInput(key string) bool {
	switch key {
	case ItemQuantity, ItemUnitPrice, ItemDiscountPercentage, ItemGstRate:
		return true
	}
	return false
}

func (d *VoucherDraft) setHeader(key string, value any) error {
	switch {
	case key == FieldItems:
		return fmt.Errorf("%w: %s", ErrInvalidPath, key)
	case key == FieldTotalAmount && d.Kind.HasLineItems():
		return fmt.Errorf("%w: %s", ErrDerivedField, key)
	case key == FieldTotalAmount:
		amount, err := utils.ParseAmount(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		d.Header[key] = encodeAmount(amount, d.totalQuoted)
		d.Totals = VoucherTotals{Subtotal: amount, TotalGst: decimal.Zero, GrandTotal: amount}
		return nil
	case strings.HasSuffix(key, "_id"):
		id, err := parseOptionalId(value)
		if err != nil {
			// non numeric references (uuids, codes) are kept as typed
			d.Header[key] = value
			return nil
		}
		if id == nil {
			d.Header[key] = nil
		} else {
			d.Header[key] = *id
		}
		return nil
	}
	d.Header[key] = value
	return nil
}

// Value reads a header or item field by the same paths SetField accepts.
func (d *VoucherDraft) Value(path string) (any, bool) {
	index, key, isItem, err := parseFieldPath(path)
	if err != nil {
		return nil, false
	}
	if !isItem {
		v, ok := d.Header[key]
		return v, ok
	}
	if index < 0 || index >= len(d.Items) {
		return nil, false
	}
	return d.Items[index].Value(key)
}

// String returns a header field as text, or "" when it is absent.
func (d *VoucherDraft) String(key string) string {
	switch v := d.Header[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (d *VoucherDraft) VoucherNumber() string { return d.String(FieldVoucherNumber) }

// PartyId returns the linked vendor or customer id, if one is set.
func (d *VoucherDraft) PartyId(entity EntityType) (int, bool) {
	field := entity.PartyField()
	if field == "" {
		return 0, false
	}
	id, err := parseOptionalId(d.Header[field])
	if err != nil || id == nil {
		return 0, false
	}
	return *id, true
}

func (d *VoucherDraft) AddItem() error {
	if !d.Kind.HasLineItems() {
		return ErrNoLineItems
	}
	d.Items = append(d.Items, NewLineItem())
	d.Recompute()
	return nil
}

func (d *VoucherDraft) RemoveItem(index int) error {
	if !d.Kind.HasLineItems() {
		return ErrNoLineItems
	}
	if index < 0 || index >= len(d.Items) {
		return fmt.Errorf("%w: %d", ErrItemOutOfRange, index)
	}
	d.Items = append(d.Items[:index:index], d.Items[index+1:]...)
	d.Recompute()
	return nil
}

// Validate checks presence of cfg's required fields and, for contra vouchers, that the accounts differ.
func (d *VoucherDraft) Validate(cfg VoucherConfig) error {
	verr := &ValidationError{}
	for _, f := range cfg.RequiredFields {
		v, _ := d.Value(f.Path)
		if !utils.IsPresent(v) {
			verr.add(f.Path, f.Message)
		}
	}
	if cfg.HasLineItems() {
		if len(d.Items) == 0 {
			verr.add(FieldItems, "At least one item is required")
		}
		for i, item := range d.Items {
			if item.ProductId == nil {
				verr.add(fmt.Sprintf("items.%d.%s", i, ItemProductId), "Product is required")
			}
		}
	}
	if cfg.RequireDistinctAccounts {
		from, to := d.String(FieldFromAccount), d.String(FieldToAccount)
		// exact match: account names are picked from the chart of accounts
		if strings.TrimSpace(from) != "" && from == to {
			verr.add(FieldToAccount, "From Account and To Account cannot be the same")
		}
	}
	return verr.orNil()
}

func (d *VoucherDraft) Clone() *VoucherDraft {
	out := *d
	out.Header = maps.Clone(d.Header)
	if d.Items != nil {
		out.Items = make([]LineItem, len(d.Items))
		for i, item := range d.Items {
			out.Items[i] = item.Clone()
		}
	}
	return &out
}

// MarshalJSON writes the request body for create and update.
func (d *VoucherDraft) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Header)+1)
	for k, v := range d.Header {
		out[k] = v
	}
	if d.Kind.HasLineItems() {
		items := d.Items
		if items == nil {
			items = []LineItem{}
		}
		out[FieldItems] = items
		out[FieldTotalAmount] = d.totalHeaderValue()
	}
	return json.Marshal(out)
}

// parseFieldPath splits "items.2.quantity" or "items[2].quantity" into (2, "quantity", true).
func parseFieldPath(path string) (int, string, bool, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, "", false, ErrInvalidPath
	}
	rest, ok := strings.CutPrefix(path, FieldItems)
	if !ok || rest == "" {
		return 0, path, false, nil
	}
	var idx, key string
	switch rest[0] {
	case '.':
		idx, key, ok = strings.Cut(rest[1:], ".")
	case '[':
		idx, key, ok = strings.Cut(rest[1:], "].")
	default:
		// a header key that merely starts with "items"
		return 0, path, false, nil
	}
	if !ok || key == "" {
		return 0, "", false, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", false, fmt.Errorf("%w: %s", ErrInvalidPath, path)
	}
	return n, key, true, nil
}
