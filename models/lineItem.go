package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/shopspring/decimal"
)

// json keys of the line item fields the client computes with
const (
	ItemProductId          = "product_id"
	ItemQuantity           = "quantity"
	ItemUnitPrice          = "unit_price"
	ItemDiscountPercentage = "discount_percentage"
	ItemGstRate            = "gst_rate"

	ItemDiscountAmount = "discount_amount"
	ItemTaxableAmount  = "taxable_amount"
	ItemCgstAmount     = "cgst_amount"
	ItemSgstAmount     = "sgst_amount"
	ItemIgstAmount     = "igst_amount"
	ItemTotalAmount    = "total_amount"
)

var derivedItemFields = map[string]bool{
	ItemDiscountAmount: true,
	ItemTaxableAmount:  true,
	ItemCgstAmount:     true,
	ItemSgstAmount:     true,
	ItemIgstAmount:     true,
	ItemTotalAmount:    true,
}

// IsDerivedItemField reports whether key is computed by Recompute.
func IsDerivedItemField(key string) bool { return derivedItemFields[key] }

// LineItem is one product row of a voucher. The derived amounts are only ever written by Recompute.
type LineItem struct {
	ProductId          *int
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	GstRate            decimal.Decimal

	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	CgstAmount     decimal.Decimal
	SgstAmount     decimal.Decimal
	IgstAmount     decimal.Decimal
	TotalAmount    decimal.Decimal

	// every other item field (hsn_code, unit, description, ...) as received
	Extra map[string]json.RawMessage

	// keys whose amounts arrived as JSON strings and are written back the same way
	quoted map[string]bool
}

// NewLineItem returns a blank row carrying the form's default text fields.
func NewLineItem() LineItem {
	return LineItem{
		Extra: map[string]json.RawMessage{
			"hsn_code": json.RawMessage(`""`),
			"unit":     json.RawMessage(`""`),
		},
	}
}

// Subtotal is quantity * unit price, before discount.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// GstAmount is the tax on the line across all components.
func (li LineItem) GstAmount() decimal.Decimal {
	return li.CgstAmount.Add(li.SgstAmount).Add(li.IgstAmount)
}

// Recompute derives every computed amount from the input fields.
// Each amount is rounded to money places on the line, before any voucher level sum.
func (li *LineItem) Recompute() {
	subtotal := li.Subtotal()
	discount := utils.RoundMoney(utils.CalculateDiscountAmount(subtotal, li.DiscountPercentage, "P"))
	taxable := utils.RoundMoney(subtotal.Sub(discount))
	gst := utils.RoundMoney(utils.CalculateTaxAmount(taxable, li.GstRate, false))
	cgst, sgst := utils.SplitIntrastateTax(gst)

	li.DiscountAmount = discount
	li.TaxableAmount = taxable
	li.CgstAmount = cgst
	li.SgstAmount = sgst
	li.IgstAmount = decimal.Zero
	li.TotalAmount = taxable.Add(gst)
}

// Set assigns one item field. Amount inputs accept user-formatted strings.
func (li *LineItem) Set(key string, value any) error {
	if IsDerivedItemField(key) {
		return fmt.Errorf("%w: %s", ErrDerivedField, key)
	}
	switch key {
	case ItemProductId:
		id, err := parseOptionalId(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		li.ProductId = id
		return nil
	case ItemQuantity, ItemUnitPrice, ItemDiscountPercentage, ItemGstRate:
		d, err := utils.ParseAmount(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*li.amountField(key) = d
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if li.Extra == nil {
		li.Extra = make(map[string]json.RawMessage)
	}
	li.Extra[key] = raw
	return nil
}

// Value reads one item field back in its decoded form.
func (li LineItem) Value(key string) (any, bool) {
	switch key {
	case ItemProductId:
		if li.ProductId == nil {
			return nil, true
		}
		return *li.ProductId, true
	}
	if p := li.amountField(key); p != nil {
		return *p, true
	}
	raw, ok := li.Extra[key]
	if !ok {
		return nil, false
	}
	var v any
	if err := utils.UnmarshalWithNumbers(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

func (li *LineItem) amountField(key string) *decimal.Decimal {
	switch key {
	case ItemQuantity:
		return &li.Quantity
	case ItemUnitPrice:
		return &li.UnitPrice
	case ItemDiscountPercentage:
		return &li.DiscountPercentage
	case ItemGstRate:
		return &li.GstRate
	case ItemDiscountAmount:
		return &li.DiscountAmount
	case ItemTaxableAmount:
		return &li.TaxableAmount
	case ItemCgstAmount:
		return &li.CgstAmount
	case ItemSgstAmount:
		return &li.SgstAmount
	case ItemIgstAmount:
		return &li.IgstAmount
	case ItemTotalAmount:
		return &li.TotalAmount
	}
	return nil
}

var lineItemAmountKeys = []string{
	ItemQuantity, ItemUnitPrice, ItemDiscountPercentage, ItemGstRate,
	ItemDiscountAmount, ItemTaxableAmount, ItemCgstAmount, ItemSgstAmount, ItemIgstAmount, ItemTotalAmount,
}

func (li LineItem) Clone() LineItem {
	out := li
	out.Extra = maps.Clone(li.Extra)
	out.quoted = maps.Clone(li.quoted)
	if li.ProductId != nil {
		id := *li.ProductId
		out.ProductId = &id
	}
	return out
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(li.Extra)+len(lineItemAmountKeys)+1)
	for k, v := range li.Extra {
		out[k] = v
	}
	if li.ProductId == nil {
		out[ItemProductId] = nil
	} else {
		out[ItemProductId] = *li.ProductId
	}
	for _, k := range lineItemAmountKeys {
		out[k] = encodeAmount(*li.amountField(k), li.quoted[k])
	}
	return json.Marshal(out)
}

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*li = LineItem{Extra: make(map[string]json.RawMessage)}
	for k, v := range raw {
		switch {
		case k == ItemProductId:
			var decoded any
			if err := utils.UnmarshalWithNumbers(v, &decoded); err != nil {
				return err
			}
			id, err := parseOptionalId(decoded)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			li.ProductId = id
		case li.amountField(k) != nil:
			d, quoted, err := decodeAmount(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*li.amountField(k) = d
			if quoted {
				if li.quoted == nil {
					li.quoted = make(map[string]bool)
				}
				li.quoted[k] = true
			}
		default:
			li.Extra[k] = v
		}
	}
	return nil
}

// encodeAmount writes d as a bare JSON number unless the backend sent it quoted.
func encodeAmount(d decimal.Decimal, quoted bool) any {
	if quoted {
		return d.String()
	}
	return json.Number(d.String())
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, false, nil
	}
	var v any
	if err := utils.UnmarshalWithNumbers(trimmed, &v); err != nil {
		return decimal.Zero, false, err
	}
	_, quoted := v.(string)
	d, err := utils.ParseAmount(v)
	return d, quoted, err
}

// parseOptionalId accepts a numeric id in any of the shapes a form or decoder produces; blank means unset.
func parseOptionalId(value any) (*int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case *int:
		return v, nil
	case int:
		return &v, nil
	case int64:
		id := int(v)
		return &id, nil
	case float64:
		id := int(v)
		if float64(id) != v {
			return nil, fmt.Errorf("id %v is not an integer", v)
		}
		return &id, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		id := int(n)
		return &id, nil
	case string:
		if v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		return &n, nil
	}
	return nil, fmt.Errorf("unsupported id type %T", value)
}
