package models

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var ErrUnknownVoucherType = errors.New("unknown voucher type")

// RequiredField is a draft path that must be filled in before submit.
type RequiredField struct {
	Path    string
	Message string
}

// VoucherConfig describes one voucher type. Values are built once from the static table and never mutated.
type VoucherConfig struct {
	Key                string
	VoucherType        string
	Endpoint           string
	ListEndpoint       string
	NextNumberEndpoint string
	Kind               VoucherKind
	EntityType         EntityType
	Title              string
	RequiredFields     []RequiredField

	// from_account and to_account must differ (contra vouchers).
	RequireDistinctAccounts bool
}

func (c VoucherConfig) HasLineItems() bool { return c.Kind.HasLineItems() }

func (c VoucherConfig) clone() VoucherConfig {
	c.RequiredFields = slices.Clone(c.RequiredFields)
	return c
}

var (
	requiredNumberAndDate = []RequiredField{
		{Path: "voucher_number", Message: "Voucher number is required"},
		{Path: "date", Message: "Date is required"},
	}
	requiredAmount   = RequiredField{Path: "total_amount", Message: "Amount is required"}
	requiredVendor   = RequiredField{Path: "vendor_id", Message: "Vendor is required"}
	requiredCustomer = RequiredField{Path: "customer_id", Message: "Customer is required"}
)

func newVoucherConfig(key, voucherType string, entity EntityType, kind VoucherKind, title string) VoucherConfig {
	endpoint := "/" + voucherType
	required := slices.Clone(requiredNumberAndDate)
	switch {
	case kind == VoucherKindHeaderOnly:
		required = append(required, requiredAmount)
	case entity == EntityTypePurchase:
		required = append(required, requiredVendor)
	case entity == EntityTypeSales:
		required = append(required, requiredCustomer)
	}
	return VoucherConfig{
		Key:                key,
		VoucherType:        voucherType,
		Endpoint:           endpoint,
		ListEndpoint:       endpoint,
		NextNumberEndpoint: endpoint + "/next-number",
		Kind:               kind,
		EntityType:         entity,
		Title:              title,
		RequiredFields:     required,
	}
}

var voucherConfigs = buildVoucherConfigs()

func buildVoucherConfigs() map[string]VoucherConfig {
	items, header := VoucherKindWithLineItems, VoucherKindHeaderOnly
	purchase, sales, financial := EntityTypePurchase, EntityTypeSales, EntityTypeFinancial

	list := []VoucherConfig{
		// financial
		newVoucherConfig("payment-voucher", "payment-vouchers", financial, header, "Payment Voucher"),
		newVoucherConfig("receipt-voucher", "receipt-vouchers", financial, header, "Receipt Voucher"),
		newVoucherConfig("journal-voucher", "journal-vouchers", financial, header, "Journal Voucher"),
		newVoucherConfig("contra-voucher", "contra-vouchers", financial, header, "Contra Voucher"),
		newVoucherConfig("credit-note", "credit-notes", financial, header, "Credit Note"),
		newVoucherConfig("debit-note", "debit-notes", financial, header, "Debit Note"),
		newVoucherConfig("non-sales-credit-note", "non-sales-credit-notes", financial, header, "Non-Sales Credit Note"),
		// purchase
		newVoucherConfig("purchase-voucher", "purchase-vouchers", purchase, items, "Purchase Voucher"),
		newVoucherConfig("purchase-order", "purchase-orders", purchase, items, "Purchase Order"),
		newVoucherConfig("purchase-return", "purchase-returns", purchase, items, "Purchase Return"),
		newVoucherConfig("grn", "goods-receipt-notes", purchase, items, "GRN"),
		// sales
		newVoucherConfig("sales-voucher", "sales-vouchers", sales, items, "Sales Voucher"),
		newVoucherConfig("quotation", "quotations", sales, items, "Quotation"),
		newVoucherConfig("proforma-invoice", "proforma-invoices", sales, items, "Proforma Invoice"),
		newVoucherConfig("sales-order", "sales-orders", sales, items, "Sales Order"),
		newVoucherConfig("delivery-challan", "delivery-challans", sales, items, "Delivery Challan"),
		newVoucherConfig("sales-return", "sales-returns", sales, items, "Sales Return"),
		// manufacturing
		newVoucherConfig("job-card", "job-cards", purchase, items, "Job Card"),
		newVoucherConfig("production-order", "production-orders", purchase, items, "Production Order"),
		newVoucherConfig("work-order", "work-orders", purchase, items, "Work Order"),
		newVoucherConfig("material-receipt", "material-receipts", purchase, items, "Material Receipt"),
		newVoucherConfig("material-requisition", "material-requisitions", purchase, items, "Material Requisition"),
		newVoucherConfig("finished-good-receipt", "finished-good-receipts", purchase, items, "Finished Good Receipt"),
		newVoucherConfig("manufacturing-journal", "manufacturing-journals", financial, header, "Manufacturing Journal"),
		newVoucherConfig("stock-journal", "stock-journals", financial, items, "Stock Journal"),
	}

	out := make(map[string]VoucherConfig, len(list))
	for _, c := range list {
		if c.Key == "contra-voucher" {
			c.RequiredFields = append(c.RequiredFields,
				RequiredField{Path: "from_account", Message: "From account is required"},
				RequiredField{Path: "to_account", Message: "To account is required"},
			)
			c.RequireDistinctAccounts = true
		}
		out[c.Key] = c
	}
	return out
}

// Config looks up a voucher type. A missing key is a programming error, not a runtime condition.
func Config(key string) (VoucherConfig, error) {
	c, ok := voucherConfigs[key]
	if !ok {
		return VoucherConfig{}, fmt.Errorf("%w: %q", ErrUnknownVoucherType, key)
	}
	return c.clone(), nil
}

func MustConfig(key string) VoucherConfig {
	c, err := Config(key)
	if err != nil {
		panic(err)
	}
	return c
}

// Keys returns every registered voucher type key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(voucherConfigs))
	for k := range voucherConfigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
