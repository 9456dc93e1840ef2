package models

import "github.com/shopspring/decimal"

type VoucherTotals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalGst   decimal.Decimal `json:"total_gst"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// CalculateTotals folds already recomputed line items into voucher totals.
func CalculateTotals(items []LineItem) VoucherTotals {
	totals := VoucherTotals{
		Subtotal:   decimal.Zero,
		TotalGst:   decimal.Zero,
		GrandTotal: decimal.Zero,
	}
	for _, item := range items {
		totals.Subtotal = totals.Subtotal.Add(item.Subtotal())
		totals.TotalGst = totals.TotalGst.Add(item.GstAmount())
		totals.GrandTotal = totals.GrandTotal.Add(item.TotalAmount)
	}
	return totals
}

func (t VoucherTotals) Equal(o VoucherTotals) bool {
	return t.Subtotal.Equal(o.Subtotal) && t.TotalGst.Equal(o.TotalGst) && t.GrandTotal.Equal(o.GrandTotal)
}
