package utils

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces matches the backend's rounding of stored amounts.
const MoneyPlaces int32 = 2

var decimalOneHundred = decimal.NewFromInt(100)

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// CalculateDiscountAmount returns the discount for subTotal.
// discountType "P" means discount is a percentage, anything else an absolute amount.
func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	if discount.GreaterThan(decimal.Zero) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).Div(decimalOneHundred)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.Zero
	}

	return discountAmount
}

// CalculateTaxAmount applies rate (in percent) to amount.
func CalculateTaxAmount(amount decimal.Decimal, rate decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	if rate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var taxAmount decimal.Decimal
	if isTaxInclusive {
		// Tax-inclusive: (amount / (100 + rate)) * rate
		taxAmount = amount.Mul(rate).Div(rate.Add(decimalOneHundred))
	} else {
		// Tax-exclusive: (amount / 100) * rate
		taxAmount = amount.Mul(rate).Div(decimalOneHundred)
	}

	return taxAmount
}

// SplitIntrastateTax splits a GST amount into equal CGST and SGST halves.
// The halves are exact (no further rounding) so they always add back up to gst.
func SplitIntrastateTax(gst decimal.Decimal) (cgst decimal.Decimal, sgst decimal.Decimal) {
	half := gst.Div(decimal.NewFromInt(2))
	return half, half
}
