package models

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	wordsBelowTwenty = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
		"Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	wordsTens   = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	wordsGroups = []string{"", "Thousand", "Million", "Billion", "Trillion", "Quadrillion", "Quintillion"}
)

// IntegerInWords spells n in thousand groups: 1200 -> "One Thousand Two Hundred". Zero gives "".
func IntegerInWords(n int64) string {
	if n < 0 {
		// -(n+1)+1 stays in range for math.MinInt64
		return "Minus " + unsignedInWords(uint64(-(n+1))+1)
	}
	return unsignedInWords(uint64(n))
}

func unsignedInWords(n uint64) string {
	var groups []string
	for i := 0; n > 0; i++ {
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		words := chunkInWords(chunk)
		if wordsGroups[i] != "" {
			words += " " + wordsGroups[i]
		}
		groups = append([]string{words}, groups...)
	}
	return strings.Join(groups, " ")
}

func chunkInWords(chunk uint64) string {
	var parts []string
	if chunk >= 100 {
		parts = append(parts, wordsBelowTwenty[chunk/100], "Hundred")
	}
	rest := chunk % 100
	if rest >= 20 {
		parts = append(parts, wordsTens[rest/10])
		rest %= 10
	}
	if rest > 0 {
		parts = append(parts, wordsBelowTwenty[rest])
	}
	return strings.Join(parts, " ")
}

// AmountInWords spells a money amount for printed vouchers: 212.4 -> "Two Hundred Twelve point Forty only".
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)
	if amount.IsZero() {
		return "Zero only"
	}
	prefix := ""
	if amount.IsNegative() {
		prefix = "Minus "
		amount = amount.Neg()
	}
	integer := amount.Truncate(0)
	fraction := amount.Sub(integer).Mul(decimal.NewFromInt(100)).IntPart()

	var words string
	if integer.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		// past the named groups: spell the digits
		words = integer.String()
	} else {
		words = IntegerInWords(integer.IntPart())
	}
	if words == "" {
		words = "Zero"
	}
	if fraction > 0 {
		words += " point " + IntegerInWords(fraction)
	}
	return prefix + words + " only"
}
