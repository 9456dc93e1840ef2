package models

import (
	"math"
	"testing"
)

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"0", "Zero only"},
		{"212.4", "Two Hundred Twelve point Forty only"},
		{"1200", "One Thousand Two Hundred only"},
		{"1000000", "One Million only"},
		{"2005019.05", "Two Million Five Thousand Nineteen point Five only"},
		{"0.5", "Zero point Fifty only"},
		{"99.999", "One Hundred only"},
		{"-15", "Minus Fifteen only"},
		{"1000000000000000", "One Quadrillion only"},
		{"2000000000000000000", "Two Quintillion only"},
		{"1234567890123456789012", "1234567890123456789012 only"},
		{"-1234567890123456789012", "Minus 1234567890123456789012 only"},
	}
	for _, tc := range cases {
		got := AmountInWords(dec(tc.in))
		if got != tc.expected {
			t.Fatalf("AmountInWords(%s) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestIntegerInWords_Int64Limits(t *testing.T) {
	want := "Nine Quintillion Two Hundred Twenty Three Quadrillion Three Hundred Seventy Two Trillion Thirty Six Billion " +
		"Eight Hundred Fifty Four Million Seven Hundred Seventy Five Thousand Eight Hundred Seven"
	if got := IntegerInWords(math.MaxInt64); got != want {
		t.Fatalf("IntegerInWords(MaxInt64) = %q", got)
	}
	if got := IntegerInWords(math.MinInt64); got != "Minus "+want[:len(want)-len("Seven")]+"Eight" {
		t.Fatalf("IntegerInWords(MinInt64) = %q", got)
	}
}
