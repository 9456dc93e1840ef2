package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/shopspring/decimal"
)

var dateLayouts = []string{DateLayout, time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// Date is a calendar day as the backend sends it ("2024-04-01" or an ISO timestamp).
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the backend and form date shapes; blank gives the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}, nil
		}
		lastErr = err
	}
	return Date{}, lastErr
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// VoucherListEntry is the summary row the list endpoint returns.
type VoucherListEntry struct {
	Id            int             `json:"id"`
	VoucherNumber string          `json:"voucher_number"`
	Date          Date            `json:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	VendorId      *int            `json:"vendor_id,omitempty"`
	CustomerId    *int            `json:"customer_id,omitempty"`
	Status        string          `json:"status,omitempty"`

	// the full row as received
	Raw map[string]json.RawMessage `json:"-"`
}

func (e *VoucherListEntry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var known struct {
		Id            json.Number     `json:"id"`
		VoucherNumber string          `json:"voucher_number"`
		Date          Date            `json:"date"`
		TotalAmount   json.RawMessage `json:"total_amount"`
		VendorId      any             `json:"vendor_id"`
		CustomerId    any             `json:"customer_id"`
		Status        string          `json:"status"`
	}
	if err := utils.UnmarshalWithNumbers(b, &known); err != nil {
		return err
	}
	*e = VoucherListEntry{
		VoucherNumber: known.VoucherNumber,
		Date:          known.Date,
		Status:        known.Status,
		Raw:           raw,
	}
	if known.Id != "" {
		id, err := known.Id.Int64()
		if err != nil {
			return err
		}
		e.Id = int(id)
	}
	total, _, err := decodeAmount(known.TotalAmount)
	if err != nil {
		return err
	}
	e.TotalAmount = total
	if e.VendorId, err = parseOptionalId(known.VendorId); err != nil {
		return err
	}
	if e.CustomerId, err = parseOptionalId(known.CustomerId); err != nil {
		return err
	}
	return nil
}

// MarshalJSON writes the row back as received, or the known fields for rows built in code.
func (e VoucherListEntry) MarshalJSON() ([]byte, error) {
	if e.Raw != nil {
		return json.Marshal(e.Raw)
	}
	type plain VoucherListEntry
	return json.Marshal(plain(e))
}

// PartyId returns the id of the vendor or customer the entry links to.
func (e VoucherListEntry) PartyId(entity EntityType) (int, bool) {
	var id *int
	switch entity {
	case EntityTypePurchase:
		id = e.VendorId
	case EntityTypeSales:
		id = e.CustomerId
	}
	if id == nil {
		return 0, false
	}
	return *id, true
}

// SearchFilter narrows a fetched list. Zero dates leave that side of the range open.
type SearchFilter struct {
	Term string
	From Date
	To   Date
}

func (f SearchFilter) Validate() error {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From.Time) {
		return ErrInvalidDateSpan
	}
	return nil
}

// FilterVoucherList returns the entries matching f, in their original order. entries is not modified.
// partyName resolves the linked vendor or customer name and may be nil.
func FilterVoucherList(entries []VoucherListEntry, f SearchFilter, partyName func(VoucherListEntry) string) ([]VoucherListEntry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(f.Term))
	out := make([]VoucherListEntry, 0, len(entries))
	for _, e := range entries {
		if !f.From.IsZero() && (e.Date.IsZero() || e.Date.Before(f.From.Time)) {
			continue
		}
		if !f.To.IsZero() && (e.Date.IsZero() || e.Date.After(f.To.Time)) {
			continue
		}
		if term != "" && !matchesTerm(e, term, partyName) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func matchesTerm(e VoucherListEntry, term string, partyName func(VoucherListEntry) string) bool {
	if strings.Contains(strings.ToLower(e.VoucherNumber), term) {
		return true
	}
	if partyName == nil {
		return false
	}
	return strings.Contains(strings.ToLower(partyName(e)), term)
}

// SortByVoucherNumberDesc returns a copy ordered by the numeric part of the voucher number, highest first.
func SortByVoucherNumberDesc(entries []VoucherListEntry) []VoucherListEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b VoucherListEntry) int {
		return compareDigits(utils.DigitsOf(b.VoucherNumber), utils.DigitsOf(a.VoucherNumber))
	})
	return out
}

// Latest returns the n most recent entries by voucher number.
func Latest(entries []VoucherListEntry, n int) []VoucherListEntry {
	sorted := SortByVoucherNumberDesc(entries)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// compareDigits compares two digit strings as unbounded non-negative integers.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
