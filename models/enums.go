package models

import (
	"errors"
	"strings"
)

type PageMode string

const (
	PageModeCreate PageMode = "create"
	PageModeEdit   PageMode = "edit"
	PageModeView   PageMode = "view"
)

func (m PageMode) String() string { return string(m) }

func (m PageMode) IsEditable() bool { return m == PageModeCreate || m == PageModeEdit }

func (m PageMode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

func (m *PageMode) UnmarshalText(b []byte) error {
	switch PageMode(strings.ToLower(strings.TrimSpace(string(b)))) {
	case PageModeCreate:
		*m = PageModeCreate
	case PageModeEdit:
		*m = PageModeEdit
	case PageModeView:
		*m = PageModeView
	default:
		return errors.New("invalid page mode")
	}
	return nil
}

// VoucherKind is the tagged variant the orchestrator branches on.
type VoucherKind string

const (
	VoucherKindWithLineItems VoucherKind = "WithLineItems"
	VoucherKindHeaderOnly    VoucherKind = "HeaderOnly"
)

func (k VoucherKind) HasLineItems() bool { return k == VoucherKindWithLineItems }

// EntityType decides which party list a voucher links to.
type EntityType string

const (
	EntityTypePurchase  EntityType = "purchase"
	EntityTypeSales     EntityType = "sales"
	EntityTypeFinancial EntityType = "financial"
)

// PartyField is the header field holding the linked party id, or "" for financial vouchers.
func (t EntityType) PartyField() string {
	switch t {
	case EntityTypePurchase:
		return "vendor_id"
	case EntityTypeSales:
		return "customer_id"
	default:
		return ""
	}
}

// PartyResource is the master-data list the party field points into.
func (t EntityType) PartyResource() MasterResource {
	switch t {
	case EntityTypePurchase:
		return MasterResourceVendors
	case EntityTypeSales:
		return MasterResourceCustomers
	default:
		return ""
	}
}

// MasterResource names a shared master-data list; it doubles as its REST path segment.
type MasterResource string

const (
	MasterResourceVendors   MasterResource = "vendors"
	MasterResourceCustomers MasterResource = "customers"
	MasterResourceProducts  MasterResource = "products"
)

func AllMasterResources() []MasterResource {
	return []MasterResource{MasterResourceVendors, MasterResourceCustomers, MasterResourceProducts}
}
