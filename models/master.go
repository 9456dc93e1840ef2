package models

import (
	"strings"

	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/shopspring/decimal"
)

// Party fields shared by vendors and customers.
type Party struct {
	Id            int     `json:"id"`
	Name          string  `json:"name"`
	ContactNumber string  `json:"contact_number"`
	Email         *string `json:"email"`
	Address1      string  `json:"address1"`
	Address2      *string `json:"address2"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	PinCode       string  `json:"pin_code"`
	StateCode     string  `json:"state_code"`
	GstNumber     *string `json:"gst_number"`
	PanNumber     *string `json:"pan_number"`
	IsActive      bool    `json:"is_active"`
}

type Vendor struct {
	Party
}

type Customer struct {
	Party
}

type Product struct {
	Id             int             `json:"id"`
	Name           string          `json:"name"`
	HsnCode        *string         `json:"hsn_code"`
	PartNumber     *string         `json:"part_number"`
	Unit           string          `json:"unit"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	GstRate        decimal.Decimal `json:"gst_rate"`
	IsGstInclusive bool            `json:"is_gst_inclusive"`
	ReorderLevel   int             `json:"reorder_level"`
	Description    *string         `json:"description"`
	IsManufactured bool            `json:"is_manufactured"`
	IsActive       bool            `json:"is_active"`
}

// NewParty is the create payload for a vendor or customer.
type NewParty struct {
	Name          string  `json:"name" validate:"required"`
	ContactNumber string  `json:"contact_number" validate:"required"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Address1      string  `json:"address1" validate:"required"`
	Address2      *string `json:"address2,omitempty"`
	City          string  `json:"city" validate:"required"`
	State         string  `json:"state" validate:"required"`
	PinCode       string  `json:"pin_code" validate:"required,numeric,len=6"`
	StateCode     string  `json:"state_code" validate:"required"`
	GstNumber     *string `json:"gst_number,omitempty" validate:"omitempty,len=15,alphanum"`
	PanNumber     *string `json:"pan_number,omitempty" validate:"omitempty,len=10,alphanum"`
}

type NewVendor struct {
	NewParty
}

type NewCustomer struct {
	NewParty
}

type NewProduct struct {
	Name           string          `json:"name" validate:"required"`
	HsnCode        *string         `json:"hsn_code,omitempty"`
	PartNumber     *string         `json:"part_number,omitempty"`
	Unit           string          `json:"unit" validate:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	GstRate        decimal.Decimal `json:"gst_rate"`
	IsGstInclusive bool            `json:"is_gst_inclusive"`
	ReorderLevel   int             `json:"reorder_level" validate:"gte=0"`
	Description    *string         `json:"description,omitempty"`
	IsManufactured bool            `json:"is_manufactured"`
}

// GstSlabs are the rates a product may carry.
var GstSlabs = []int64{0, 5, 12, 18, 28}

// Validate checks the payload and normalizes the contact number to E.164 for region.
func (input *NewParty) Validate(region string) error {
	verr := &ValidationError{}
	input.Name = strings.TrimSpace(input.Name)
	for field, tag := range utils.ValidateStruct(input) {
		verr.add(field, fieldMessage(field, tag))
	}
	if input.ContactNumber != "" {
		formatted, err := utils.FormatPhoneNumber(input.ContactNumber, region)
		if err != nil {
			verr.add("contact_number", "Contact number is not valid")
		} else {
			input.ContactNumber = formatted
		}
	}
	return verr.orNil()
}

func (input *NewProduct) Validate() error {
	verr := &ValidationError{}
	input.Name = strings.TrimSpace(input.Name)
	for field, tag := range utils.ValidateStruct(input) {
		verr.add(field, fieldMessage(field, tag))
	}
	if input.UnitPrice.IsNegative() {
		verr.add("unit_price", "Unit price cannot be negative")
	}
	if !isGstSlab(input.GstRate) {
		verr.add("gst_rate", "GST rate must be one of 0, 5, 12, 18, 28")
	}
	return verr.orNil()
}

func isGstSlab(rate decimal.Decimal) bool {
	for _, slab := range GstSlabs {
		if rate.Equal(decimal.NewFromInt(slab)) {
			return true
		}
	}
	return false
}

func fieldMessage(field, tag string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return label + " is not a valid email"
	default:
		return label + " is not valid"
	}
}
