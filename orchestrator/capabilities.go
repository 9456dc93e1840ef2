// Package orchestrator drives one voucher page: its mode, draft, list and modals.
package orchestrator

import (
	"context"
	"errors"
	"io"

	"github.com/mmdatafocus/voucher_desk/models"
)

var (
	ErrReadOnlyMode   = errors.New("voucher is open in view mode")
	ErrSubmitInFlight = errors.New("a submit is already in progress")
	ErrPageClosed     = errors.New("page is closed")
	ErrNoMasterAPI    = errors.New("master data endpoints are not configured")
)

// VoucherAPI is the backend surface for one voucher type.
type VoucherAPI interface {
	List(ctx context.Context, cfg models.VoucherConfig) ([]models.VoucherListEntry, error)
	Get(ctx context.Context, cfg models.VoucherConfig, id int) (*models.VoucherDraft, error)
	Create(ctx context.Context, cfg models.VoucherConfig, draft *models.VoucherDraft) (*models.VoucherDraft, error)
	Update(ctx context.Context, cfg models.VoucherConfig, id int, draft *models.VoucherDraft) (*models.VoucherDraft, error)
	Delete(ctx context.Context, cfg models.VoucherConfig, id int) error
	NextNumber(ctx context.Context, cfg models.VoucherConfig) (string, error)
}

// MasterAPI creates vendors, customers and products inline from a voucher form.
type MasterAPI interface {
	CreateVendor(ctx context.Context, input models.NewVendor) (*models.Vendor, error)
	CreateCustomer(ctx context.Context, input models.NewCustomer) (*models.Customer, error)
	CreateProduct(ctx context.Context, input models.NewProduct) (*models.Product, error)
}

// MasterData is the shared vendor, customer and product cache.
type MasterData interface {
	Vendors(ctx context.Context) ([]models.Vendor, error)
	Customers(ctx context.Context) ([]models.Customer, error)
	Products(ctx context.Context) ([]models.Product, error)
	Invalidate(ctx context.Context, resources ...models.MasterResource) error
	PartyNames(ctx context.Context, entity models.EntityType, ids []int) (map[int]string, error)
}

// Notifier shows messages to the user.
type Notifier interface {
	Alert(message string)
	Info(message string)
}

// Confirmer asks a yes/no question and blocks until it is answered.
type Confirmer interface {
	Confirm(message string) bool
}

// FormCapability is what a voucher form needs.
type FormCapability interface {
	Mode() models.PageMode
	Draft() *models.VoucherDraft
	FieldErrors() map[string]string
	EnterCreateMode(ctx context.Context) error
	EnterEditMode(ctx context.Context, id int) error
	EnterViewMode(ctx context.Context, id int) error
	UpdateField(path string, value any) error
	AddItem() error
	RemoveItem(index int) error
	Submit(ctx context.Context) (*models.VoucherDraft, error)
	NextNumber() string
	AmountInWords() string
	Export(ctx context.Context, w io.Writer) (string, error)
}

// ListCapability is what a voucher list or its search panel needs.
type ListCapability interface {
	List() []models.VoucherListEntry
	Latest(n int) []models.VoucherListEntry
	RefreshList(ctx context.Context) error
	Search(ctx context.Context, filter models.SearchFilter) ([]models.VoucherListEntry, error)
	Filtered() []models.VoucherListEntry
	Remove(ctx context.Context, id int) (bool, error)
	ExportList(ctx context.Context, w io.Writer) (string, error)
}

// ModalCapability drives the full list and the inline master data dialogs.
type ModalCapability interface {
	Modals() ModalState
	OpenModal(m Modal)
	CloseModal(m Modal)
	AddVendor(ctx context.Context, input models.NewVendor) (*models.Vendor, error)
	AddCustomer(ctx context.Context, input models.NewCustomer) (*models.Customer, error)
	AddProduct(ctx context.Context, input models.NewProduct) (*models.Product, error)
	RefreshMasterData(ctx context.Context) error
}

var (
	_ FormCapability  = (*Page)(nil)
	_ ListCapability  = (*Page)(nil)
	_ ModalCapability = (*Page)(nil)
)
