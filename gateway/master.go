package gateway

import (
	"context"
	"net/http"

	"github.com/mmdatafocus/voucher_desk/models"
)

// MasterService reads and creates the shared vendor, customer and product lists.
type MasterService struct {
	client *Client
}

func NewMasterService(client *Client) *MasterService {
	return &MasterService{client: client}
}

func masterPath(resource models.MasterResource) string {
	return "/" + string(resource)
}

func (s *MasterService) Vendors(ctx context.Context) ([]models.Vendor, error) {
	var out []models.Vendor
	if err := s.client.Do(ctx, http.MethodGet, masterPath(models.MasterResourceVendors), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MasterService) Customers(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := s.client.Do(ctx, http.MethodGet, masterPath(models.MasterResourceCustomers), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MasterService) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := s.client.Do(ctx, http.MethodGet, masterPath(models.MasterResourceProducts), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MasterService) CreateVendor(ctx context.Context, input models.NewVendor) (*models.Vendor, error) {
	var out models.Vendor
	if err := s.client.Do(ctx, http.MethodPost, masterPath(models.MasterResourceVendors), nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MasterService) CreateCustomer(ctx context.Context, input models.NewCustomer) (*models.Customer, error) {
	var out models.Customer
	if err := s.client.Do(ctx, http.MethodPost, masterPath(models.MasterResourceCustomers), nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MasterService) CreateProduct(ctx context.Context, input models.NewProduct) (*models.Product, error) {
	var out models.Product
	if err := s.client.Do(ctx, http.MethodPost, masterPath(models.MasterResourceProducts), nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
