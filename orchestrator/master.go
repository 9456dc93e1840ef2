package orchestrator

import (
	"context"

	"github.com/mmdatafocus/voucher_desk/models"
)

// AddVendor creates a vendor from the inline dialog, invalidates the shared vendor list
// and, on purchase pages, selects the new vendor on the draft.
func (p *Page) AddVendor(ctx context.Context, input models.NewVendor) (*models.Vendor, error) {
	if err := input.Validate(p.deps.PhoneRegion); err != nil {
		p.deps.Notifier.Alert(err.Error())
		return nil, err
	}
	var vendor *models.Vendor
	err := p.addMaster(ctx, "AddVendor", models.MasterResourceVendors, func(ctx context.Context) (int, error) {
		var err error
		vendor, err = p.deps.Masters.CreateVendor(ctx, input)
		if err != nil {
			return 0, err
		}
		return vendor.Id, nil
	})
	if err != nil {
		return nil, err
	}
	p.deps.Notifier.Info("Vendor added successfully!")
	return vendor, nil
}

func (p *Page) AddCustomer(ctx context.Context, input models.NewCustomer) (*models.Customer, error) {
	if err := input.Validate(p.deps.PhoneRegion); err != nil {
		p.deps.Notifier.Alert(err.Error())
		return nil, err
	}
	var customer *models.Customer
	err := p.addMaster(ctx, "AddCustomer", models.MasterResourceCustomers, func(ctx context.Context) (int, error) {
		var err error
		customer, err = p.deps.Masters.CreateCustomer(ctx, input)
		if err != nil {
			return 0, err
		}
		return customer.Id, nil
	})
	if err != nil {
		return nil, err
	}
	p.deps.Notifier.Info("Customer added successfully!")
	return customer, nil
}

func (p *Page) AddProduct(ctx context.Context, input models.NewProduct) (*models.Product, error) {
	if err := input.Validate(); err != nil {
		p.deps.Notifier.Alert(err.Error())
		return nil, err
	}
	var product *models.Product
	err := p.addMaster(ctx, "AddProduct", models.MasterResourceProducts, func(ctx context.Context) (int, error) {
		var err error
		product, err = p.deps.Masters.CreateProduct(ctx, input)
		if err != nil {
			return 0, err
		}
		return product.Id, nil
	})
	if err != nil {
		return nil, err
	}
	p.deps.Notifier.Info("Product added successfully!")
	return product, nil
}

// addMaster runs create, invalidates resource and auto-selects the new party when the
// page links to that resource and the draft has not been replaced meanwhile.
func (p *Page) addMaster(ctx context.Context, funcName string, resource models.MasterResource, create func(context.Context) (int, error)) error {
	if p.deps.Masters == nil {
		return ErrNoMasterAPI
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	p.setMasterLoadingLocked(resource, true)
	gen := p.draftGen
	p.mu.Unlock()

	id, err := create(ctx)

	p.mu.Lock()
	p.setMasterLoadingLocked(resource, false)
	p.mu.Unlock()
	if err != nil {
		p.fail(funcName, nil, err)
		return err
	}

	if p.deps.Cache != nil {
		if err := p.deps.Cache.Invalidate(ctx, resource); err != nil {
			p.logger.WithError(err).WithField("module", moduleName).Warn("master data invalidation failed")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if p.cfg.EntityType.PartyResource() == resource && gen == p.draftGen && p.mode.IsEditable() {
		_ = p.draft.SetField(p.cfg.EntityType.PartyField(), id)
		delete(p.fieldErrors, p.cfg.EntityType.PartyField())
	}
	switch resource {
	case models.MasterResourceVendors:
		p.modals.AddVendor = false
	case models.MasterResourceCustomers:
		p.modals.AddCustomer = false
	case models.MasterResourceProducts:
		p.modals.AddProduct = false
	}
	return nil
}

func (p *Page) setMasterLoadingLocked(resource models.MasterResource, on bool) {
	switch resource {
	case models.MasterResourceVendors:
		p.loading.AddVendor = on
	case models.MasterResourceCustomers:
		p.loading.AddCustomer = on
	case models.MasterResourceProducts:
		p.loading.AddProduct = on
	}
}

// RefreshMasterData drops every shared master list so the next read refetches.
func (p *Page) RefreshMasterData(ctx context.Context) error {
	if p.deps.Cache == nil {
		return nil
	}
	if err := p.deps.Cache.Invalidate(ctx); err != nil {
		p.fail("RefreshMasterData", nil, err)
		return err
	}
	return nil
}
