package orchestrator

import (
	"context"
	"slices"

	"github.com/mmdatafocus/voucher_desk/models"
)

type Modal string

const (
	ModalFullList    Modal = "full_list"
	ModalAddVendor   Modal = "add_vendor"
	ModalAddCustomer Modal = "add_customer"
	ModalAddProduct  Modal = "add_product"
)

type ModalState struct {
	FullList    bool
	AddVendor   bool
	AddCustomer bool
	AddProduct  bool
}

// List returns the fetched vouchers, highest voucher number first.
func (p *Page) List() []models.VoucherListEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.list)
}

func (p *Page) Latest(n int) []models.VoucherListEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return models.Latest(p.list, n)
}

// Filtered returns the result of the last search.
func (p *Page) Filtered() []models.VoucherListEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.filtered)
}

// RefreshList refetches the voucher list. An open full list is filtered again with the current filter.
func (p *Page) RefreshList(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	p.listGen++
	gen := p.listGen
	p.loading.List = true
	p.mu.Unlock()

	entries, err := p.deps.API.List(ctx, p.cfg)

	p.mu.Lock()
	if p.closed || gen != p.listGen {
		p.mu.Unlock()
		return nil
	}
	p.loading.List = false
	if err != nil {
		p.mu.Unlock()
		p.fail("RefreshList", nil, err)
		return err
	}
	p.list = models.SortByVoucherNumberDesc(entries)
	refilter, filter := p.modals.FullList, p.filter
	p.mu.Unlock()

	if refilter {
		_, _ = p.Search(ctx, filter)
	}
	return nil
}

// Search filters the fetched list by voucher number or party name and an inclusive date range.
// The list itself is not changed; the result is also kept for Filtered.
func (p *Page) Search(ctx context.Context, filter models.SearchFilter) ([]models.VoucherListEntry, error) {
	if err := filter.Validate(); err != nil {
		p.deps.Notifier.Alert(err.Error())
		return nil, err
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPageClosed
	}
	entries, gen := p.list, p.listGen
	p.mu.Unlock()

	partyName := p.partyNameFunc(ctx, entries, filter.Term)
	out, err := models.FilterVoucherList(entries, filter, partyName)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if !p.closed && gen == p.listGen {
		p.filter = filter
		p.filtered = out
	}
	p.mu.Unlock()
	return slices.Clone(out), nil
}

// partyNameFunc resolves linked party names for a term search. Without names the search
// still matches voucher numbers.
func (p *Page) partyNameFunc(ctx context.Context, entries []models.VoucherListEntry, term string) func(models.VoucherListEntry) string {
	if term == "" || p.deps.Cache == nil || p.cfg.EntityType.PartyResource() == "" {
		return nil
	}
	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if id, ok := e.PartyId(p.cfg.EntityType); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	names, err := p.deps.Cache.PartyNames(ctx, p.cfg.EntityType, ids)
	if err != nil {
		p.logger.WithError(err).WithField("module", moduleName).Warn("searching without party names")
		return nil
	}
	return func(e models.VoucherListEntry) string {
		id, ok := e.PartyId(p.cfg.EntityType)
		if !ok {
			return ""
		}
		return names[id]
	}
}

func (p *Page) Modals() ModalState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modals
}

// OpenModal shows a dialog. The full list opens unfiltered.
func (p *Page) OpenModal(m Modal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch m {
	case ModalFullList:
		p.modals.FullList = true
		p.filter = models.SearchFilter{}
		p.filtered = slices.Clone(p.list)
	case ModalAddVendor:
		p.modals.AddVendor = true
	case ModalAddCustomer:
		p.modals.AddCustomer = true
	case ModalAddProduct:
		p.modals.AddProduct = true
	}
}

// CloseModal hides a dialog. Closing the full list clears the search.
func (p *Page) CloseModal(m Modal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch m {
	case ModalFullList:
		p.modals.FullList = false
		p.filter = models.SearchFilter{}
		p.filtered = nil
	case ModalAddVendor:
		p.modals.AddVendor = false
	case ModalAddCustomer:
		p.modals.AddCustomer = false
	case ModalAddProduct:
		p.modals.AddProduct = false
	}
}
