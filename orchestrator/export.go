package orchestrator

import (
	"context"
	"io"

	"github.com/mmdatafocus/voucher_desk/reports"
)

// Export writes the current draft as a workbook and returns its file name.
func (p *Page) Export(ctx context.Context, w io.Writer) (string, error) {
	draft := p.Draft()
	details := reports.VoucherDetails{ProductNames: map[int]string{}}

	if p.deps.Cache != nil {
		if id, ok := draft.PartyId(p.cfg.EntityType); ok {
			names, err := p.deps.Cache.PartyNames(ctx, p.cfg.EntityType, []int{id})
			if err != nil {
				p.fail("Export", id, err)
				return "", err
			}
			details.Party = names[id]
		}
		if p.cfg.HasLineItems() {
			products, err := p.deps.Cache.Products(ctx)
			if err != nil {
				p.fail("Export", nil, err)
				return "", err
			}
			for _, pr := range products {
				details.ProductNames[pr.Id] = pr.Name
			}
		}
	}

	f, err := reports.VoucherWorkbook(p.cfg, draft, details)
	if err != nil {
		p.fail("Export", draft.VoucherNumber(), err)
		return "", err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		p.fail("Export", draft.VoucherNumber(), err)
		return "", err
	}
	return reports.ExportFilename(p.cfg, draft.VoucherNumber()), nil
}

// ExportList writes the current search result, or the whole list when nothing is filtered.
func (p *Page) ExportList(ctx context.Context, w io.Writer) (string, error) {
	entries := p.Filtered()
	if entries == nil {
		entries = p.List()
	}
	names := map[int]string{}
	if p.deps.Cache != nil && p.cfg.EntityType.PartyResource() != "" {
		ids := make([]int, 0, len(entries))
		for _, e := range entries {
			if id, ok := e.PartyId(p.cfg.EntityType); ok {
				ids = append(ids, id)
			}
		}
		resolved, err := p.deps.Cache.PartyNames(ctx, p.cfg.EntityType, ids)
		if err != nil {
			p.fail("ExportList", nil, err)
			return "", err
		}
		names = resolved
	}

	f, err := reports.ListWorkbook(p.cfg, entries, names)
	if err != nil {
		p.fail("ExportList", nil, err)
		return "", err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		p.fail("ExportList", nil, err)
		return "", err
	}
	return reports.ExportFilename(p.cfg, "List"), nil
}
