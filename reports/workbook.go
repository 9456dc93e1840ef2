package reports

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	VoucherSheet = "Voucher"
	ListSheet    = "Vouchers"

	// builtin "#,##0.00"
	moneyNumFmt = 4
)

// VoucherDetails carries the display names a draft only references by id.
type VoucherDetails struct {
	Party        string
	ProductNames map[int]string
}

var itemHeadings = []string{"#", "Product", "HSN", "Qty", "Unit", "Rate", "Disc %", "Taxable", "GST %", "CGST", "SGST", "Total"}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	bold  int
	money int
	err   error
}

func newSheetWriter(sheet string) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return nil, err
	}
	return &sheetWriter{f: f, sheet: sheet, bold: bold, money: money}, nil
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if d, ok := value.(decimal.Decimal); ok {
		w.err = w.f.SetCellValue(w.sheet, cell, d.InexactFloat64())
		if w.err == nil {
			w.err = w.f.SetCellStyle(w.sheet, cell, cell, w.money)
		}
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) boldRow(row, fromCol, toCol int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(fromCol, row)
	to, _ := excelize.CoordinatesToCellName(toCol, row)
	w.err = w.f.SetCellStyle(w.sheet, from, to, w.bold)
}

func (w *sheetWriter) labelled(row int, label string, value any) {
	w.set(1, row, label)
	w.set(2, row, value)
	if w.err == nil {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		w.err = w.f.SetCellStyle(w.sheet, cell, cell, w.bold)
	}
}

func (w *sheetWriter) done() (*excelize.File, error) {
	if w.err != nil {
		_ = w.f.Close()
		return nil, w.err
	}
	return w.f, nil
}

func partyLabel(entity models.EntityType) string {
	switch entity {
	case models.EntityTypePurchase:
		return "Vendor"
	case models.EntityTypeSales:
		return "Customer"
	}
	return ""
}

// VoucherWorkbook lays out one voucher: header block, item table, totals and the amount in words.
func VoucherWorkbook(cfg models.VoucherConfig, draft *models.VoucherDraft, details VoucherDetails) (*excelize.File, error) {
	w, err := newSheetWriter(VoucherSheet)
	if err != nil {
		return nil, err
	}
	w.set(1, 1, strings.ToUpper(cfg.Title))
	w.boldRow(1, 1, 1)

	row := 3
	w.labelled(row, "Voucher No", draft.VoucherNumber())
	row++
	w.labelled(row, "Date", draft.String(models.FieldDate))
	row++
	if label := partyLabel(cfg.EntityType); label != "" {
		w.labelled(row, label, details.Party)
		row++
	}
	for _, f := range []struct{ key, label string }{
		{"reference", "Reference"},
		{models.FieldFromAccount, "From Account"},
		{models.FieldToAccount, "To Account"},
		{"payment_method", "Payment Method"},
		{"receipt_method", "Receipt Method"},
		{"payment_terms", "Payment Terms"},
		{"notes", "Notes"},
	} {
		if v := draft.String(f.key); v != "" {
			w.labelled(row, f.label, v)
			row++
		}
	}

	row++
	if cfg.HasLineItems() {
		for i, h := range itemHeadings {
			w.set(i+1, row, h)
		}
		w.boldRow(row, 1, len(itemHeadings))
		row++
		for i, item := range draft.Items {
			product := ""
			if item.ProductId != nil {
				product = details.ProductNames[*item.ProductId]
				if product == "" {
					product = fmt.Sprintf("#%d", *item.ProductId)
				}
			}
			hsn, _ := item.Value("hsn_code")
			unit, _ := item.Value("unit")
			values := []any{
				i + 1, product, textOf(hsn), item.Quantity, textOf(unit), item.UnitPrice, item.DiscountPercentage,
				item.TaxableAmount, item.GstRate, item.CgstAmount, item.SgstAmount, item.TotalAmount,
			}
			for col, v := range values {
				w.set(col+1, row, v)
			}
			row++
		}
		row++
		w.labelled(row, "Subtotal", draft.Totals.Subtotal)
		row++
		w.labelled(row, "Total GST", draft.Totals.TotalGst)
		row++
	}
	w.labelled(row, "Grand Total", draft.Totals.GrandTotal)
	row++
	w.labelled(row, "Amount in Words", models.AmountInWords(draft.Totals.GrandTotal))

	if w.err == nil {
		w.err = w.f.SetColWidth(VoucherSheet, "A", "B", 18)
	}
	return w.done()
}

// ListWorkbook writes a voucher list, one row per entry. partyNames maps vendor or customer ids to names.
func ListWorkbook(cfg models.VoucherConfig, entries []models.VoucherListEntry, partyNames map[int]string) (*excelize.File, error) {
	w, err := newSheetWriter(ListSheet)
	if err != nil {
		return nil, err
	}
	label := partyLabel(cfg.EntityType)
	headings := []string{"Voucher No", "Date"}
	if label != "" {
		headings = append(headings, label)
	}
	headings = append(headings, "Amount", "Status")
	for i, h := range headings {
		w.set(i+1, 1, h)
	}
	w.boldRow(1, 1, len(headings))

	for i, e := range entries {
		row := i + 2
		values := []any{e.VoucherNumber, e.Date.String()}
		if label != "" {
			name := ""
			if id, ok := e.PartyId(cfg.EntityType); ok {
				name = partyNames[id]
			}
			values = append(values, name)
		}
		values = append(values, e.TotalAmount, e.Status)
		for col, v := range values {
			w.set(col+1, row, v)
		}
	}
	return w.done()
}

// ExportFilename names an export like "PURCHASEVOUCHERPV_2024_0042.xlsx".
func ExportFilename(cfg models.VoucherConfig, voucherNumber string) string {
	title := strings.Join(strings.Fields(strings.ToUpper(cfg.Title)), "")
	number := "Unknown"
	if strings.TrimSpace(voucherNumber) != "" {
		number = utils.SanitizeFilePart(voucherNumber)
	}
	return title + number + ".xlsx"
}

func textOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
