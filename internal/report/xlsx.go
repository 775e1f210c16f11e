package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	invoiceSheet    = "Invoice"
	amountFormat    = `"$"0.00`
)

// RenderInvoiceXLSX writes the document as a single-sheet workbook.
func RenderInvoiceXLSX(doc InvoiceDocument, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(amountFormat)})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	set := func(cell string, v any) {
		if err == nil {
			err = f.SetCellValue(invoiceSheet, cell, v)
		}
	}
	set("A1", doc.Title)
	set("A2", "Student Name: "+doc.StudentName)
	for i, h := range []string{"Date", "Category", "Amount"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		set(cell, h)
	}
	row := 5
	for _, l := range doc.LineItems {
		set(fmt.Sprintf("A%d", row), l.Date)
		set(fmt.Sprintf("B%d", row), l.Category)
		set(fmt.Sprintf("C%d", row), l.Value.InexactFloat64())
		row++
	}
	totalRow := row + 1
	set(fmt.Sprintf("B%d", totalRow), "Total:")
	set(fmt.Sprintf("C%d", totalRow), doc.TotalAmount.InexactFloat64())
	if err != nil {
		return fmt.Errorf("write cells: %w", err)
	}

	if err := f.SetCellStyle(invoiceSheet, "A4", "C4", boldStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetCellStyle(invoiceSheet, "C5", fmt.Sprintf("C%d", totalRow), amountStyle); err != nil {
		return fmt.Errorf("style amounts: %w", err)
	}
	if err := f.SetColWidth(invoiceSheet, "A", "C", 16); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
