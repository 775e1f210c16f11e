// Package report turns aggregated records into invoice documents, chart
// series and messaging links. Nothing here renders pixels; renderers consume
// the models built by this package.
package report

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
)

const InvoiceTitle = "Invoice"

// Position hints for document renderers, in renderer units.
const (
	ColDateX     = 20
	ColCategoryX = 60
	ColAmountX   = 140
	TitleY       = 20
	StudentY     = 30
	HeaderY      = 40
	FirstRowY    = 50
	RowStep      = 10
)

type (
	InvoiceLine struct {
		Date     string          `json:"date,omitempty"`
		Category string          `json:"category,omitempty"`
		Amount   string          `json:"amount"`
		Total    bool            `json:"total,omitempty"`
		Value    decimal.Decimal `json:"-"`
	}

	InvoiceDocument struct {
		Title       string          `json:"title"`
		StudentName string          `json:"studentName"`
		LineItems   []InvoiceLine   `json:"lineItems"`
		Total       string          `json:"total"`
		TotalAmount decimal.Decimal `json:"-"`
	}

	// PositionedText is one text run with its placement.
	PositionedText struct {
		Text     string `json:"text"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
		FontSize int    `json:"fontSize"`
	}
)

// Text renders the line as it appears in a plain listing.
func (l InvoiceLine) Text() string {
	if l.Total {
		return "Total: " + l.Amount
	}
	return strings.Join([]string{l.Date, l.Category, l.Amount}, " ")
}

// BuildInvoiceLines lists payments in input order followed by one total line.
func BuildInvoiceLines(payments []core.PaymentRecord) []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(payments)+1)
	var total decimal.Decimal
	for _, p := range payments {
		lines = append(lines, InvoiceLine{
			Date:     p.Date.String(),
			Category: p.Category,
			Amount:   core.FormatUSD(p.Amount),
			Value:    p.Amount,
		})
		total = total.Add(p.Amount)
	}
	return append(lines, InvoiceLine{Amount: core.FormatUSD(total), Total: true, Value: total})
}

// BuildInvoiceDocumentModel never fails; no payments gives an empty invoice
// totalling $0.00.
func BuildInvoiceDocumentModel(studentName string, payments []core.PaymentRecord) InvoiceDocument {
	lines := BuildInvoiceLines(payments)
	total := lines[len(lines)-1]
	return InvoiceDocument{
		Title:       InvoiceTitle,
		StudentName: studentName,
		LineItems:   lines[:len(lines)-1],
		Total:       total.Amount,
		TotalAmount: total.Value,
	}
}

// Layout places every text run of the document top to bottom.
func (d InvoiceDocument) Layout() []PositionedText {
	out := []PositionedText{
		{Text: d.Title, X: ColDateX, Y: TitleY, FontSize: 18},
		{Text: "Student Name: " + d.StudentName, X: ColDateX, Y: StudentY, FontSize: 14},
		{Text: "Date", X: ColDateX, Y: HeaderY, FontSize: 12},
		{Text: "Category", X: ColCategoryX, Y: HeaderY, FontSize: 12},
		{Text: "Amount", X: ColAmountX, Y: HeaderY, FontSize: 12},
	}
	y := FirstRowY
	for _, l := range d.LineItems {
		out = append(out,
			PositionedText{Text: l.Date, X: ColDateX, Y: y, FontSize: 12},
			PositionedText{Text: l.Category, X: ColCategoryX, Y: y, FontSize: 12},
			PositionedText{Text: l.Amount, X: ColAmountX, Y: y, FontSize: 12},
		)
		y += RowStep
	}
	return append(out, PositionedText{Text: "Total: " + d.Total, X: ColAmountX, Y: y + RowStep, FontSize: 12})
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// InvoiceFileName builds "Invoice_<name>.<ext>" with whitespace runs as underscores.
func InvoiceFileName(studentName, ext string) string {
	name := whitespaceRun.ReplaceAllString(studentName, "_")
	return "Invoice_" + name + "." + strings.TrimPrefix(ext, ".")
}

// FirstContact returns the first payment carrying a usable contact number.
func FirstContact(payments []core.PaymentRecord) (core.PaymentRecord, bool) {
	for _, p := range payments {
		if p.HasContact() {
			return p, true
		}
	}
	return core.PaymentRecord{}, false
}
