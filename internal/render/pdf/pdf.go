// Package pdf renders invoices and sales orders as printable documents.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/view/format"
)

// ContentType is the media type of rendered documents.
const ContentType = "application/pdf"

const (
	pageMargin = 15.0
	lineHeight = 7.0
)

// document wraps gofpdf with the portal's letterhead and table helpers.
// Core fonts are cp1252, so amounts use "INR" rather than the rupee sign.
type document struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newDocument(title string, brand entity.Branding) *document {
	p := gofpdf.New("P", "mm", "A4", "")
	p.SetMargins(pageMargin, pageMargin, pageMargin)
	p.SetTitle(title, true)
	if brand.CompanyName != "" {
		p.SetAuthor(brand.CompanyName, true)
	}
	p.AddPage()

	d := &document{pdf: p, tr: p.UnicodeTranslatorFromDescriptor("")}
	d.letterhead(brand)
	return d
}

func (d *document) letterhead(brand entity.Branding) {
	name := strings.TrimSpace(brand.CompanyName)
	if name == "" {
		return
	}
	d.pdf.SetFont("Arial", "B", 16)
	d.pdf.CellFormat(0, 9, d.tr(name), "", 1, "L", false, 0, "")

	d.pdf.SetFont("Arial", "", 9)
	for _, line := range []string{brand.Address, brand.Email, brand.Phone} {
		if line = strings.TrimSpace(line); line != "" {
			d.pdf.CellFormat(0, 5, d.tr(line), "", 1, "L", false, 0, "")
		}
	}
	d.pdf.Ln(4)
}

func (d *document) heading(text string) {
	d.pdf.SetFont("Arial", "B", 14)
	d.pdf.CellFormat(0, 10, d.tr(text), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) field(label, value string) {
	d.pdf.SetFont("Arial", "B", 10)
	d.pdf.CellFormat(40, lineHeight, d.tr(label), "", 0, "L", false, 0, "")
	d.pdf.SetFont("Arial", "", 10)
	d.pdf.CellFormat(0, lineHeight, d.tr(value), "", 1, "L", false, 0, "")
}

func (d *document) row(widths []float64, cells []string, header bool) {
	style := ""
	if header {
		style = "B"
		d.pdf.SetFillColor(235, 235, 235)
	}
	d.pdf.SetFont("Arial", style, 10)
	for i, cell := range cells {
		align := "L"
		if i > 0 {
			align = "R"
		}
		d.pdf.CellFormat(widths[i], lineHeight, d.tr(cell), "1", 0, align, header, 0, "")
	}
	d.pdf.Ln(-1)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func amount(d decimal.Decimal) string {
	return "INR " + format.Grouped(d.StringFixed(2))
}

func dateOrDash(d entity.Date) string {
	if s := d.Display(); s != "" {
		return s
	}
	return "-"
}

// SalesOrder renders order with brand's letterhead.
func SalesOrder(order entity.SalesOrder, brand entity.Branding) ([]byte, error) {
	d := newDocument("Sales Order "+order.Number, brand)
	d.heading("Sales Order " + order.Number)
	d.field("Date", dateOrDash(order.Date))
	d.field("Status", string(order.Status))
	d.pdf.Ln(4)

	widths := []float64{90, 30, 60}
	d.row(widths, []string{"Item", "Quantity", "Amount"}, true)
	for _, item := range order.Items {
		qty := format.Quantity(item.Quantity)
		if unit := strings.TrimSpace(item.Unit); unit != "" {
			qty += " " + unit
		}
		d.row(widths, []string{item.Name, qty, amount(item.Amount)}, false)
	}
	d.row(widths, []string{"Total", "", amount(order.Total)}, true)

	return d.bytes()
}

// Invoice renders inv with brand's letterhead.
func Invoice(inv entity.Invoice, brand entity.Branding) ([]byte, error) {
	d := newDocument("Invoice "+inv.InvoiceNumber, brand)
	d.heading("Invoice " + inv.InvoiceNumber)
	d.field("Invoice date", dateOrDash(inv.Date))
	d.field("Due date", dateOrDash(inv.DueDate))
	d.field("Status", string(inv.Status))
	d.pdf.Ln(4)

	widths := []float64{110, 70}
	d.row(widths, []string{"Description", "Amount"}, true)
	d.row(widths, []string{"Invoice total", amount(inv.Total)}, false)
	d.row(widths, []string{"Balance due", amount(inv.Outstanding())}, true)

	return d.bytes()
}
