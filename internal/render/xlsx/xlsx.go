// Package xlsx exports invoice statements as spreadsheets.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Additional-Code/portal/internal/entity"
)

// ContentType is the media type of exported workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheet = "Invoices"

var headers = []interface{}{"Invoice #", "Date", "Due Date", "Status", "Amount", "Balance Due"}

// Invoices writes one row per invoice, in order, below a bold header row.
// Amounts are numeric cells so the sheet can be summed.
func Invoices(invoices []entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", bold); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, inv := range invoices {
		row := []interface{}{
			inv.InvoiceNumber,
			inv.Date.Display(),
			inv.DueDate.Display(),
			string(inv.Status),
			inv.Total.InexactFloat64(),
			inv.Outstanding().InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(invoices) > 0 {
		last := fmt.Sprintf("F%d", len(invoices)+1)
		if err := f.SetCellStyle(sheet, "E2", last, money); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 18)
	_ = f.SetColWidth(sheet, "B", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 20)
	_ = f.SetColWidth(sheet, "E", "F", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
