package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"homemoney/internal/core"
)

// SheetName is the worksheet holding the exported records.
const SheetName = "Expenses"

// WriteExcel writes records as an xlsx workbook: a header row followed by one
// row per record with the amount stored as a number.
func WriteExcel(w io.Writer, records []core.ExpenseRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	for i, h := range csvHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		row := i + 2
		typ := r.Type
		if typ == "" {
			typ = UncategorizedType
		}
		values := []any{typ, r.Remark, r.Amount, r.Time}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}
	if len(records) > 0 {
		last := fmt.Sprintf("C%d", len(records)+1)
		if err := f.SetCellStyle(SheetName, "C2", last, amountStyle); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "A", 14)
	_ = f.SetColWidth(SheetName, "B", "B", 30)
	_ = f.SetColWidth(SheetName, "D", "D", 12)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
