package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"reimburse/internal"
)

const stagingSheet = "Sheet1"

// ExportRecordsToXLSX writes normalized records as a plain table with the
// output column names in row 1.
func ExportRecordsToXLSX(records []internal.ExpenseRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, h := range internal.OutputColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(stagingSheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(stagingSheet, cell, value)
		}

		set(1, rec.PCVNo)
		set(2, rec.DateText())
		set(3, rec.Establishment)
		set(4, rec.RefNo)
		set(5, derefAmount(rec.Amount))
		set(6, rec.Total.String())
		set(7, rec.ProjectCode)
		set(8, rec.ProjectName)
		set(9, rec.PONumber)
		set(10, rec.Purpose)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// LoadStagingRecords reads back a workbook written by ExportRecordsToXLSX.
func LoadStagingRecords(path string) ([]internal.ExpenseRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(stagingSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: staging workbook is empty", ErrMissingData)
	}

	records := make([]internal.ExpenseRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cell := func(col int) string {
			if col-1 < len(row) {
				return row[col-1]
			}
			return ""
		}

		date, err := ParseDate(cell(2))
		if err != nil {
			return nil, fmt.Errorf("staging row %d: %w", i+2, err)
		}
		total, err := decimal.NewFromString(strings.TrimSpace(cell(6)))
		if err != nil {
			return nil, fmt.Errorf("staging row %d: total %q: %w", i+2, cell(6), err)
		}

		rec := internal.ExpenseRecord{
			PCVNo:         cell(1),
			Date:          date,
			Establishment: cell(3),
			RefNo:         cell(4),
			Total:         total,
			ProjectCode:   cell(7),
			ProjectName:   cell(8),
			PONumber:      cell(9),
			Purpose:       cell(10),
		}
		if raw := strings.TrimSpace(cell(5)); raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("staging row %d: amount %q: %w", i+2, raw, err)
			}
			rec.Amount = decimal.NewNullDecimal(amount)
		}
		records = append(records, rec)
	}
	return records, nil
}

func derefAmount(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
