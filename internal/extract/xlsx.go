package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"reimburse/internal"
)

// XLSXExtractor reads tables that were already pulled out of a PDF and saved
// as a workbook, one table per sheet.
type XLSXExtractor struct{}

func (XLSXExtractor) Extract(ctx context.Context, path string) ([]internal.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sheetTables(ctx, f, f.GetSheetList())
}

type rowReader interface {
	GetRows(sheet string, opts ...excelize.Options) ([][]string, error)
}

func sheetTables(ctx context.Context, r rowReader, sheets []string) ([]internal.RawTable, error) {
	tables := []internal.RawTable{}
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := r.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		table := internal.RawTable{}
		for _, row := range rows {
			if isBlankRow(row) {
				continue
			}
			cells := make([]*string, len(row))
			for i, c := range row {
				if strings.TrimSpace(c) == "" {
					continue
				}
				value := c
				cells[i] = &value
			}
			table = append(table, cells)
		}
		if len(table) > 0 {
			tables = append(tables, table)
		}
	}
	return tables, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
