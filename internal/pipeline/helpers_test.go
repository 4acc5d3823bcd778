package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reimburse/internal"
	"reimburse/internal/workbook"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, WriteBlankTemplate(path, internal.DefaultLayout()))
	return path
}

// recordsForDays builds one record per entry; equal days share a date and
// the per-date totals are filled in the way the normalizer would.
func recordsForDays(days ...int) []internal.ExpenseRecord {
	records := make([]internal.ExpenseRecord, len(days))
	totals := map[int]decimal.Decimal{}
	for i, day := range days {
		amount := decimal.NewFromInt(int64(10 * (i + 1)))
		totals[day] = totals[day].Add(amount)
		records[i] = internal.ExpenseRecord{
			Date:          time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
			Establishment: "SHOP",
			RefNo:         "OR-1",
			Amount:        decimal.NewNullDecimal(amount),
			Purpose:       "MEALS\nlunch",
		}
	}
	for i, day := range days {
		records[i].Total = totals[day]
	}
	return records
}

func injectRecords(t *testing.T, records []internal.ExpenseRecord) (*excelize.File, Block) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "injected.xlsx")
	block, err := Inject(context.Background(), workbook.MemoryEngine{}, writeTemplate(t), records, internal.DefaultLayout(), out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, block
}

func cellValue(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(internal.DefaultLayout().SheetName, cell)
	require.NoError(t, err)
	return v
}

func cellStyle(t *testing.T, f *excelize.File, cell string) *excelize.Style {
	t.Helper()
	sheet := internal.DefaultLayout().SheetName
	id, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)
	st, err := f.GetStyle(id)
	require.NoError(t, err)
	return st
}

// mergesInColumn lists merged ranges that start in the given column at or
// below fromRow.
func mergesInColumn(t *testing.T, f *excelize.File, col string, fromRow int) []string {
	t.Helper()
	merged, err := f.GetMergeCells(internal.DefaultLayout().SheetName)
	require.NoError(t, err)
	out := []string{}
	for _, mc := range merged {
		c, r, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		require.NoError(t, err)
		name, _ := excelize.ColumnNumberToName(c)
		if name == col && r >= fromRow {
			out = append(out, mc.GetStartAxis()+":"+mc.GetEndAxis())
		}
	}
	return out
}
