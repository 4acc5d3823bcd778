package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reimburse/internal"
	"reimburse/internal/workbook"
)

func writeTablesWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tables.xlsx")
	f := excelize.NewFile()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newTestConverter(t *testing.T) (*Converter, string) {
	t.Helper()
	workDir := filepath.Join(t.TempDir(), "work")
	require.NoError(t, os.MkdirAll(workDir, 0o755))
	conv := NewConverter(workbook.MemoryEngine{}, writeTemplate(t), internal.DefaultLayout(), workDir)
	conv.Now = func() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) }
	return conv, workDir
}

func TestConvertFromTablesWorkbook(t *testing.T) {
	input := writeTablesWorkbook(t, [][]any{
		{"Date", "Time", "Establishment", "OR No. / Ref.\nNo.", "Amount", "Expense Type", "Reimbursable", "Notes"},
		{"03/01/2024", "08:00", "Jollibee", "OR-1", "12.50", "Reimbursement-Meals", "Yes", "Breakfast"},
		{"03/01/2024", "12:00", "Mang Inasal", "OR-2", "bad", "Reimbursement-Meals", "Yes", "Lunch"},
		{"03/01/2024", "18:00", "Grab", "OR-3", "7.00", "Reimbursement-Transport", "Yes", "Ride home"},
		{"03/03/2024", "09:00", "Shell", "OR-4", "1,000.00", "Liquidation-Fuel", "Yes", "Site visit"},
	})
	conv, workDir := newTestConverter(t)
	outDir := filepath.Join(t.TempDir(), "out")

	res, err := conv.Convert(context.Background(), ConvertRequest{
		InputPath:  input,
		SourceName: "SMITH-JOHN DOE (March 15, 2024).pdf",
		Type:       internal.InputXLSX,
		OutputDir:  outDir,
	})
	require.NoError(t, err)

	assert.Equal(t, "Reimbursement_JOHN DOE SMITH_03.01-03.24.xlsx", res.FileName)
	assert.Equal(t, filepath.Join(outDir, res.FileName), res.OutputPath)
	assert.Equal(t, 4, res.Records)
	assert.Len(t, res.Groups, 2)
	assert.Equal(t, "1019.5", res.GrandTotal.String())
	require.Len(t, res.Unparsed, 1)
	assert.Equal(t, "bad", res.Unparsed[0].Raw)

	f, err := excelize.OpenFile(res.OutputPath)
	require.NoError(t, err)
	defer f.Close()
	sheet := internal.DefaultLayout().SheetName

	raw, err := f.GetCellValue(sheet, "F16", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "19.5", raw)
	est, err := f.GetCellValue(sheet, "C17")
	require.NoError(t, err)
	assert.Equal(t, "MANG INASAL", est)
	stamp, err := f.GetCellValue(sheet, "H7")
	require.NoError(t, err)
	assert.Equal(t, "20-Mar-24", stamp)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp artifacts should be removed")
}

func TestConvertFailsFastOnFilename(t *testing.T) {
	conv, _ := newTestConverter(t)
	_, err := conv.Convert(context.Background(), ConvertRequest{
		InputPath: filepath.Join(t.TempDir(), "missing.pdf"),
		OutputDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrFilenameFormat)
}

func TestConvertSurfacesSchemaErrors(t *testing.T) {
	input := writeTablesWorkbook(t, [][]any{
		{"Date", "Amount"},
		{"03/01/2024", "1"},
	})
	conv, workDir := newTestConverter(t)
	_, err := conv.Convert(context.Background(), ConvertRequest{
		InputPath:  input,
		SourceName: "SMITH-JOHN DOE (March 15, 2024).pdf",
		Type:       internal.InputXLSX,
		OutputDir:  t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrColumnSchema)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInputTypes(t *testing.T) {
	typ, err := ParseInputType("PDF")
	require.NoError(t, err)
	assert.Equal(t, internal.InputPDF, typ)
	_, err = ParseInputType("docx")
	assert.Error(t, err)

	assert.Equal(t, internal.InputXLSX, DetectInputType("a/b/tables.XLSX"))
	assert.Equal(t, internal.InputPDF, DetectInputType("report.pdf"))
}
