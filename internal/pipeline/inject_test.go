package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reimburse/internal"
	"reimburse/internal/workbook"
)

func TestInjectBlockBoundaries(t *testing.T) {
	for _, n := range []int{1, 2, 50} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			days := make([]int, n)
			for i := range days {
				days[i] = 1 + i%28
			}
			f, block := injectRecords(t, recordsForDays(days...))

			assert.Equal(t, Block{FirstRow: 16, LastRow: 15 + n, SummaryRow: 16 + n, Records: n}, block)

			for row := block.FirstRow; row <= block.LastRow; row++ {
				assert.Equal(t, "SHOP", cellValue(t, f, fmt.Sprintf("C%d", row)), "row %d", row)
			}
			assert.Empty(t, cellValue(t, f, fmt.Sprintf("C%d", block.SummaryRow)))
			assert.Equal(t, "TOTAL", cellValue(t, f, fmt.Sprintf("D%d", block.SummaryRow)))
			assert.Equal(t, "Prepared by:", cellValue(t, f, fmt.Sprintf("A%d", block.SummaryRow+3)))

			assert.Equal(t, "PCV No.", cellValue(t, f, "A15"))
			assert.Equal(t, "REIMBURSEMENT FORM", cellValue(t, f, "A1"))
		})
	}
}

func TestInjectWritesDatesAsDates(t *testing.T) {
	f, block := injectRecords(t, recordsForDays(1, 2))

	raw, err := f.GetCellValue(internal.DefaultLayout().SheetName, "B16", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.NotContains(t, raw, "/")
	assert.Equal(t, "03/01/2024", cellValue(t, f, "B16"))
	assert.Equal(t, "03/02/2024", cellValue(t, f, fmt.Sprintf("B%d", block.LastRow)))
}

func TestInjectInsertedRowsKeepPlaceholderStyle(t *testing.T) {
	f, _ := injectRecords(t, recordsForDays(1, 2, 3))
	first := cellStyle(t, f, "J16")
	inserted := cellStyle(t, f, "J17")
	require.NotNil(t, first.Font)
	require.NotNil(t, inserted.Font)
	assert.Equal(t, first.Font.Family, inserted.Font.Family)
	assert.Equal(t, first.Font.Size, inserted.Font.Size)
}

func TestInjectErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.xlsx")

	_, err := Inject(context.Background(), workbook.MemoryEngine{}, writeTemplate(t), nil, internal.DefaultLayout(), out)
	assert.ErrorIs(t, err, ErrRecordCount)

	plain := filepath.Join(t.TempDir(), "plain.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(plain))
	require.NoError(t, f.Close())

	_, err = Inject(context.Background(), workbook.MemoryEngine{}, plain, recordsForDays(1), internal.DefaultLayout(), out)
	assert.ErrorIs(t, err, ErrTemplateFormat)
}
