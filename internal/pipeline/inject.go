package pipeline

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"reimburse/internal"
	"reimburse/internal/logger"
	"reimburse/internal/workbook"
)

const dateNumFmt = "mm/dd/yyyy"

// Block is where the records landed on the form.
type Block struct {
	FirstRow   int
	LastRow    int
	SummaryRow int
	Records    int
}

// Inject copies the records into a fresh copy of the template and saves it
// to outPath. The template's single placeholder row grows into a block of
// len(records) rows; the spare row pushed below the block is removed so the
// total row sits right under the data.
func Inject(ctx context.Context, engine workbook.Engine, templatePath string, records []internal.ExpenseRecord, layout internal.TemplateLayout, outPath string) (Block, error) {
	n := len(records)
	if n == 0 {
		return Block{}, ErrRecordCount
	}
	log := logger.FromContext(ctx)

	session, err := engine.Open(ctx, templatePath)
	if err != nil {
		return Block{}, fmt.Errorf("open template: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Str("engine", engine.Name()).Msg("close workbook session")
		}
	}()

	f := session.File()
	sheet := layout.SheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return Block{}, fmt.Errorf("%w: %q", ErrTemplateFormat, sheet)
	}

	if err := insertDataRows(f, layout, n-1); err != nil {
		return Block{}, err
	}

	for i, rec := range records {
		row := rec.Row()
		cell, _ := excelize.CoordinatesToCellName(layout.FirstColumn, layout.FirstDataRow+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return Block{}, fmt.Errorf("write record %d: %w", i+1, err)
		}
	}

	block := Block{
		FirstRow:   layout.FirstDataRow,
		LastRow:    layout.LastDataRow(n),
		SummaryRow: layout.SummaryRow(n),
		Records:    n,
	}

	st := newStyler(f, sheet)
	if err := st.columnRange(layout.DateColumn, block.FirstRow, block.LastRow, withNumFmt(dateNumFmt)); err != nil {
		return Block{}, err
	}

	for i := 0; i < layout.SpareRows; i++ {
		if err := f.RemoveRow(sheet, block.SummaryRow); err != nil {
			return Block{}, fmt.Errorf("remove spare row: %w", err)
		}
	}

	if err := session.SaveAs(ctx, outPath); err != nil {
		return Block{}, fmt.Errorf("save intermediate workbook: %w", err)
	}

	log.Debug().
		Str("engine", engine.Name()).
		Int("records", n).
		Int("firstRow", block.FirstRow).
		Int("lastRow", block.LastRow).
		Msg("records injected")
	return block, nil
}

// insertDataRows pushes count blank rows in at the insertion row. The new
// rows take the placeholder row's styles, as a spreadsheet application's
// insert would.
func insertDataRows(f *excelize.File, layout internal.TemplateLayout, count int) error {
	if count <= 0 {
		return nil
	}
	sheet := layout.SheetName
	if err := f.InsertRows(sheet, layout.InsertRow, count); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}

	for col := layout.FirstColumn; col <= layout.LastColumn; col++ {
		src, _ := excelize.CoordinatesToCellName(col, layout.FirstDataRow)
		styleID, err := f.GetCellStyle(sheet, src)
		if err != nil {
			return err
		}
		top, _ := excelize.CoordinatesToCellName(col, layout.InsertRow)
		bottom, _ := excelize.CoordinatesToCellName(col, layout.InsertRow+count-1)
		if err := f.SetCellStyle(sheet, top, bottom, styleID); err != nil {
			return err
		}
	}
	return nil
}
