package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"reimburse/internal"
)

const (
	dateStampLayout = "02-Jan-06"
	maxRowHeight    = 409
)

type FinishResult struct {
	Bounds     internal.DateBounds
	Groups     []internal.DateGroup
	GrandTotal decimal.Decimal
}

// Finish lays out the injected block: date runs are merged, merged cells are
// formatted, the payer block and grand total are written, columns and rows
// are sized and the block is framed.
func Finish(f *excelize.File, records []internal.ExpenseRecord, block Block, layout internal.TemplateLayout, payer internal.Payer, now time.Time) (FinishResult, error) {
	if len(records) == 0 || block.Records != len(records) {
		return FinishResult{}, fmt.Errorf("%w: %d records for a block of %d rows", ErrRecordCount, len(records), block.Records)
	}
	sheet := layout.SheetName
	st := newStyler(f, sheet)

	bounds, err := DeriveDateBounds(f, layout, block)
	if err != nil {
		return FinishResult{}, err
	}

	groups, err := MergeDateGroups(f, st, records, layout, block)
	if err != nil {
		return FinishResult{}, err
	}
	if err := FormatCells(f, st, layout, block); err != nil {
		return FinishResult{}, err
	}
	if err := applyCurrency(st, layout, block); err != nil {
		return FinishResult{}, err
	}
	if err := MergeSummaryCell(f, st, layout, block, payer, now); err != nil {
		return FinishResult{}, err
	}
	if err := AutoSizeColumns(f, layout, block); err != nil {
		return FinishResult{}, err
	}
	if err := AutoSizeRows(f, layout, block); err != nil {
		return FinishResult{}, err
	}
	if err := DrawBorders(st, layout, block); err != nil {
		return FinishResult{}, err
	}

	fullCalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &fullCalc}); err != nil {
		return FinishResult{}, err
	}

	return FinishResult{Bounds: bounds, Groups: groups, GrandTotal: GrandTotal(records)}, nil
}

// GrandTotal sums every parsed amount.
func GrandTotal(records []internal.ExpenseRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, rec := range records {
		if rec.Amount.Valid {
			sum = sum.Add(rec.Amount.Decimal)
		}
	}
	return sum
}

// DeriveDateBounds reads the first and last dates of the block back from the
// sheet.
func DeriveDateBounds(f *excelize.File, layout internal.TemplateLayout, block Block) (internal.DateBounds, error) {
	start, err := readDateCell(f, layout, block.FirstRow)
	if err != nil {
		return internal.DateBounds{}, err
	}
	end, err := readDateCell(f, layout, block.LastRow)
	if err != nil {
		return internal.DateBounds{}, err
	}
	return internal.DateBounds{
		StartDay:   start.Format("02"),
		EndDay:     end.Format("02"),
		StartMonth: start.Format("01"),
		EndMonth:   end.Format("01"),
		EndYear:    end.Format("2006"),
	}, nil
}

func readDateCell(f *excelize.File, layout internal.TemplateLayout, row int) (time.Time, error) {
	cell, _ := excelize.CoordinatesToCellName(layout.DateColumn, row)
	raw, err := f.GetCellValue(layout.SheetName, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrLayout, cell, err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is empty", ErrLayout, cell)
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %v", ErrLayout, cell, err)
		}
		return t, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s holds %q", ErrLayout, cell, raw)
	}
	return t, nil
}

// MergeDateGroups merges each run of equal dates in the date and total
// columns. The total anchor keeps the run's subtotal. Every run is returned
// as a group, but a run of one row issues no merge, so the sheet holds one
// merged region per multi-row run only.
func MergeDateGroups(f *excelize.File, st *styler, records []internal.ExpenseRecord, layout internal.TemplateLayout, block Block) ([]internal.DateGroup, error) {
	groups := dateRuns(records, block.FirstRow)
	sheet := layout.SheetName

	for _, g := range groups {
		for _, col := range []int{layout.DateColumn, layout.TotalColumn} {
			top, _ := excelize.CoordinatesToCellName(col, g.StartRow)
			if g.Len() > 1 {
				bottom, _ := excelize.CoordinatesToCellName(col, g.EndRow)
				if err := f.MergeCell(sheet, top, bottom); err != nil {
					return nil, fmt.Errorf("merge %s:%s: %w", top, bottom, err)
				}
			}
			if err := st.apply(top, withAlignment("center", "center", false)); err != nil {
				return nil, err
			}
		}
		totalCell, _ := excelize.CoordinatesToCellName(layout.TotalColumn, g.StartRow)
		if err := f.SetCellValue(sheet, totalCell, g.Total.InexactFloat64()); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func dateRuns(records []internal.ExpenseRecord, firstRow int) []internal.DateGroup {
	groups := []internal.DateGroup{}
	for i, rec := range records {
		row := firstRow + i
		date := rec.DateText()
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].EndRow = row
			continue
		}
		groups = append(groups, internal.DateGroup{StartRow: row, EndRow: row, Date: date, Total: rec.Total})
	}
	return groups
}

// FormatCells styles every cell inside a merged region that starts at or
// below the first data row; plain cells and the template's header merges
// keep their formatting. Anchors stay centered, covered cells are left
// aligned.
func FormatCells(f *excelize.File, st *styler, layout internal.TemplateLayout, block Block) error {
	merged, err := f.GetMergeCells(layout.SheetName)
	if err != nil {
		return err
	}
	for _, mc := range merged {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			return err
		}
		if r1 < block.FirstRow {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			return err
		}
		for col := c1; col <= c2; col++ {
			bold := layout.BoldPurpose && col == layout.PurposeColumn
			for row := r1; row <= r2; row++ {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				horizontal := "left"
				if col == c1 && row == r1 {
					horizontal = ""
				}
				if err := st.apply(cell,
					withFont(layout.FontFamily, layout.FontSize, bold),
					withAlignment(horizontal, "center", true),
				); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// applyCurrency sets the currency pattern on the amount and total data cells
// and on the grand total cells under them.
func applyCurrency(st *styler, layout internal.TemplateLayout, block Block) error {
	format := withNumFmt(layout.CurrencyFormat())
	for _, col := range []int{layout.AmountColumn, layout.TotalColumn} {
		if err := st.columnRange(col, block.FirstRow, block.SummaryRow, format); err != nil {
			return err
		}
	}
	return nil
}

// MergeSummaryCell writes the payer block beside the records, the date stamp
// and the grand total formulas.
func MergeSummaryCell(f *excelize.File, st *styler, layout internal.TemplateLayout, block Block, payer internal.Payer, now time.Time) error {
	sheet := layout.SheetName
	top, _ := excelize.CoordinatesToCellName(layout.NameColumn, block.FirstRow)
	bottom, _ := excelize.CoordinatesToCellName(layout.NameColumn, block.LastRow)
	if block.LastRow > block.FirstRow {
		if err := f.MergeCell(sheet, top, bottom); err != nil {
			return fmt.Errorf("merge name block: %w", err)
		}
	}
	name := strings.ToUpper(payer.FullName()) + "\n" + layout.PayerCode
	if err := f.SetCellValue(sheet, top, name); err != nil {
		return err
	}
	if err := st.apply(top, withAlignment("center", "center", true)); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, layout.DateStampCell, now.Format(dateStampLayout)); err != nil {
		return err
	}

	amountCol, _ := excelize.ColumnNumberToName(layout.AmountColumn)
	totalCol, _ := excelize.ColumnNumberToName(layout.TotalColumn)
	sumCell := fmt.Sprintf("%s%d", amountCol, block.SummaryRow)
	sum := fmt.Sprintf("SUM(%s%d:%s%d)", amountCol, block.FirstRow, amountCol, block.LastRow)
	if err := f.SetCellFormula(sheet, sumCell, sum); err != nil {
		return err
	}
	return f.SetCellFormula(sheet, fmt.Sprintf("%s%d", totalCol, block.SummaryRow), sumCell)
}

// AutoSizeColumns widens each layout column to its longest value in the
// block plus padding. Columns with nothing in them keep the template width.
func AutoSizeColumns(f *excelize.File, layout internal.TemplateLayout, block Block) error {
	sheet := layout.SheetName
	for col := layout.FirstColumn; col <= layout.LastColumn; col++ {
		longest := 0
		for row := block.FirstRow; row <= block.LastRow; row++ {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			value, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return err
			}
			if n := len([]rune(value)); n > longest {
				longest = n
			}
		}
		if longest == 0 {
			continue
		}
		name, _ := excelize.ColumnNumberToName(col)
		if err := f.SetColWidth(sheet, name, name, float64(longest)+layout.WidthPadding); err != nil {
			return err
		}
	}
	return nil
}

// AutoSizeRows sets each block row's height from its most wrapped cell.
func AutoSizeRows(f *excelize.File, layout internal.TemplateLayout, block Block) error {
	sheet := layout.SheetName
	for row := block.FirstRow; row <= block.LastRow; row++ {
		maxLines := 1
		for col := layout.FirstColumn; col <= layout.LastColumn; col++ {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			value, err := f.GetCellValue(sheet, cell)
			if err != nil {
				return err
			}
			if value == "" {
				continue
			}
			name, _ := excelize.ColumnNumberToName(col)
			width, err := f.GetColWidth(sheet, name)
			if err != nil {
				return err
			}
			if lines := wrappedLines(value, width, layout.CharWidth); lines > maxLines {
				maxLines = lines
			}
		}
		height := math.Min(float64(maxLines)*layout.LineHeight, maxRowHeight)
		if err := f.SetRowHeight(sheet, row, height); err != nil {
			return err
		}
	}
	return nil
}

// wrappedLines estimates how many lines text takes in a column of the given
// width when every character is charWidth wide.
func wrappedLines(text string, width, charWidth float64) int {
	if width <= 0 {
		width = charWidth
	}
	perLine := 1
	if charWidth > 0 {
		perLine = int(math.Max(1, math.Floor(width/charWidth)))
	}
	total := 0
	for _, line := range strings.Split(text, "\n") {
		total += (len([]rune(line)) + perLine - 1) / perLine
	}
	return max(1, total)
}

// DrawBorders frames the block: thin grid inside, medium edge on the first
// and last columns.
func DrawBorders(st *styler, layout internal.TemplateLayout, block Block) error {
	for col := layout.FirstColumn; col <= layout.LastColumn; col++ {
		left, right := borderThin, borderThin
		if col == layout.FirstColumn {
			left = borderMedium
		}
		if col == layout.LastColumn {
			right = borderMedium
		}
		if err := st.columnRange(col, block.FirstRow, block.LastRow, withBorder(left, right, borderThin, borderThin)); err != nil {
			return err
		}
	}
	return nil
}
