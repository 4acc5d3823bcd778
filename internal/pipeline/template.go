package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"reimburse/internal"
)

// WriteBlankTemplate writes a reimbursement template with the rows and
// cells the layout expects: a header block, a column header row right above
// the first data row, one placeholder row, the spare rows and a total row.
func WriteBlankTemplate(path string, layout internal.TemplateLayout) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := layout.SheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(layout.LastColumn)
	if err != nil {
		return err
	}
	firstCol, err := excelize.ColumnNumberToName(layout.FirstColumn)
	if err != nil {
		return err
	}

	title, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: layout.FontFamily, Size: 18, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Family: layout.FontFamily, Size: layout.FontSize, Bold: true}})
	if err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: layout.FontFamily, Size: layout.FontSize, Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBox(),
	})
	if err != nil {
		return err
	}
	body, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: layout.FontFamily, Size: layout.FontSize},
		Alignment: &excelize.Alignment{Vertical: "center", WrapText: true},
	})
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheet, firstCol+"1", lastCol+"1"); err != nil {
		return err
	}
	_ = f.SetCellValue(sheet, firstCol+"1", "REIMBURSEMENT FORM")
	_ = f.SetCellStyle(sheet, firstCol+"1", lastCol+"1", title)

	stampCol, stampRow, err := excelize.CellNameToCoordinates(layout.DateStampCell)
	if err != nil {
		return err
	}
	if stampCol > 1 {
		labelCell, _ := excelize.CoordinatesToCellName(stampCol-1, stampRow)
		_ = f.SetCellValue(sheet, labelCell, "DATE:")
		_ = f.SetCellStyle(sheet, labelCell, labelCell, label)
	}
	_ = f.SetCellValue(sheet, "A5", "NAME:")
	_ = f.SetCellStyle(sheet, "A5", "A5", label)
	_ = f.SetCellValue(sheet, "A7", "DEPARTMENT:")
	_ = f.SetCellStyle(sheet, "A7", "A7", label)

	headerRow := layout.FirstDataRow - 1
	for i, name := range internal.OutputColumns {
		cell, _ := excelize.CoordinatesToCellName(layout.FirstColumn+i, headerRow)
		_ = f.SetCellValue(sheet, cell, name)
	}
	start, _ := excelize.CoordinatesToCellName(layout.FirstColumn, headerRow)
	end, _ := excelize.CoordinatesToCellName(layout.LastColumn, headerRow)
	_ = f.SetCellStyle(sheet, start, end, header)

	placeholderEnd := layout.FirstDataRow + layout.SpareRows
	for row := layout.FirstDataRow; row <= placeholderEnd; row++ {
		start, _ := excelize.CoordinatesToCellName(layout.FirstColumn, row)
		end, _ := excelize.CoordinatesToCellName(layout.LastColumn, row)
		_ = f.SetCellStyle(sheet, start, end, body)
	}

	totalRow := placeholderEnd + 1
	amountCol, _ := excelize.ColumnNumberToName(layout.AmountColumn)
	totalCol, _ := excelize.ColumnNumberToName(layout.TotalColumn)
	labelCol, _ := excelize.ColumnNumberToName(layout.AmountColumn - 1)
	_ = f.SetCellValue(sheet, fmt.Sprintf("%s%d", labelCol, totalRow), "TOTAL")
	_ = f.SetCellStyle(sheet, fmt.Sprintf("%s%d", labelCol, totalRow), fmt.Sprintf("%s%d", labelCol, totalRow), label)
	_ = f.SetCellFormula(sheet, fmt.Sprintf("%s%d", amountCol, totalRow), fmt.Sprintf("SUM(%s%d:%s%d)", amountCol, layout.FirstDataRow, amountCol, layout.FirstDataRow))
	_ = f.SetCellFormula(sheet, fmt.Sprintf("%s%d", totalCol, totalRow), fmt.Sprintf("%s%d", amountCol, totalRow))

	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow+3), "Prepared by:")
	_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", totalRow+3), "Approved by:")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func thinBox() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}
