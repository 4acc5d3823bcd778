package pipeline

import (
	"github.com/xuri/excelize/v2"
)

const (
	borderThin   = 1
	borderMedium = 2
)

type styleEdit func(*excelize.Style)

// styler changes one aspect of a cell's style and keeps the rest, which
// SetCellStyle alone would replace.
type styler struct {
	f     *excelize.File
	sheet string
}

func newStyler(f *excelize.File, sheet string) *styler {
	return &styler{f: f, sheet: sheet}
}

func (s *styler) apply(cell string, edits ...styleEdit) error {
	id, err := s.f.GetCellStyle(s.sheet, cell)
	if err != nil {
		return err
	}
	style, err := s.f.GetStyle(id)
	if err != nil {
		return err
	}
	for _, edit := range edits {
		edit(style)
	}
	newID, err := s.f.NewStyle(style)
	if err != nil {
		return err
	}
	return s.f.SetCellStyle(s.sheet, cell, cell, newID)
}

func (s *styler) columnRange(col, fromRow, toRow int, edits ...styleEdit) error {
	for row := fromRow; row <= toRow; row++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := s.apply(cell, edits...); err != nil {
			return err
		}
	}
	return nil
}

func withNumFmt(code string) styleEdit {
	return func(st *excelize.Style) {
		fmtCode := code
		st.NumFmt = 0
		st.CustomNumFmt = &fmtCode
	}
}

func withFont(family string, size float64, bold bool) styleEdit {
	return func(st *excelize.Style) {
		font := excelize.Font{}
		if st.Font != nil {
			font = *st.Font
		}
		font.Family = family
		font.Size = size
		font.Bold = bold
		st.Font = &font
	}
}

func withAlignment(horizontal, vertical string, wrap bool) styleEdit {
	return func(st *excelize.Style) {
		align := excelize.Alignment{}
		if st.Alignment != nil {
			align = *st.Alignment
		}
		if horizontal != "" {
			align.Horizontal = horizontal
		}
		if vertical != "" {
			align.Vertical = vertical
		}
		align.WrapText = wrap || align.WrapText
		st.Alignment = &align
	}
}

func withBorder(left, right, top, bottom int) styleEdit {
	return func(st *excelize.Style) {
		st.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: left},
			{Type: "right", Color: "000000", Style: right},
			{Type: "top", Color: "000000", Style: top},
			{Type: "bottom", Color: "000000", Style: bottom},
		}
	}
}
