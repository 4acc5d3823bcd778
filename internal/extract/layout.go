package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"reimburse/internal"
)

// Glyph is one positioned text run on a page. Y grows upwards, as in PDF
// user space.
type Glyph struct {
	X        float64
	Y        float64
	W        float64
	FontSize float64
	S        string
}

type Options struct {
	// RowTolerance groups glyphs whose baselines differ by at most this much.
	RowTolerance float64
	// CellGap splits a line into separate cells when the horizontal gap
	// between glyphs exceeds it.
	CellGap float64
	// AnchorHeaders must all appear on one line for it to count as the
	// table header.
	AnchorHeaders []string
	DateHeader    string
}

func DefaultOptions() Options {
	return Options{
		RowTolerance:  2.5,
		CellGap:       9,
		AnchorHeaders: []string{"Date", "Amount"},
		DateHeader:    "Date",
	}
}

var (
	pageFooter = regexp.MustCompile(`(?i)^(page\s*)?\d+(\s*(of|/)\s*\d+)?$`)
	tableEnd   = regexp.MustCompile(`(?i)^(grand\s+)?total\b`)
)

type segment struct {
	x0, x1 float64
	text   string
}

type line struct {
	y        float64
	segments []segment
}

type column struct {
	x0, x1 float64
}

// BuildTables rebuilds one table per page from positioned text. Columns are
// taken from the header line; a line with nothing under the date column
// continues the previous row. Pages without their own header reuse the
// columns of the last header seen and contribute data rows only.
func BuildTables(pages [][]Glyph, opts Options) []internal.RawTable {
	tables := make([]internal.RawTable, 0, len(pages))
	var columns []column
	dateIdx := -1

	for _, glyphs := range pages {
		lines := groupLines(glyphs, opts)
		table := internal.RawTable{}
		inTable := columns != nil

		for _, ln := range lines {
			if isFooter(ln) {
				continue
			}
			if isHeaderLine(ln, opts.AnchorHeaders) {
				columns = columnsFromHeader(ln)
				dateIdx = findColumnIndex(ln, opts.DateHeader)
				table = append(table, toCells(ln, columns))
				inTable = true
				continue
			}
			if !inTable || columns == nil {
				continue
			}
			if tableEnd.MatchString(ln.segments[0].text) {
				inTable = false
				continue
			}

			cells := toCells(ln, columns)
			switch {
			case dateIdx >= 0 && cells[dateIdx] != nil:
				table = append(table, cells)
			case len(table) > 0:
				// Wrapped text, including a second header line.
				joinCells(table[len(table)-1], cells)
			}
		}

		if len(table) > 0 {
			tables = append(tables, table)
		}
	}
	return tables
}

func groupLines(glyphs []Glyph, opts Options) []line {
	items := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		items = append(items, g)
	}
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Y != items[b].Y {
			return items[a].Y > items[b].Y
		}
		return items[a].X < items[b].X
	})

	lines := []line{}
	var current []Glyph
	baseY := 0.0
	flush := func() {
		if len(current) == 0 {
			return
		}
		sort.SliceStable(current, func(a, b int) bool { return current[a].X < current[b].X })
		if segs := toSegments(current, opts); len(segs) > 0 {
			lines = append(lines, line{y: baseY, segments: segs})
		}
		current = nil
	}
	for _, g := range items {
		if len(current) > 0 && math.Abs(g.Y-baseY) > opts.RowTolerance {
			flush()
		}
		if len(current) == 0 {
			baseY = g.Y
		}
		current = append(current, g)
	}
	flush()
	return lines
}

func toSegments(glyphs []Glyph, opts Options) []segment {
	segs := []segment{}
	var b strings.Builder
	start, end := 0.0, 0.0
	emit := func() {
		if text := strings.TrimSpace(b.String()); text != "" {
			segs = append(segs, segment{x0: start, x1: end, text: collapse(text)})
		}
		b.Reset()
	}
	for i, g := range glyphs {
		gap := g.X - end
		if i > 0 && gap > opts.CellGap {
			emit()
		}
		if b.Len() == 0 {
			start = g.X
		} else if gap > spaceWidth(g) {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		if right := g.X + g.W; right > end || i == 0 {
			end = right
		}
	}
	emit()
	return segs
}

func spaceWidth(g Glyph) float64 {
	if g.FontSize > 0 {
		return g.FontSize * 0.2
	}
	return 1.5
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isFooter(ln line) bool {
	return len(ln.segments) == 1 && pageFooter.MatchString(ln.segments[0].text)
}

func isHeaderLine(ln line, anchors []string) bool {
	for _, want := range anchors {
		if findColumnIndex(ln, want) < 0 {
			return false
		}
	}
	return len(anchors) > 0
}

func findColumnIndex(ln line, header string) int {
	for i, seg := range ln.segments {
		if strings.EqualFold(seg.text, header) {
			return i
		}
	}
	return -1
}

// columnsFromHeader splits the page at the midpoints of the gaps between
// consecutive header cells.
func columnsFromHeader(ln line) []column {
	cols := make([]column, len(ln.segments))
	for i := range ln.segments {
		left := math.Inf(-1)
		right := math.Inf(1)
		if i > 0 {
			left = (ln.segments[i-1].x1 + ln.segments[i].x0) / 2
		}
		if i < len(ln.segments)-1 {
			right = (ln.segments[i].x1 + ln.segments[i+1].x0) / 2
		}
		cols[i] = column{x0: left, x1: right}
	}
	return cols
}

func toCells(ln line, columns []column) []*string {
	cells := make([]*string, len(columns))
	for _, seg := range ln.segments {
		idx := columnFor(seg, columns)
		if cells[idx] == nil {
			text := seg.text
			cells[idx] = &text
			continue
		}
		joined := *cells[idx] + " " + seg.text
		cells[idx] = &joined
	}
	return cells
}

func columnFor(seg segment, columns []column) int {
	center := (seg.x0 + seg.x1) / 2
	for i, col := range columns {
		if center >= col.x0 && center < col.x1 {
			return i
		}
	}
	return len(columns) - 1
}

func joinCells(row []*string, cells []*string) {
	for i, c := range cells {
		if c == nil || i >= len(row) {
			continue
		}
		if row[i] == nil {
			text := *c
			row[i] = &text
			continue
		}
		joined := *row[i] + "\n" + *c
		row[i] = &joined
	}
}
