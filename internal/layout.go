package internal

// TemplateLayout describes where the reimbursement template expects things.
// Rows and columns are 1-based.
type TemplateLayout struct {
	SheetName string

	// FirstDataRow holds the single placeholder row that receives the first
	// record. InsertRow is where blank rows are pushed in for the rest.
	FirstDataRow int
	InsertRow    int
	// SpareRows are placeholder rows the template keeps under the first data
	// row; they end up directly below the written block and are removed.
	SpareRows int

	FirstColumn   int
	LastColumn    int
	NameColumn    int
	DateColumn    int
	AmountColumn  int
	TotalColumn   int
	PurposeColumn int

	DateStampCell string
	PayerCode     string

	FontFamily   string
	FontSize     float64
	BoldPurpose  bool
	CurrencyCode string

	CharWidth    float64
	LineHeight   float64
	WidthPadding float64
}

func DefaultLayout() TemplateLayout {
	return TemplateLayout{
		SheetName:     "EXPENSE FORM",
		FirstDataRow:  16,
		InsertRow:     17,
		SpareRows:     1,
		FirstColumn:   1,
		LastColumn:    10,
		NameColumn:    1,
		DateColumn:    2,
		AmountColumn:  5,
		TotalColumn:   6,
		PurposeColumn: 10,
		DateStampCell: "H7",
		PayerCode:     "474",
		FontFamily:    "Arial",
		FontSize:      14,
		CurrencyCode:  "PHP",
		CharWidth:     7,
		LineHeight:    6,
		WidthPadding:  2,
	}
}

// LastDataRow is the last row of a block of n records.
func (l TemplateLayout) LastDataRow(n int) int {
	return l.FirstDataRow + n - 1
}

// SummaryRow is the row right under a block of n records.
func (l TemplateLayout) SummaryRow(n int) int {
	return l.FirstDataRow + n
}

func (l TemplateLayout) CurrencyFormat() string {
	return `"` + l.CurrencyCode + `" #,##0.00`
}
