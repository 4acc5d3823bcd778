package internal

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTable is one table as produced by the extractor. A nil cell means the
// extractor found no text for that position.
type RawTable [][]*string

type InputType string

const (
	InputPDF  InputType = "pdf"
	InputXLSX InputType = "xlsx"
)

type ExpenseRecord struct {
	Date          time.Time
	Establishment string
	RefNo         string
	Amount        decimal.NullDecimal
	Purpose       string
	Total         decimal.Decimal
	ProjectName   string

	// Placeholders completed by hand downstream.
	PCVNo       string
	ProjectCode string
	PONumber    string
}

const DateLayout = "01/02/2006"

var OutputColumns = []string{
	"PCV No.", "DATE", "ESTABLISHMENT NAME", "REF NO", "AMOUNT",
	"TOTAL", "PROJECT CODE", "PROJECT NAME", "PO NUMBER", "PURPOSE",
}

func (r ExpenseRecord) DateText() string {
	return r.Date.Format(DateLayout)
}

// Row returns the record in OutputColumns order. A missing amount is nil.
func (r ExpenseRecord) Row() []any {
	var amount any
	if r.Amount.Valid {
		amount = r.Amount.Decimal.InexactFloat64()
	}
	return []any{
		r.PCVNo,
		r.Date,
		r.Establishment,
		r.RefNo,
		amount,
		r.Total.InexactFloat64(),
		r.ProjectCode,
		r.ProjectName,
		r.PONumber,
		r.Purpose,
	}
}

type UnparsedAmount struct {
	Row  int
	Date string
	Raw  string
}

type DateGroup struct {
	StartRow int
	EndRow   int
	Date     string
	Total    decimal.Decimal
}

func (g DateGroup) Len() int {
	return g.EndRow - g.StartRow + 1
}

type DateBounds struct {
	StartDay   string
	EndDay     string
	StartMonth string
	EndMonth   string
	EndYear    string
}

type Payer struct {
	LastName  string
	FirstName string
	Month     string
	Day       string
	Year      string
}

// FullName is the payer as printed on the form: "FIRST LAST".
func (p Payer) FullName() string {
	return p.FirstName + " " + p.LastName
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type ConversionStatus string

const (
	ConversionRunning   ConversionStatus = "running"
	ConversionSucceeded ConversionStatus = "succeeded"
	ConversionFailed    ConversionStatus = "failed"
)

type ConversionRow struct {
	ID              string `csv:"id"`
	EmailID         *int   `csv:"email_id"`
	SourceName      string `csv:"source_name"`
	OutputPath      string `csv:"output_path"`
	Payer           string `csv:"payer"`
	Records         int    `csv:"records"`
	UnparsedAmounts int    `csv:"unparsed_amounts"`
	GrandTotal      string `csv:"grand_total"`
	Status          string `csv:"status"`
	Error           string `csv:"error"`
	StartedAt       string `csv:"started_at"`
	FinishedAt      string `csv:"finished_at"`
}
