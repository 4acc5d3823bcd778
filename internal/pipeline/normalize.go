package pipeline

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"reimburse/internal"
	"reimburse/internal/util"
)

const (
	colDate          = "Date"
	colEstablishment = "Establishment"
	colRefNo         = "OR No. / Ref.\nNo."
	colAmount        = "Amount"
	colExpenseType   = "Expense Type"
	colNotes         = "Notes"
	colClient        = "Client"
)

var (
	requiredColumns = []string{colDate, colEstablishment, colRefNo, colAmount, colExpenseType, colNotes}

	// Header spellings the expense tool has used for the same column.
	columnAliases = map[string]string{
		"OR No. / Ref. No.": colRefNo,
	}

	expenseTypePrefix = regexp.MustCompile(`Reimbursement-|Liquidation-|Replenishment-`)

	dateLayouts = []string{
		"01/02/2006",
		"1/2/2006",
		"2006-01-02",
		"01/02/06",
		"Jan 2, 2006",
		"January 2, 2006",
		"02-Jan-2006",
		"2 Jan 2006",
		"02 Jan 2006",
	}
)

type NormalizeResult struct {
	Records  []internal.ExpenseRecord
	Unparsed []internal.UnparsedAmount
}

// NormalizeTables flattens the extracted tables into expense records. The
// first row of the first table holds the headers; rows repeating it later
// (page headers) are skipped.
func NormalizeTables(tables []internal.RawTable) (NormalizeResult, error) {
	rows := make([][]*string, 0)
	for _, t := range tables {
		rows = append(rows, t...)
	}
	if len(rows) == 0 {
		return NormalizeResult{}, ErrMissingData
	}

	header := make([]string, len(rows[0]))
	index := map[string]int{}
	for i, cell := range rows[0] {
		name := strings.TrimSpace(util.Deref(cell))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		header[i] = name
		if _, seen := index[name]; !seen && name != "" {
			index[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return NormalizeResult{}, fmt.Errorf("%w: %q", ErrColumnSchema, col)
		}
	}

	get := func(row []*string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(util.Deref(row[i]))
	}

	type pending struct {
		rawDate string
		record  internal.ExpenseRecord
	}
	items := make([]pending, 0, len(rows)-1)
	var unparsed []internal.UnparsedAmount

	for _, row := range rows[1:] {
		if isHeaderRepeat(row, header) {
			continue
		}

		rawDate := get(row, colDate)
		rawAmount := get(row, colAmount)
		amount := util.ParseAmount(rawAmount)
		if !amount.Valid {
			unparsed = append(unparsed, internal.UnparsedAmount{Row: len(items) + 1, Date: rawDate, Raw: rawAmount})
		}

		expenseType := stripFirstPrefix(util.StripNewlines(get(row, colExpenseType)))

		items = append(items, pending{
			rawDate: rawDate,
			record: internal.ExpenseRecord{
				Establishment: strings.ToUpper(util.StripNewlines(get(row, colEstablishment))),
				RefNo:         get(row, colRefNo),
				Amount:        amount,
				Purpose:       expenseType + "\n" + get(row, colNotes),
				ProjectName:   get(row, colClient),
			},
		})
	}

	totals := map[string]decimal.Decimal{}
	for _, it := range items {
		sum := totals[it.rawDate]
		if it.record.Amount.Valid {
			sum = sum.Add(it.record.Amount.Decimal)
		}
		totals[it.rawDate] = sum
	}

	records := make([]internal.ExpenseRecord, 0, len(items))
	for _, it := range items {
		date, err := ParseDate(it.rawDate)
		if err != nil {
			return NormalizeResult{}, err
		}
		rec := it.record
		rec.Date = date
		rec.Total = totals[it.rawDate]
		records = append(records, rec)
	}

	return NormalizeResult{Records: records, Unparsed: unparsed}, nil
}

// stripFirstPrefix removes only the first workflow prefix and uppercases.
func stripFirstPrefix(expenseType string) string {
	if loc := expenseTypePrefix.FindStringIndex(expenseType); loc != nil {
		expenseType = expenseType[:loc[0]] + expenseType[loc[1]:]
	}
	return strings.ToUpper(expenseType)
}

// ParseDate accepts the date spellings seen in expense exports.
func ParseDate(raw string) (time.Time, error) {
	value := util.CollapseSpaces(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, raw)
}

func isHeaderRepeat(row []*string, header []string) bool {
	matched := 0
	for i, name := range header {
		if name == "" {
			continue
		}
		cell := ""
		if i < len(row) {
			cell = strings.TrimSpace(util.Deref(row[i]))
			if alias, ok := columnAliases[cell]; ok {
				cell = alias
			}
		}
		if cell != name {
			return false
		}
		matched++
	}
	return matched > 0
}
