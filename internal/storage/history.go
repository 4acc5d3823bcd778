package storage

import (
	"io"

	"github.com/gocarina/gocsv"

	"reimburse/internal"
)

// WriteConversionsCSV writes rows with a header line taken from the csv tags
// on internal.ConversionRow.
func WriteConversionsCSV(w io.Writer, rows []internal.ConversionRow) error {
	if rows == nil {
		rows = []internal.ConversionRow{}
	}
	return gocsv.Marshal(&rows, w)
}
