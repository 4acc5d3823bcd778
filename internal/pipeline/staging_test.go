package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal"
)

func TestStagingRoundTrip(t *testing.T) {
	records := recordsForDays(1, 1, 4)
	records[1].Amount = decimal.NullDecimal{}
	records[2].ProjectName = "Acme"
	records[2].Amount = decimal.NewNullDecimal(decimal.RequireFromString("1250.75"))

	path := filepath.Join(t.TempDir(), "nested", "staging.xlsx")
	require.NoError(t, ExportRecordsToXLSX(records, path))

	loaded, err := LoadStagingRecords(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(records))

	for i := range records {
		assert.True(t, records[i].Date.Equal(loaded[i].Date), "row %d date", i)
		assert.Equal(t, records[i].Establishment, loaded[i].Establishment)
		assert.Equal(t, records[i].Purpose, loaded[i].Purpose)
		assert.Equal(t, records[i].ProjectName, loaded[i].ProjectName)
		assert.Equal(t, records[i].Amount.Valid, loaded[i].Amount.Valid)
		if records[i].Amount.Valid {
			assert.True(t, records[i].Amount.Decimal.Equal(loaded[i].Amount.Decimal), "row %d amount", i)
		}
		assert.True(t, records[i].Total.Equal(loaded[i].Total), "row %d total", i)
	}
}

func TestLoadStagingRecordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staging.xlsx")
	require.NoError(t, ExportRecordsToXLSX([]internal.ExpenseRecord{}, path))

	loaded, err := LoadStagingRecords(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
