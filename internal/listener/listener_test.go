package listener

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal"
	"reimburse/internal/config"
	"reimburse/internal/pipeline"
	"reimburse/internal/storage"
	"reimburse/internal/util"
	"reimburse/internal/workbook"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
}

func (f fakeConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	return f.messages, nil
}

type tableExtractor []internal.RawTable

func (t tableExtractor) Extract(context.Context, string) ([]internal.RawTable, error) {
	return t, nil
}

var ptr = util.StringPtr

func reportMessage(id, attachment string) internal.FetchedMailMessage {
	raw := "From: ana@example.com\r\n" +
		"Subject: Expense report\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"B\"\r\n\r\n" +
		"--B\r\nContent-Type: text/plain\r\n\r\nAttached.\r\n" +
		"--B\r\nContent-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"" + attachment + "\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n\r\n" +
		base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")) + "\r\n--B--\r\n"
	return internal.FetchedMailMessage{Provider: "imap", MessageID: id, Subject: "Expense report", ReceivedAt: "2024-03-15T00:00:00Z", Raw: []byte(raw)}
}

func TestRunCycleFetchesAndConverts(t *testing.T) {
	root := t.TempDir()
	db, err := storage.Open(filepath.Join(root, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	cfg := config.Config{
		RawMailDir:               filepath.Join(root, "raw"),
		OutputDir:                filepath.Join(root, "out"),
		UploadDir:                filepath.Join(root, "uploads"),
		CurrencyCode:             "PHP",
		MailListenerProvider:     "imap",
		MailListenerLabel:        "INBOX",
		MailListenerFetchMax:     10,
		MailListenerProcessBatch: 10,
	}

	layout := internal.DefaultLayout()
	template := filepath.Join(root, "template.xlsx")
	require.NoError(t, pipeline.WriteBlankTemplate(template, layout))
	conv := pipeline.NewConverter(workbook.MemoryEngine{}, template, layout, root)
	conv.Now = func() time.Time { return time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC) }
	conv.Extractors[internal.InputPDF] = tableExtractor{{
		{ptr("Date"), ptr("Establishment"), ptr("OR No. / Ref. No."), ptr("Amount"), ptr("Expense Type"), ptr("Notes")},
		{ptr("03/04/2024"), ptr("Shell"), ptr("OR-9"), ptr("500"), ptr("Liquidation-Fuel"), ptr("Site")},
	}}

	svc := NewService(db, cfg, pipeline.NewProcessingService(db, cfg, conv, nil, nil)).
		WithConnector(fakeConnector{messages: []internal.FetchedMailMessage{
			reportMessage("<1>", "SMITH-JOHN DOE (March 15, 2024).pdf"),
			reportMessage("<2>", "scan.pdf"),
		}})

	res, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Fetched: 2, Stored: 2, Processed: 2, Converted: 1}, res)

	first, err := db.MustEmailByProviderMessageID("imap", "<1>")
	require.NoError(t, err)
	assert.Equal(t, "processed", first.Status)
	second, err := db.MustEmailByProviderMessageID("imap", "<2>")
	require.NoError(t, err)
	assert.Equal(t, "skipped", second.Status)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "Reimbursement_JOHN DOE SMITH_03.04-04.24.xlsx"))

	again, err := svc.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CycleResult{Fetched: 2}, again)
}

func TestMakeConnectorRejectsUnknownProvider(t *testing.T) {
	_, err := MakeConnector(context.Background(), config.Config{}, "pop3")
	assert.Error(t, err)
}
