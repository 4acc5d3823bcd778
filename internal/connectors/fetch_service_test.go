package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal"
	"reimburse/internal/storage"
)

type fakeConnector struct {
	messages []internal.FetchedMailMessage
}

func (f fakeConnector) FetchInbox(_ context.Context, _ string, max int) ([]internal.FetchedMailMessage, error) {
	if len(f.messages) > max {
		return f.messages[:max], nil
	}
	return f.messages, nil
}

func TestFetchAndStoreDedupes(t *testing.T) {
	root := t.TempDir()
	db, err := storage.Open(filepath.Join(root, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	msgs := []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a>", Subject: "Expense report", ReceivedAt: "2024-03-15T00:00:00Z", Raw: []byte("Subject: a\r\n\r\nbody a")},
		{Provider: "imap", MessageID: "<b>", Subject: "Another", ReceivedAt: "2024-03-16T00:00:00Z", Raw: []byte("Subject: b\r\n\r\nbody b")},
	}
	rawDir := filepath.Join(root, "raw")
	svc := NewFetchService(db, rawDir, fakeConnector{messages: msgs})

	first, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 2}, first)

	again, err := svc.FetchAndStore(context.Background(), "INBOX", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 0}, again)

	entries, err := os.ReadDir(rawDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	row, err := db.MustEmailByProviderMessageID("imap", "<a>")
	require.NoError(t, err)
	raw, err := os.ReadFile(row.RawRef)
	require.NoError(t, err)
	assert.Equal(t, msgs[0].Raw, raw)
	assert.Equal(t, "fetched", row.Status)
}
