package imap

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reimburse/internal/config"
)

func TestNewConnectorRequiresCredentials(t *testing.T) {
	_, err := NewConnector(config.Config{IMAPHost: "mail.example.com", IMAPUser: "finance"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAP_PASSWORD")
}

func TestNewest(t *testing.T) {
	assert.Equal(t, []uint32{4, 5}, newest([]uint32{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, []uint32{1, 2}, newest([]uint32{1, 2}, 5))
	assert.Equal(t, []uint32{1, 2}, newest([]uint32{1, 2}, 0))
}

func TestToFetched(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := &imap.Message{
		Uid: 42,
		Envelope: &imap.Envelope{
			Subject: "Expense report",
			From: []*imap.Address{
				{PersonalName: "Ana Cruz", MailboxName: "ana", HostName: "example.com"},
				{MailboxName: "ops", HostName: "example.com"},
			},
		},
		InternalDate: time.Date(2024, 3, 15, 9, 0, 0, 0, time.FixedZone("PHT", 8*3600)),
	}

	got := toFetched(msg, []byte("raw"), now)
	assert.Equal(t, "imap-42", got.MessageID)
	assert.Equal(t, "Ana Cruz <ana@example.com>, ops@example.com", got.From)
	assert.Equal(t, "2024-03-15T01:00:00Z", got.ReceivedAt)
	assert.Equal(t, "imap", got.Provider)

	bare := toFetched(&imap.Message{Uid: 7}, nil, now)
	assert.Equal(t, "2026-01-01T00:00:00Z", bare.ReceivedAt)
	assert.Empty(t, bare.Subject)
}
