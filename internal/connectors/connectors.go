package connectors

import (
	"context"

	"reimburse/internal"
)

// MailConnector pulls raw messages from a mailbox. Implementations return at
// most max messages, newest last.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}
