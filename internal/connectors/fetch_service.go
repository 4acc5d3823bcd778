package connectors

import (
	"context"

	"reimburse/internal/logger"
	"reimburse/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

// FetchAndStore pulls one batch and stores messages not seen before.
// Re-fetching an unchanged message is a no-op.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	log := logger.FromContext(ctx)
	stored := 0
	for _, msg := range messages {
		row, isNew, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{}, err
		}
		if isNew {
			stored++
			log.Debug().Int("emailId", row.ID).Str("subject", row.Subject).Msg("email stored")
		}
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
