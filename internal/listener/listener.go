package listener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reimburse/internal/config"
	"reimburse/internal/connectors"
	gmailconnector "reimburse/internal/connectors/gmail"
	imapconnector "reimburse/internal/connectors/imap"
	"reimburse/internal/logger"
	"reimburse/internal/pipeline"
	"reimburse/internal/storage"
)

// Service polls a mailbox and converts report attachments as they arrive.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
	connector connectors.MailConnector
}

func NewService(db *storage.DB, cfg config.Config, processor *pipeline.ProcessingService) *Service {
	return &Service{db: db, cfg: cfg, processor: processor}
}

func (s *Service) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("listener cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Processed int
	Converted int
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.mailConnector(ctx, provider)
	if err != nil {
		return CycleResult{}, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return CycleResult{}, err
	}

	processed, converted, err := s.processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
	res := CycleResult{Fetched: fetchResult.Fetched, Stored: fetchResult.Stored, Processed: processed, Converted: converted}
	if err != nil {
		return res, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("provider", provider).
		Int("fetched", res.Fetched).
		Int("stored", res.Stored).
		Int("processed", res.Processed).
		Int("converted", res.Converted).
		Msg("listener cycle done")
	return res, nil
}

// WithConnector fixes the connector instead of building one from config.
func (s *Service) WithConnector(c connectors.MailConnector) *Service {
	s.connector = c
	return s
}

func (s *Service) mailConnector(ctx context.Context, provider string) (connectors.MailConnector, error) {
	if s.connector != nil {
		return s.connector, nil
	}
	return MakeConnector(ctx, s.cfg, provider)
}

func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
