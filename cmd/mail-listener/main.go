package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reimburse/internal/archive"
	"reimburse/internal/config"
	"reimburse/internal/listener"
	"reimburse/internal/logger"
	"reimburse/internal/pipeline"
	"reimburse/internal/storage"
	"reimburse/internal/workbook"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Validate())

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	engine, err := workbook.New(cfg.WorkbookEngine, workbook.Options{
		SofficePath: cfg.SofficePath,
		Timeout:     time.Duration(cfg.SofficeTimeoutSec) * time.Second,
		WorkDir:     cfg.WorkDir,
	})
	must(err)
	conv := pipeline.NewConverter(engine, cfg.TemplatePath, cfg.Layout(), cfg.WorkDir)

	var up archive.Uploader
	if cfg.ArchiveBucket != "" {
		up = archive.NewGCSUploader(cfg.ArchiveBucket, cfg.ArchivePrefix)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	svc := listener.NewService(db, cfg, pipeline.NewProcessingService(db, cfg, conv, nil, up))
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("provider", cfg.MailListenerProvider).Int("intervalSec", cfg.MailListenerIntervalSec).Msg("mail listener started")
	must(svc.Run(logger.WithContext(ctx, log)))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
