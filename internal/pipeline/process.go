package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"reimburse/internal"
	"reimburse/internal/archive"
	"reimburse/internal/config"
	"reimburse/internal/logger"
	"reimburse/internal/metrics"
	"reimburse/internal/storage"
)

// ProcessingService records conversions and drives them from stored mail.
// db, metrics and archive are optional.
type ProcessingService struct {
	db      *storage.DB
	cfg     config.Config
	conv    *Converter
	metrics *metrics.Recorder
	archive archive.Uploader
	now     func() time.Time
}

func NewProcessingService(db *storage.DB, cfg config.Config, conv *Converter, rec *metrics.Recorder, up archive.Uploader) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, conv: conv, metrics: rec, archive: up, now: time.Now}
}

type RunResult struct {
	ConvertResult
	ConversionID string
	// GrandTotalText is the grand total in the configured currency, e.g. "$1,019.50".
	GrandTotalText string
	CurrencyCode   string
	ArchiveURI     string
}

// Run converts one report and records the attempt.
func (s *ProcessingService) Run(ctx context.Context, req ConvertRequest, emailID *int) (RunResult, error) {
	if req.OutputDir == "" {
		req.OutputDir = s.cfg.OutputDir
	}
	source := req.SourceName
	if source == "" {
		source = filepath.Base(req.InputPath)
	}

	id := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("conversionId", id).Str("source", source).Logger()
	ctx = logger.WithContext(ctx, log)

	start := s.now()
	if s.db != nil {
		if err := s.db.InsertConversion(id, emailID, source, start); err != nil {
			return RunResult{}, err
		}
	}

	res, err := s.conv.Convert(ctx, req)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.metrics.ObserveConversion(metrics.OutcomeFailed, elapsed, 0)
		s.finish(log, id, storage.ConversionOutcome{Status: internal.ConversionFailed, Error: err.Error()})
		log.Error().Err(err).Msg("conversion failed")
		return RunResult{ConversionID: id}, err
	}

	out := RunResult{
		ConvertResult:  res,
		ConversionID:   id,
		GrandTotalText: FormatTotal(res.GrandTotal, s.cfg.CurrencyCode),
		CurrencyCode:   s.cfg.CurrencyCode,
	}

	if s.archive != nil {
		uri, err := s.archive.Upload(ctx, res.OutputPath, start)
		if err != nil {
			log.Warn().Err(err).Msg("archive upload failed")
		} else {
			out.ArchiveURI = uri
			log.Info().Str("uri", uri).Msg("workbook archived")
		}
	}

	s.metrics.ObserveConversion(metrics.OutcomeSucceeded, elapsed, res.Records)
	s.finish(log, id, storage.ConversionOutcome{
		Status:          internal.ConversionSucceeded,
		OutputPath:      res.OutputPath,
		Payer:           res.Payer.FullName(),
		Records:         res.Records,
		UnparsedAmounts: len(res.Unparsed),
		GrandTotal:      out.GrandTotalText,
	})
	return out, nil
}

func (s *ProcessingService) finish(log zerolog.Logger, id string, outcome storage.ConversionOutcome) {
	if s.db == nil {
		return
	}
	outcome.FinishedAt = s.now()
	if err := s.db.FinishConversion(id, outcome); err != nil {
		log.Warn().Err(err).Msg("record conversion outcome")
	}
}

// FormatTotal renders an amount in the given ISO currency. Unknown codes fall
// back to two decimals.
func FormatTotal(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

type ProcessResult struct {
	EmailID   int
	Status    string
	Converted int
	Failed    int
	Outputs   []string
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", provider, limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	converted := 0
	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return processedEmails, converted, err
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return processedEmails, converted, err
		}
		processedEmails++
		converted += res.Converted
	}
	return processedEmails, converted, nil
}

// ProcessEmail converts every report attachment of a stored message, one at
// a time. A message with no convertible attachment is skipped; it is marked
// failed only when every attachment failed. Conversion errors are recorded
// per conversion, not returned.
func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	log := logger.FromContext(ctx).With().Int("emailId", email.ID).Str("provider", email.Provider).Logger()
	ctx = logger.WithContext(ctx, log)

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}
	msg, err := ReadExpenseEmail(raw)
	if err != nil {
		return ProcessResult{}, err
	}

	out := ProcessResult{EmailID: email.ID}
	detect := DetectExpenseReport(firstNonEmpty(msg.Subject, email.Subject), msg.Text, msg.AttachmentNames())
	reports := msg.ReportAttachments()
	if !detect.IsReport || len(reports) == 0 {
		log.Info().Float64("score", detect.Score).Str("reason", detect.Reason).Msg("email skipped")
		out.Status = "skipped"
		return out, s.db.UpdateEmailStatus(email.ID, out.Status)
	}

	dir := filepath.Join(s.cfg.UploadDir, "email-"+strconv.Itoa(email.ID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ProcessResult{}, err
	}
	defer removeTemp(log, dir)

	emailID := email.ID
	for _, att := range reports {
		path := filepath.Join(dir, filepath.Base(att.FileName))
		if err := os.WriteFile(path, att.Content, 0o644); err != nil {
			return ProcessResult{}, err
		}
		res, err := s.Run(ctx, ConvertRequest{
			InputPath:  path,
			SourceName: att.FileName,
			Type:       internal.InputPDF,
			OutputDir:  s.cfg.OutputDir,
		}, &emailID)
		if err != nil {
			out.Failed++
			continue
		}
		out.Converted++
		out.Outputs = append(out.Outputs, res.OutputPath)
	}

	out.Status = "processed"
	if out.Converted == 0 {
		out.Status = "failed"
	}
	if err := s.db.UpdateEmailStatus(email.ID, out.Status); err != nil {
		return ProcessResult{}, err
	}
	log.Info().Int("converted", out.Converted).Int("failed", out.Failed).Str("status", out.Status).Msg("email processed")
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
