package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"reimburse/internal"
	"reimburse/internal/extract"
	"reimburse/internal/logger"
	"reimburse/internal/workbook"
)

// Converter runs one report through extraction, normalization, injection and
// layout. It holds no per-conversion state and may be shared.
type Converter struct {
	Extractors   map[internal.InputType]extract.Extractor
	Engine       workbook.Engine
	TemplatePath string
	Layout       internal.TemplateLayout
	WorkDir      string
	Now          func() time.Time
}

func NewConverter(engine workbook.Engine, templatePath string, layout internal.TemplateLayout, workDir string) *Converter {
	return &Converter{
		Extractors: map[internal.InputType]extract.Extractor{
			internal.InputPDF:  extract.NewPDFExtractor(),
			internal.InputXLSX: extract.XLSXExtractor{},
		},
		Engine:       engine,
		TemplatePath: templatePath,
		Layout:       layout,
		WorkDir:      workDir,
		Now:          time.Now,
	}
}

type ConvertRequest struct {
	InputPath string
	// SourceName is the report's original file name; it carries the payer.
	// Defaults to the base name of InputPath.
	SourceName string
	Type       internal.InputType
	OutputDir  string
}

type ConvertResult struct {
	OutputPath string
	FileName   string
	Payer      internal.Payer
	Records    int
	Unparsed   []internal.UnparsedAmount
	Groups     []internal.DateGroup
	Bounds     internal.DateBounds
	GrandTotal decimal.Decimal
}

func (c *Converter) Convert(ctx context.Context, req ConvertRequest) (ConvertResult, error) {
	log := logger.FromContext(ctx)
	source := req.SourceName
	if source == "" {
		source = filepath.Base(req.InputPath)
	}
	inputType := req.Type
	if inputType == "" {
		inputType = DetectInputType(req.InputPath)
	}

	payer, err := ParsePayer(source)
	if err != nil {
		return ConvertResult{}, err
	}

	extractor, ok := c.Extractors[inputType]
	if !ok {
		return ConvertResult{}, fmt.Errorf("unsupported input type: %s", inputType)
	}
	tables, err := extractor.Extract(ctx, req.InputPath)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("extract tables: %w", err)
	}
	log.Debug().Int("tables", len(tables)).Str("type", string(inputType)).Msg("tables extracted")

	normalized, err := NormalizeTables(tables)
	if err != nil {
		return ConvertResult{}, err
	}
	for _, u := range normalized.Unparsed {
		log.Warn().Int("row", u.Row).Str("date", u.Date).Str("raw", u.Raw).Msg("amount not parsed")
	}

	workDir, err := os.MkdirTemp(c.WorkDir, "reimburse-")
	if err != nil {
		return ConvertResult{}, err
	}
	defer removeTemp(log, workDir)

	staging := filepath.Join(workDir, "staging.xlsx")
	if err := ExportRecordsToXLSX(normalized.Records, staging); err != nil {
		return ConvertResult{}, fmt.Errorf("write staging workbook: %w", err)
	}
	records, err := LoadStagingRecords(staging)
	if err != nil {
		return ConvertResult{}, err
	}

	intermediate := filepath.Join(workDir, "injected.xlsx")
	block, err := Inject(ctx, c.Engine, c.TemplatePath, records, c.Layout, intermediate)
	if err != nil {
		return ConvertResult{}, err
	}

	f, err := excelize.OpenFile(intermediate)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("reopen intermediate workbook: %w", err)
	}
	defer f.Close()

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	finished, err := Finish(f, records, block, c.Layout, payer, now())
	if err != nil {
		return ConvertResult{}, err
	}

	name, err := GenerateOutputFilename(source, finished.Bounds)
	if err != nil {
		return ConvertResult{}, err
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return ConvertResult{}, err
	}
	outPath := filepath.Join(req.OutputDir, name)
	if err := f.SaveAs(outPath); err != nil {
		return ConvertResult{}, fmt.Errorf("save workbook: %w", err)
	}

	log.Info().
		Str("output", outPath).
		Int("records", len(records)).
		Int("dateGroups", len(finished.Groups)).
		Int("unparsedAmounts", len(normalized.Unparsed)).
		Msg("conversion finished")

	return ConvertResult{
		OutputPath: outPath,
		FileName:   name,
		Payer:      payer,
		Records:    len(records),
		Unparsed:   normalized.Unparsed,
		Groups:     finished.Groups,
		Bounds:     finished.Bounds,
		GrandTotal: finished.GrandTotal,
	}, nil
}

func removeTemp(log zerolog.Logger, path string) {
	if err := os.RemoveAll(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("remove temp artifacts")
	}
}
