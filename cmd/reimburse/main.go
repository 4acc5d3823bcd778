package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"reimburse/internal"
	"reimburse/internal/api"
	"reimburse/internal/archive"
	"reimburse/internal/config"
	"reimburse/internal/connectors"
	"reimburse/internal/listener"
	"reimburse/internal/logger"
	"reimburse/internal/metrics"
	"reimburse/internal/pipeline"
	"reimburse/internal/storage"
	"reimburse/internal/workbook"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Validate())

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	cmd := os.Args[1]
	if cmd == "template:init" {
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", cfg.TemplatePath, "template xlsx path")
		_ = fs.Parse(os.Args[2:])
		must(pipeline.WriteBlankTemplate(*out, cfg.Layout()))
		fmt.Printf("template written to %s\n", *out)
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	switch cmd {
	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "expense report pdf or pre-extracted tables xlsx")
		inType := fs.String("type", "", "pdf|xlsx (default: from extension)")
		name := fs.String("name", "", "source report name when it differs from the input file name")
		outDir := fs.String("outdir", cfg.OutputDir, "output directory")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		typ, err := pipeline.ParseInputType(*inType)
		must(err)
		svc := newProcessingService(db, cfg, nil)
		res, err := svc.Run(ctx, pipeline.ConvertRequest{InputPath: *input, SourceName: *name, Type: typ, OutputDir: *outDir}, nil)
		must(err)
		printResult(res)
	case "batch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", cfg.InboxDir, "directory to search for a report pdf")
		outDir := fs.String("outdir", cfg.OutputDir, "output directory")
		_ = fs.Parse(os.Args[2:])
		path, ok, err := pipeline.FindPDF(*dir)
		must(err)
		if !ok {
			fmt.Printf("no expense report pdf found in %s\n", *dir)
			return
		}
		svc := newProcessingService(db, cfg, nil)
		res, err := svc.Run(ctx, pipeline.ConvertRequest{InputPath: path, OutputDir: *outDir}, nil)
		must(err)
		printResult(res)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec := metrics.NewRecorder(reg)
		app := api.NewServer(newProcessingService(db, cfg, rec), cfg.UploadDir, rec, log).App()
		go func() {
			<-ctx.Done()
			_ = app.ShutdownWithTimeout(10 * time.Second)
		}()
		log.Info().Str("addr", *addr).Msg("http server listening")
		must(app.Listen(*addr))
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := listener.MakeConnector(ctx, cfg, strings.ToLower(strings.TrimSpace(*provider)))
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "", "gmail|imap (default: any)")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := newProcessingService(db, cfg, nil)
		if strings.TrimSpace(*messageID) != "" {
			if *provider == "" {
				must(fmt.Errorf("--provider is required with --messageId"))
			}
			res, err := processor.ProcessByProviderMessageID(ctx, *provider, *messageID)
			must(err)
			fmt.Printf("processed email id=%d status=%s converted=%d failed=%d\n", res.EmailID, res.Status, res.Converted, res.Failed)
			for _, out := range res.Outputs {
				fmt.Println(out)
			}
			return
		}
		processedEmails, converted, err := processor.ProcessPending(ctx, *batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d converted=%d\n", processedEmails, converted)
	case "mail:listen":
		s := listener.NewService(db, cfg, newProcessingService(db, cfg, nil))
		must(s.Run(ctx))
	case "history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "number of conversions")
		csvPath := fs.String("csv", "", "write the listing to a csv file")
		_ = fs.Parse(os.Args[2:])
		rows, err := db.ListConversions(*limit)
		must(err)
		if *csvPath != "" {
			f, err := os.Create(*csvPath)
			must(err)
			must(storage.WriteConversionsCSV(f, rows))
			must(f.Close())
			fmt.Printf("exported %d conversions to %s\n", len(rows), *csvPath)
			return
		}
		printHistory(os.Stdout, rows)
	default:
		usage()
		os.Exit(1)
	}
}

func newProcessingService(db *storage.DB, cfg config.Config, rec *metrics.Recorder) *pipeline.ProcessingService {
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
	return pipeline.NewProcessingService(db, cfg, conv, rec, up)
}

func printResult(res pipeline.RunResult) {
	fmt.Printf("converted %d records into %s (grand total %s)\n", res.Records, res.OutputPath, res.GrandTotalText)
	for _, u := range res.Unparsed {
		fmt.Printf("  warning: row %d (%s) amount %q not parsed\n", u.Row, u.Date, u.Raw)
	}
	if res.ArchiveURI != "" {
		fmt.Printf("archived to %s\n", res.ArchiveURI)
	}
}

func printHistory(w io.Writer, rows []internal.ConversionRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tPAYER\tRECORDS\tTOTAL\tSOURCE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.StartedAt, r.Status, r.Payer, r.Records, r.GrandTotal, r.SourceName)
	}
	_ = tw.Flush()
}

func usage() {
	fmt.Println("usage: reimburse <command>")
	fmt.Println("commands:")
	fmt.Println("  convert --input=report.pdf [--type=pdf|xlsx] [--name=...] [--outdir=./outputs]")
	fmt.Println("  batch [--dir=.] [--outdir=./outputs]")
	fmt.Println("  serve [--addr=:8000]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process [--provider=gmail|imap] [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  history [--limit=20] [--csv=./history.csv]")
	fmt.Println("  template:init [--out=./Reimbursement_Final_File_2.xlsx]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
