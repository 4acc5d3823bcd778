package api

import (
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"reimburse/internal"
	"reimburse/internal/logger"
	"reimburse/internal/metrics"
	"reimburse/internal/pipeline"
)

const uploadForm = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Expense report to reimbursement form</title></head>
<body>
<h1>Convert an expense report</h1>
<form action="/convert" method="post" enctype="multipart/form-data">
  <input type="file" name="file" accept="application/pdf,.pdf">
  <button type="submit">Convert</button>
</form>
</body>
</html>
`

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Server struct {
	svc       *pipeline.ProcessingService
	uploadDir string
	metrics   *metrics.Recorder
	log       zerolog.Logger
}

func NewServer(svc *pipeline.ProcessingService, uploadDir string, rec *metrics.Recorder, log zerolog.Logger) *Server {
	return &Server{svc: svc, uploadDir: uploadDir, metrics: rec, log: log}
}

func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "reimburse",
		BodyLimit:             32 << 20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/", s.handleIndex)
	app.Post("/convert", s.handleConvert)
	app.Get("/api/health", handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	return app
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(uploadForm)
}

func handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleConvert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("No file uploaded")
	}
	name := filepath.Base(strings.TrimSpace(fh.Filename))
	if name == "" || name == "." || name == "/" {
		return c.Status(fiber.StatusBadRequest).SendString("No file selected")
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid file type. Please upload a PDF file.")
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	dir, err := os.MkdirTemp(s.uploadDir, "upload-")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	log := s.log.With().Str("upload", name).Logger()
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("remove upload")
		}
	}()

	input := filepath.Join(dir, name)
	if err := c.SaveFile(fh, input); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	ctx := logger.WithContext(c.UserContext(), log)
	res, err := s.svc.Run(ctx, pipeline.ConvertRequest{
		InputPath:  input,
		SourceName: name,
		Type:       internal.InputPDF,
	}, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	body, err := os.ReadFile(res.OutputPath)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	// fiber's Attachment query-escapes the name, which turns spaces into '+'.
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set("X-Conversion-Id", res.ConversionID)
	c.Set("X-Unparsed-Amounts", strconv.Itoa(len(res.Unparsed)))
	// Header values stay ASCII; currency symbols like the peso sign are not.
	c.Set("X-Grand-Total", res.GrandTotal.StringFixed(2))
	c.Set("X-Currency", res.CurrencyCode)
	return c.Send(body)
}
