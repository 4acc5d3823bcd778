package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	pdf "github.com/ledongthuc/pdf"

	"reimburse/internal"
)

// Extractor turns one source document into its raw tables, in page order.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]internal.RawTable, error)
}

type PDFExtractor struct {
	Options Options
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{Options: DefaultOptions()}
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]internal.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	return e.extractFrom(ctx, file, info.Size())
}

// ExtractBytes reads an in-memory PDF, such as a mail attachment.
func (e *PDFExtractor) ExtractBytes(ctx context.Context, content []byte) ([]internal.RawTable, error) {
	return e.extractFrom(ctx, bytes.NewReader(content), int64(len(content)))
}

func (e *PDFExtractor) extractFrom(ctx context.Context, r io.ReaderAt, size int64) ([]internal.RawTable, error) {
	pages, err := readGlyphs(ctx, r, size)
	if err != nil {
		return nil, err
	}
	return BuildTables(pages, e.Options), nil
}

// readGlyphs walks every page's text objects. The pdf library panics on some
// malformed streams, so a panic is reported as an error.
func readGlyphs(ctx context.Context, r io.ReaderAt, size int64) (pages [][]Glyph, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("pdf reader crashed: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	pages = make([][]Glyph, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		glyphs := make([]Glyph, 0, len(content.Text))
		for _, t := range content.Text {
			glyphs = append(glyphs, Glyph{X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		pages = append(pages, glyphs)
	}
	return pages, nil
}
