package workbook

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Engine opens workbook sessions. A session holds whatever the engine needs
// while a workbook is being edited and must always be closed.
type Engine interface {
	Name() string
	Open(ctx context.Context, path string) (Session, error)
}

type Session interface {
	File() *excelize.File
	SaveAs(ctx context.Context, path string) error
	Close() error
}

type Options struct {
	SofficePath string
	Timeout     time.Duration
	WorkDir     string
}

func New(name string, opts Options) (Engine, error) {
	switch name {
	case "", "memory":
		return MemoryEngine{}, nil
	case "soffice":
		return &SofficeEngine{Binary: opts.SofficePath, Timeout: opts.Timeout, WorkDir: opts.WorkDir}, nil
	default:
		return nil, fmt.Errorf("unsupported workbook engine: %s", name)
	}
}

type MemoryEngine struct{}

func (MemoryEngine) Name() string { return "memory" }

func (MemoryEngine) Open(ctx context.Context, path string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &memorySession{f: f}, nil
}

type memorySession struct {
	f *excelize.File
}

func (s *memorySession) File() *excelize.File { return s.f }

func (s *memorySession) SaveAs(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.f.SaveAs(path)
}

func (s *memorySession) Close() error {
	return s.f.Close()
}
