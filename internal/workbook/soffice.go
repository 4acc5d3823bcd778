package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

// SofficeEngine edits with excelize and then lets a headless LibreOffice
// re-save the workbook, so formulas and merged regions below the edited
// block are recalculated by a full spreadsheet engine.
type SofficeEngine struct {
	Binary  string
	Timeout time.Duration
	WorkDir string
}

func (e *SofficeEngine) Name() string { return "soffice" }

func (e *SofficeEngine) Open(ctx context.Context, path string) (Session, error) {
	binary := e.Binary
	if binary == "" {
		binary = "soffice"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("soffice not available: %w", err)
	}

	// Each session gets its own profile; LibreOffice locks the profile
	// directory for the lifetime of the process.
	profile, err := os.MkdirTemp(e.WorkDir, "soffice-profile-")
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		_ = os.RemoveAll(profile)
		return nil, err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &sofficeSession{f: f, binary: resolved, profile: profile, timeout: timeout}, nil
}

type sofficeSession struct {
	f       *excelize.File
	binary  string
	profile string
	timeout time.Duration

	mu  sync.Mutex
	cmd *exec.Cmd
}

func (s *sofficeSession) File() *excelize.File { return s.f }

func (s *sofficeSession) SaveAs(ctx context.Context, path string) error {
	staged := filepath.Join(s.profile, "edited.xlsx")
	if err := s.f.SaveAs(staged); err != nil {
		return err
	}

	outDir := filepath.Join(s.profile, "out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary,
		"-env:UserInstallation=file://"+filepath.ToSlash(s.profile),
		"--headless", "--norestore", "--calc",
		"--convert-to", "xlsx",
		"--outdir", outDir,
		staged,
	)
	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	out, err := cmd.CombinedOutput()
	s.mu.Lock()
	s.cmd = nil
	s.mu.Unlock()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("soffice timed out after %s", s.timeout)
		}
		return fmt.Errorf("soffice convert: %w: %s", err, out)
	}

	converted := filepath.Join(outDir, "edited.xlsx")
	if _, err := os.Stat(converted); err != nil {
		return fmt.Errorf("soffice produced no output: %s", out)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return moveFile(converted, path)
}

// Close kills a conversion still running and removes the profile.
func (s *sofficeSession) Close() error {
	s.mu.Lock()
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.mu.Unlock()

	closeErr := s.f.Close()
	if err := os.RemoveAll(s.profile); err != nil && closeErr == nil {
		closeErr = err
	}
	return closeErr
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	blob, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, blob, 0o644); err != nil {
		return err
	}
	return os.Remove(src)
}
