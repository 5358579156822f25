package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sflens/internal/domain"
	"github.com/MrSnakeDoc/sflens/internal/logger"
)

// Exporter writes export files into one directory.
type Exporter struct {
	dir    string
	now    func() time.Time
	logger logger.Logger
}

// NewExporter writes into dir, created on first use.
func NewExporter(dir string, log logger.Logger) *Exporter {
	return &Exporter{dir: dir, now: time.Now, logger: log}
}

// SetClock overrides the clock used in generated file names.
func (e *Exporter) SetClock(now func() time.Time) { e.now = now }

// Dir returns the export directory.
func (e *Exporter) Dir() string { return e.dir }

// Result describes a written export.
type Result struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
	Count  int    `json:"count"`
	Bytes  int    `json:"bytes"`
}

// ExportScratchOrgs renders orgs and writes them under the default file name.
func (e *Exporter) ExportScratchOrgs(devHubUsername string, orgs []domain.ScratchOrgRecord, f Format) (Result, error) {
	content, err := Render(orgs, f)
	if err != nil {
		return Result{}, err
	}
	path, err := e.Write(FileName(devHubUsername, f, e.now()), content)
	if err != nil {
		return Result{}, err
	}
	return Result{Path: path, Format: f, Count: len(orgs), Bytes: len(content)}, nil
}

// Write stores content as fileName inside the export directory. Any
// directory part of fileName is dropped and the name is sanitized, so a
// caller cannot write outside the directory.
func (e *Exporter) Write(fileName string, content []byte) (string, error) {
	name := sanitizeFileName(fileName)
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	e.logger.Info("export written",
		logger.String("path", path),
		logger.Int("bytes", len(content)))
	return path, nil
}

func sanitizeFileName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext != "" {
		ext = "." + SafeFileNamePart(strings.TrimPrefix(ext, "."))
	}
	return SafeFileNamePart(stem) + ext
}
