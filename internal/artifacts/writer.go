// File: internal/artifacts/writer.go

// Package artifacts persists model-authored test scripts to disk.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Writer drops generated test files into a single output directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter builds a writer rooted at dir. The directory is created on
// first write, not here.
func NewWriter(dir string, logger *zap.Logger) *Writer {
	return &Writer{dir: dir, logger: logger.Named("artifacts")}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// WriteTest stores content under filename inside the output directory and
// returns a confirmation with the absolute path. The filename is a bare
// name: separators and parent references are rejected so the model cannot
// write outside the artifact directory.
func (w *Writer) WriteTest(filename, content string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename must not be empty")
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return "", fmt.Errorf("filename %q must be a bare file name", filename)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	w.logger.Info("Test artifact written",
		zap.String("file", abs), zap.Int("bytes", len(content)))
	return fmt.Sprintf("Test written to %s", abs), nil
}
