package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
)

// Writer persists the simulation artifact as an indented JSON file.
// It implements pipeline.ReportLoader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a file sink for the given output path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Path returns the artifact destination.
func (w *Writer) Path() string { return w.path }

// LoadReport writes the report atomically. Failures are returned as
// *domain.SerializationError.
func (w *Writer) LoadReport(_ context.Context, report domain.Report) error {
	if err := WriteJSON(w.path, report); err != nil {
		return err
	}
	w.logger.Info("wrote simulation artifact",
		"path", w.path,
		"run_id", report.Metadata.RunID,
		"events", report.Metadata.TotalEvents,
	)
	return nil
}

// WriteJSON encodes v with two-space indentation and a trailing newline. The
// data goes to a temp file in the destination directory which is then renamed
// over path, so readers never observe a partial document.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &domain.SerializationError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &domain.SerializationError{Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &domain.SerializationError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &domain.SerializationError{Path: path, Err: err}
	}
	committed = true
	return nil
}
