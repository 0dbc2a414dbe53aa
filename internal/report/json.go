package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/swingscan/internal/contracts"
	"github.com/wonny/swingscan/pkg/logger"
)

// JSONWriter saves every scan as an indented JSON file under dir
type JSONWriter struct {
	dir    string
	logger *logger.Logger
}

// NewJSONWriter creates a writer; dir is created on first save
func NewJSONWriter(dir string, log *logger.Logger) *JSONWriter {
	return &JSONWriter{dir: dir, logger: log}
}

// Path returns where result is (or would be) written
func (w *JSONWriter) Path(result *contracts.ScanResult) string {
	name := fmt.Sprintf("scan_%s.json", result.Metadata.Timestamp.Format("20060102_150405"))
	return filepath.Join(w.dir, name)
}

// Save implements scanner.Sink
func (w *JSONWriter) Save(_ context.Context, result *contracts.ScanResult) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scan result: %w", err)
	}

	path := w.Path(result)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"path":   path,
		"stocks": len(result.Stocks),
	}).Info("Scan report saved")

	return nil
}
