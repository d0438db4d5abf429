// Package export writes the loaded running log as CSV, PDF and HTML files.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/verte-zerg/runboard/internal/model"
	"github.com/verte-zerg/runboard/internal/stats"
)

// Default file names for each export format.
const (
	CSVFileName  = "runner_data.csv"
	PDFFileName  = "Runner_Report.pdf"
	HTMLFileName = "runner_charts.html"
)

// ErrNoRows is returned when there is nothing to export.
var ErrNoRows = errors.New("no rows to export")

// ToFile writes the output of fn to dir/name through a temp file that is
// renamed into place, so a failed export never leaves a partial file. It
// returns the final path.
func ToFile(dir, name string, fn func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tmpFile, err := os.CreateTemp(dir, "."+name+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := fn(writer); err != nil {
		return "", err
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", name, err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// Write renders the export with the given default file name.
func Write(w io.Writer, name string, report stats.Report, rows []model.RawRow) error {
	switch name {
	case CSVFileName:
		return WriteCSV(w, rows)
	case PDFFileName:
		return WritePDF(w, report, rows)
	case HTMLFileName:
		return WriteHTML(w, report)
	default:
		return fmt.Errorf("unknown export %q", name)
	}
}
