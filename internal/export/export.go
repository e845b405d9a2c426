package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// Format 다운로드 형식
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// BaseName is the download name without extension
const BaseName = "RFV_resultado"

// ParseFormat accepts csv, xlsx or json (case-insensitive). Empty means json.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected csv, xlsx or json)", s)
	}
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// FileName returns the download file name, e.g. RFV_resultado.xlsx
func (f Format) FileName() string {
	return BaseName + "." + string(f)
}

// Write serializes the table in format f
func Write(w io.Writer, f Format, runID string, table *contracts.SegmentationTable) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatXLSX:
		return WriteXLSX(w, table)
	case FormatJSON:
		return WriteJSON(w, NewDocument(runID, table))
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// ToFile writes the table to path, creating parent directories
func ToFile(path string, f Format, runID string, table *contracts.SegmentationTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, f, runID, table); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
