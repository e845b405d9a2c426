package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// Format 업로드 파일 형식
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Supported reports whether name has an extension Read understands
func Supported(name string) bool {
	_, err := DetectFormat(name)
	return err == nil
}

// DetectFormat picks the reader from the file extension
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", filepath.Ext(name))
	}
}

// Read parses a ledger file into transactions, choosing the format by the name's extension.
// The header must carry every required column; extra columns are ignored.
func Read(name string, r io.Reader) ([]contracts.Transaction, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// FileSource is a TransactionSource backed by a ledger file on disk
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name returns the file's base name
func (s *FileSource) Name() string {
	return filepath.Base(s.Path)
}

// Transactions reads the whole file
func (s *FileSource) Transactions(ctx context.Context) ([]contracts.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	return Read(s.Path, f)
}
