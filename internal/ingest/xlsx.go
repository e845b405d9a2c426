package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// ReadXLSX parses the first sheet of a workbook. The first row is the header.
// Cells are read raw so date cells arrive as serial numbers.
func ReadXLSX(r io.Reader) ([]contracts.Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &contracts.MissingFieldError{Missing: contracts.RequiredFields, Found: []string{}}
	}

	idx, err := indexColumns(rows[0])
	if err != nil {
		return nil, err
	}

	return parseRows(idx, rows[1:], true)
}
