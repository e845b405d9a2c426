package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// SheetName is the only sheet of the exported workbook
const SheetName = "RFV"

// WriteXLSX writes a workbook with a single sheet named RFV.
// Numeric columns are stored as numbers.
func WriteXLSX(w io.Writer, table *contracts.SegmentationTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(contracts.Columns))
	for i, c := range contracts.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range table.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.CustomerID,
			r.RecencyDays,
			r.Frequency,
			r.Value,
			string(r.RecencyGrade),
			string(r.FrequencyGrade),
			string(r.ValueGrade),
			r.Score,
			r.Action,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %s: %w", r.CustomerID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return f.Write(w)
}
