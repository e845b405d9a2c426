package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

// WriteCSV writes a UTF-8 CSV with a header row and one row per customer
func WriteCSV(w io.Writer, table *contracts.SegmentationTable) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(contracts.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range table.Records {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.CustomerID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
