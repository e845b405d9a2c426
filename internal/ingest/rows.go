package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/rfv"
)

// Accepted text layouts for DiaCompra, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// columnIndex maps required fields to header positions
type columnIndex struct {
	customerID   int
	purchaseDate int
	purchaseCode int
	totalValue   int
}

func indexColumns(header []string) (columnIndex, error) {
	if err := rfv.CheckRequiredFields(header); err != nil {
		return columnIndex{}, err
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	return columnIndex{
		customerID:   pos[contracts.FieldCustomerID],
		purchaseDate: pos[contracts.FieldPurchaseDate],
		purchaseCode: pos[contracts.FieldPurchaseCode],
		totalValue:   pos[contracts.FieldTotalValue],
	}, nil
}

// parseRows converts data rows (header excluded) into transactions.
// Rows of empty cells are skipped but keep their row number.
func parseRows(idx columnIndex, rows [][]string, serialDates bool) ([]contracts.Transaction, error) {
	txs := make([]contracts.Transaction, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		if blankRow(row) {
			continue
		}

		id := strings.TrimSpace(cell(row, idx.customerID))
		if id == "" {
			return nil, &contracts.InvalidValueError{
				Row: rowNum, Field: contracts.FieldCustomerID, Value: cell(row, idx.customerID), Reason: "required",
			}
		}

		rawDate := cell(row, idx.purchaseDate)
		date, err := ParseDate(rawDate, serialDates)
		if err != nil {
			return nil, &contracts.DateParseError{Row: rowNum, Value: rawDate, Err: err}
		}

		rawValue := cell(row, idx.totalValue)
		value, err := ParseValue(rawValue)
		if err != nil {
			return nil, &contracts.InvalidValueError{
				Row: rowNum, Field: contracts.FieldTotalValue, Value: rawValue, Reason: err.Error(),
			}
		}

		txs = append(txs, contracts.Transaction{
			CustomerID:   id,
			PurchaseDate: date,
			PurchaseCode: strings.TrimSpace(cell(row, idx.purchaseCode)),
			TotalValue:   value,
		})
	}

	return txs, nil
}

// ParseDate interprets a DiaCompra cell. Date-times keep their time of day.
// With serial set, a plain number is read as a spreadsheet serial date.
func ParseDate(s string, serial bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	if serial {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			t, err := excelize.ExcelDateToTime(n, false)
			if err != nil {
				return time.Time{}, err
			}
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// ParseValue parses a ValorTotal cell. A decimal comma is accepted when no dot is present.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value required")
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("must be a finite number")
	}
	if v < 0 {
		return 0, fmt.Errorf("must be >= 0")
	}
	return v, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
