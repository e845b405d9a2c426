package store

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/ingest"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// splitTable validates "table" or "schema.table"
func splitTable(name string) ([]string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name %q", name)
	}
	for _, p := range parts {
		if !identPattern.MatchString(p) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return parts, nil
}

// scannedRow holds one nullable ledger row as read from a database
type scannedRow struct {
	customerID *string
	date       any // time.Time from date columns, string or []byte from text columns
	code       *string
	value      *float64
}

// toTransaction validates a scanned row. row is 1-based.
func (s scannedRow) toTransaction(row int) (contracts.Transaction, error) {
	if s.customerID == nil || strings.TrimSpace(*s.customerID) == "" {
		return contracts.Transaction{}, &contracts.InvalidValueError{
			Row: row, Field: contracts.FieldCustomerID, Value: deref(s.customerID), Reason: "required",
		}
	}
	date, err := purchaseDate(s.date)
	if err != nil {
		err.Row = row
		return contracts.Transaction{}, err
	}
	if s.value == nil {
		return contracts.Transaction{}, &contracts.InvalidValueError{
			Row: row, Field: contracts.FieldTotalValue, Value: "NULL", Reason: "value required",
		}
	}

	return contracts.Transaction{
		CustomerID:   strings.TrimSpace(*s.customerID),
		PurchaseDate: date,
		PurchaseCode: deref(s.code),
		TotalValue:   *s.value,
	}, nil
}

// purchaseDate converts a scanned DiaCompra value. Text columns go through
// the same parser as uploaded files.
func purchaseDate(v any) (time.Time, *contracts.DateParseError) {
	var text string
	switch d := v.(type) {
	case nil:
		return time.Time{}, &contracts.DateParseError{Value: "NULL"}
	case time.Time:
		if d.IsZero() {
			return time.Time{}, &contracts.DateParseError{Value: "NULL"}
		}
		return d.UTC(), nil
	case string:
		text = d
	case []byte:
		text = string(d)
	default:
		return time.Time{}, &contracts.DateParseError{
			Value: fmt.Sprint(v), Err: fmt.Errorf("unsupported column type %T", v),
		}
	}

	t, err := ingest.ParseDate(text, false)
	if err != nil {
		return time.Time{}, &contracts.DateParseError{Value: text, Err: err}
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
