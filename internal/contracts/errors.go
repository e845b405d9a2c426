package contracts

import (
	"fmt"
	"strings"
)

// MissingFieldError is returned when the ledger lacks required columns
type MissingFieldError struct {
	Missing []string
	Found   []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields [%s] (found: [%s])",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// DateParseError is returned when a purchase date cannot be interpreted
type DateParseError struct {
	Row   int // 1-based data row, 0 when unknown
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	msg := fmt.Sprintf("cannot parse %s %q", FieldPurchaseDate, e.Value)
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// InvalidValueError is returned for a blank customer id or a non-numeric/negative total value
type InvalidValueError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	msg := fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

// EmptyDatasetError is returned when no transactions remain to segment
type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string {
	return "empty dataset: quantiles are undefined without transactions"
}

// ErrEmptyDataset is the sentinel instance, usable with errors.Is
var ErrEmptyDataset error = &EmptyDatasetError{}
