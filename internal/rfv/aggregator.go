package rfv

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RennanRnz/rfv-project/internal/contracts"
)

const day = 24 * time.Hour

// CheckRequiredFields verifies that a ledger header carries every required column.
// Extra columns and any column order are accepted.
func CheckRequiredFields(columns []string) error {
	present := make(map[string]bool, len(columns))
	found := make([]string, 0, len(columns))
	for _, c := range columns {
		name := strings.TrimSpace(c)
		present[name] = true
		found = append(found, name)
	}

	var missing []string
	for _, f := range contracts.RequiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &contracts.MissingFieldError{Missing: missing, Found: found}
	}
	return nil
}

// customerAcc accumulates one customer's rows
type customerAcc struct {
	last  time.Time
	count int
	sum   decimal.Decimal
}

// Aggregate reduces transactions into one CustomerMetrics per customer, ordered by customer id.
// It also returns the dataset anchor: the maximum purchase date over all rows.
// ⭐ SSOT: Aggregator
func Aggregate(txs []contracts.Transaction) ([]contracts.CustomerMetrics, time.Time, error) {
	if len(txs) == 0 {
		return nil, time.Time{}, contracts.ErrEmptyDataset
	}

	var anchor time.Time
	accs := make(map[string]*customerAcc)

	for i, tx := range txs {
		row := i + 1
		if err := validateTransaction(row, tx); err != nil {
			return nil, time.Time{}, err
		}

		if tx.PurchaseDate.After(anchor) {
			anchor = tx.PurchaseDate
		}

		acc, ok := accs[tx.CustomerID]
		if !ok {
			acc = &customerAcc{last: tx.PurchaseDate}
			accs[tx.CustomerID] = acc
		}
		if tx.PurchaseDate.After(acc.last) {
			acc.last = tx.PurchaseDate
		}
		acc.count++ // raw rows, duplicate purchase codes included
		acc.sum = acc.sum.Add(decimal.NewFromFloat(tx.TotalValue))
	}

	metrics := make([]contracts.CustomerMetrics, 0, len(accs))
	for id, acc := range accs {
		metrics = append(metrics, contracts.CustomerMetrics{
			CustomerID:  id,
			RecencyDays: wholeDays(anchor.Sub(acc.last)),
			Frequency:   acc.count,
			Value:       acc.sum.InexactFloat64(),
		})
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].CustomerID < metrics[j].CustomerID
	})

	return metrics, anchor, nil
}

func validateTransaction(row int, tx contracts.Transaction) error {
	if strings.TrimSpace(tx.CustomerID) == "" {
		return &contracts.InvalidValueError{
			Row: row, Field: contracts.FieldCustomerID, Value: tx.CustomerID, Reason: "required",
		}
	}
	if tx.PurchaseDate.IsZero() {
		return &contracts.DateParseError{Row: row, Value: ""}
	}
	if math.IsNaN(tx.TotalValue) || math.IsInf(tx.TotalValue, 0) {
		return &contracts.InvalidValueError{
			Row: row, Field: contracts.FieldTotalValue, Value: formatFloat(tx.TotalValue), Reason: "must be a finite number",
		}
	}
	if tx.TotalValue < 0 {
		return &contracts.InvalidValueError{
			Row: row, Field: contracts.FieldTotalValue, Value: formatFloat(tx.TotalValue), Reason: "must be >= 0",
		}
	}
	return nil
}

// wholeDays truncates a non-negative duration to full days
func wholeDays(d time.Duration) int {
	return int(d / day)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
