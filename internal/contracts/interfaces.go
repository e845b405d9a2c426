package contracts

import "context"

// TransactionSource supplies a fully materialized ledger
// ⭐ SSOT: Transaction Store 인터페이스
type TransactionSource interface {
	// Name identifies the source in logs
	Name() string

	// Transactions reads every row. Missing columns must surface as *MissingFieldError.
	Transactions(ctx context.Context) ([]Transaction, error)
}

// SegmentationSink persists a finished table
type SegmentationSink interface {
	SaveTable(ctx context.Context, runID string, table *SegmentationTable) error
}
