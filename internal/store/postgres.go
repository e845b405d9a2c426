package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/rfv"
)

// PostgresSource reads the ledger from a PostgreSQL table whose columns carry the required field names
// ⭐ SSOT: PostgreSQL 거래 원장 저장소
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
	ident pgx.Identifier
}

// NewPostgresSource creates a source over table ("name" or "schema.name")
func NewPostgresSource(pool *pgxpool.Pool, table string) (*PostgresSource, error) {
	parts, err := splitTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{pool: pool, table: table, ident: pgx.Identifier(parts)}, nil
}

// Name identifies the source in logs and run records
func (s *PostgresSource) Name() string {
	return "postgres:" + s.table
}

// Transactions reads every row of the table. DiaCompra may be a date,
// timestamp or text column; text dates are parsed like uploaded files.
func (s *PostgresSource) Transactions(ctx context.Context) ([]contracts.Transaction, error) {
	if err := s.checkColumns(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT "%s"::text, "%s", "%s"::text, "%s"::float8
		FROM %s
	`, contracts.FieldCustomerID, contracts.FieldPurchaseDate, contracts.FieldPurchaseCode,
		contracts.FieldTotalValue, s.ident.Sanitize())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var txs []contracts.Transaction
	for rows.Next() {
		var r scannedRow
		if err := rows.Scan(&r.customerID, &r.date, &r.code, &r.value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		tx, err := r.toTransaction(len(txs) + 1)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// checkColumns reads the table's header without fetching rows
func (s *PostgresSource) checkColumns(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", s.ident.Sanitize()))
	if err != nil {
		return fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var columns []string
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, fd.Name)
	}
	return rfv.CheckRequiredFields(columns)
}

// PostgresSink stores finished tables in rfv_runs and rfv_segments
// ⭐ SSOT: 세그먼트 결과 저장소
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates the results sink
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rfv_runs (
	run_id          UUID PRIMARY KEY,
	source          TEXT NOT NULL,
	anchor_date     TIMESTAMP NOT NULL,
	transactions    INTEGER NOT NULL,
	customers       INTEGER NOT NULL,
	boundaries      JSONB NOT NULL,
	unmapped_action TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS rfv_segments (
	run_id          UUID NOT NULL REFERENCES rfv_runs(run_id) ON DELETE CASCADE,
	customer_id     TEXT NOT NULL,
	recency_days    INTEGER NOT NULL,
	frequency       INTEGER NOT NULL,
	value           DOUBLE PRECISION NOT NULL,
	recency_grade   CHAR(1) NOT NULL,
	frequency_grade CHAR(1) NOT NULL,
	value_grade     CHAR(1) NOT NULL,
	score           CHAR(3) NOT NULL,
	action          TEXT NOT NULL,
	mapped          BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, customer_id)
);
`

// EnsureSchema creates the result tables when missing
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// SaveTable writes the run header and every segment row in one transaction
func (s *PostgresSink) SaveTable(ctx context.Context, runID string, table *contracts.SegmentationTable) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rfv_runs (run_id, source, anchor_date, transactions, customers, boundaries, unmapped_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, runID, table.Source, table.AnchorDate, table.Transactions, table.Len(), table.Boundaries, table.UnmappedAction)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO rfv_segments
			(run_id, customer_id, recency_days, frequency, value,
			 recency_grade, frequency_grade, value_grade, score, action, mapped)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, r := range table.Records {
		batch.Queue(query, runID, r.CustomerID, r.RecencyDays, r.Frequency, r.Value,
			string(r.RecencyGrade), string(r.FrequencyGrade), string(r.ValueGrade),
			r.Score, r.Action, r.Mapped)
	}

	br := tx.SendBatch(ctx, batch)
	for range table.Records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert segment: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RunSummary is one row of rfv_runs
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Source       string    `json:"source"`
	AnchorDate   time.Time `json:"anchor_date"`
	Transactions int       `json:"transactions"`
	Customers    int       `json:"customers"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecentRuns lists the latest runs, newest first
func (s *PostgresSink) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id::text, source, anchor_date, transactions, customers, created_at
		FROM rfv_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Source, &r.AnchorDate, &r.Transactions, &r.Customers, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
