package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/RennanRnz/rfv-project/internal/contracts"
	"github.com/RennanRnz/rfv-project/internal/rfv"
)

// MySQLSource reads the ledger from a MySQL/MariaDB table
type MySQLSource struct {
	db    *sql.DB
	table string
	ident string
}

// NewMySQLSource creates a source over table ("name" or "schema.name")
func NewMySQLSource(db *sql.DB, table string) (*MySQLSource, error) {
	parts, err := splitTable(table)
	if err != nil {
		return nil, err
	}
	return &MySQLSource{db: db, table: table, ident: "`" + strings.Join(parts, "`.`") + "`"}, nil
}

// Name identifies the source in logs and run records
func (s *MySQLSource) Name() string {
	return "mysql:" + s.table
}

// Transactions reads every row of the table. DATETIME columns need
// parseTime=true in the DSN; VARCHAR dates are parsed like uploaded files.
func (s *MySQLSource) Transactions(ctx context.Context) ([]contracts.Transaction, error) {
	if err := s.checkColumns(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT `%s`, `%s`, `%s`, `%s` FROM %s",
		contracts.FieldCustomerID, contracts.FieldPurchaseDate, contracts.FieldPurchaseCode,
		contracts.FieldTotalValue, s.ident)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var txs []contracts.Transaction
	for rows.Next() {
		var (
			id, code sql.NullString
			value    sql.NullFloat64
			r        scannedRow
		)
		if err := rows.Scan(&id, &r.date, &code, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}

		if id.Valid {
			r.customerID = &id.String
		}
		if code.Valid {
			r.code = &code.String
		}
		if value.Valid {
			r.value = &value.Float64
		}

		tx, err := r.toTransaction(len(txs) + 1)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *MySQLSource) checkColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", s.ident))
	if err != nil {
		return fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	return rfv.CheckRequiredFields(columns)
}
