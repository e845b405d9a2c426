package commands

import (
	"fmt"

	"github.com/RennanRnz/rfv-project/internal/store"
	"github.com/RennanRnz/rfv-project/pkg/config"
	"github.com/RennanRnz/rfv-project/pkg/database"
	"github.com/RennanRnz/rfv-project/pkg/logger"
)

// sourceName is the cache name of the configured ledger, equal to the source's Name()
func sourceName(cfg *config.Config) string {
	return cfg.RFV.Source + ":" + cfg.RFV.SourceTable
}

// openMySQLSource connects the MySQL/MariaDB ledger. The returned func closes the connection.
func openMySQLSource(cfg *config.Config, log *logger.Logger) (*store.MySQLSource, func(), error) {
	db, err := database.OpenMySQL(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mysql: %w", err)
	}

	src, err := store.NewMySQLSource(db.DB, cfg.RFV.SourceTable)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	log.WithField("table", cfg.RFV.SourceTable).Info("Connected to MySQL ledger")
	return src, func() { db.Close() }, nil
}
