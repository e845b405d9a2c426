package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/RennanRnz/rfv-project/pkg/config"
)

// MySQL wraps a database/sql pool on the MySQL/MariaDB driver
type MySQL struct {
	DB  *sql.DB
	DSN string // driver-native DSN actually used
}

// OpenMySQL opens and pings the MySQL/MariaDB transaction store.
// mysql:// and mariadb:// URLs are converted to the driver's DSN format.
func OpenMySQL(cfg *config.Config) (*MySQL, error) {
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}

	dsn, err := toMySQLDSN(cfg.MySQL.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	maxConns := cfg.MySQL.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	return &MySQL{DB: db, DSN: dsn}, nil
}

// Close closes the pool
func (m *MySQL) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Ping checks if the store is reachable
func (m *MySQL) Ping(ctx context.Context) error {
	return m.DB.PingContext(ctx)
}

// toMySQLDSN converts mariadb:// or mysql:// URLs; anything else passes through unchanged.
// Times are parsed in UTC so purchase dates match the other stores.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, host, db), nil
}
