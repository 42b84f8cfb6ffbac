package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// utcSession pins the session time zone so DEFAULT CURRENT_TIMESTAMP
// columns are written in UTC whatever the server's zone is.
const utcSession = "'+00:00'"

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	return OpenDSN(dsnFor(user, pass, host, port, name))
}

func dsnFor(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4", auth, host, port, name)
}

// normalizeDSN forces the options the repositories depend on:
// parseTime and loc=UTC so DATETIME scans into UTC time.Time, a UTC
// session so server-side timestamps agree with it, and clientFoundRows
// so RowsAffected counts matched rows; the seat and status updates read
// it as "the condition held".
func normalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["time_zone"] = utcSession
	return cfg.FormatDSN(), nil
}

// OpenDSN opens a pool for a complete DSN.  Integration tests use it
// with TEST_MYSQL_DSN.
func OpenDSN(dsn string) (*sql.DB, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
