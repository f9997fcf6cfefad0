package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Registered SQLite driver names.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// Open opens the SQLite file at path with foreign keys and a busy timeout
// enabled on every pooled connection.
func Open(driver, path string) (*sql.DB, error) {
	var dsn string
	switch driver {
	case DriverCGO:
		dsn = "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	case DriverPure:
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	if strings.Contains(path, "?") {
		return nil, fmt.Errorf("sqlite path must not carry query parameters: %q", path)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}
