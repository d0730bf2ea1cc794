package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connection manages the installment history database.
type Connection struct {
	db     *sql.DB
	dbPath string
	driver string
}

// DriverFor returns the driver for a database location: postgres:// and
// postgresql:// URLs select PostgreSQL, anything else is a SQLite file path.
func DriverFor(dbPath string) string {
	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open opens the history database and applies the schema.
// A SQLite file and its parent directory are created as needed, with WAL mode
// and foreign keys enabled.
func Open(dbPath string) (*Connection, error) {
	driver := DriverFor(dbPath)

	connStr := dbPath
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		connStr = fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dbPath)
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn := &Connection{db: db, dbPath: dbPath, driver: driver}
	if err := InitializeSchema(conn); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return conn, nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file path or URL.
func (c *Connection) Path() string {
	return c.dbPath
}

// Driver returns DriverSQLite or DriverPostgres.
func (c *Connection) Driver() string {
	return c.driver
}

// Query executes a query that returns rows.
func (c *Connection) Query(query string, args ...any) (*sql.Rows, error) {
	return c.db.Query(c.rebind(query), args...)
}

// QueryRow executes a query that is expected to return at most one row.
func (c *Connection) QueryRow(query string, args ...any) *sql.Row {
	return c.db.QueryRow(c.rebind(query), args...)
}

// Exec executes a query that doesn't return rows.
func (c *Connection) Exec(query string, args ...any) (sql.Result, error) {
	return c.db.Exec(c.rebind(query), args...)
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
// Queries in this package never contain a literal question mark.
func (c *Connection) rebind(query string) string {
	if c.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
