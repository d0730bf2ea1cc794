// Package db provides SQLite or PostgreSQL storage for the history of written installments.
package db

// Schema defines the SQLite statements to create database tables.
const Schema = `
-- Installment history table
-- Tracks which amortization installments have been written to Beancount files
CREATE TABLE IF NOT EXISTS installment_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    installment_id TEXT NOT NULL UNIQUE, -- Deterministic ID of schedule + index
    schedule_id TEXT NOT NULL,           -- Deterministic ID of the tagged transaction
    source TEXT NOT NULL,                -- filename:lineno of the tagged transaction
    narration TEXT NOT NULL,
    installment_index INTEGER NOT NULL,  -- 0-based month offset
    periods INTEGER NOT NULL,
    installment_date TEXT NOT NULL,      -- YYYY-MM-DD
    amount TEXT NOT NULL,                -- Exact decimal magnitude
    currency TEXT NOT NULL,
    beancount_file TEXT NOT NULL,        -- Path to Beancount file
    written_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_installment_history_schedule
    ON installment_history(schedule_id);

CREATE INDEX IF NOT EXISTS idx_installment_history_date
    ON installment_history(installment_date);

-- Run metadata table
-- Stores key-value metadata about amortization runs
CREATE TABLE IF NOT EXISTS run_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// PostgresSchema is Schema for PostgreSQL.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS installment_history (
    id BIGSERIAL PRIMARY KEY,
    installment_id TEXT NOT NULL UNIQUE,
    schedule_id TEXT NOT NULL,
    source TEXT NOT NULL,
    narration TEXT NOT NULL,
    installment_index INTEGER NOT NULL,
    periods INTEGER NOT NULL,
    installment_date TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    beancount_file TEXT NOT NULL,
    written_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_installment_history_schedule
    ON installment_history(schedule_id);

CREATE INDEX IF NOT EXISTS idx_installment_history_date
    ON installment_history(installment_date);

CREATE TABLE IF NOT EXISTS run_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	schema := Schema
	if conn.Driver() == DriverPostgres {
		schema = PostgresSchema
	}
	if _, err := conn.Exec(schema); err != nil {
		return err
	}
	return nil
}
