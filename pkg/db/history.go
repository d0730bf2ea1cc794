package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InstallmentRecord represents an installment history record.
type InstallmentRecord struct {
	ID               int64
	InstallmentID    string
	ScheduleID       string
	Source           string
	Narration        string
	InstallmentIndex int
	Periods          int
	InstallmentDate  string
	Amount           string
	Currency         string
	BeancountFile    string
	WrittenAt        time.Time
}

// InstallmentHistory manages installment history operations.
type InstallmentHistory struct {
	conn *Connection
}

// NewInstallmentHistory creates a new InstallmentHistory instance.
func NewInstallmentHistory(conn *Connection) *InstallmentHistory {
	return &InstallmentHistory{conn: conn}
}

// RecordInstallment records a written installment.
// Recording the same installment_id twice keeps the first record.
func (h *InstallmentHistory) RecordInstallment(record InstallmentRecord) error {
	query := `
		INSERT INTO installment_history (
			installment_id, schedule_id, source, narration, installment_index,
			periods, installment_date, amount, currency, beancount_file
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(installment_id) DO NOTHING
	`

	_, err := h.conn.Exec(query,
		record.InstallmentID,
		record.ScheduleID,
		record.Source,
		record.Narration,
		record.InstallmentIndex,
		record.Periods,
		record.InstallmentDate,
		record.Amount,
		record.Currency,
		record.BeancountFile,
	)
	if err != nil {
		return fmt.Errorf("failed to record installment: %w", err)
	}

	return nil
}

// GetRecordedIDs returns the set of installment IDs already written.
func (h *InstallmentHistory) GetRecordedIDs() (map[string]bool, error) {
	rows, err := h.conn.Query(`SELECT installment_id FROM installment_history`)
	if err != nil {
		return nil, fmt.Errorf("failed to get recorded IDs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan installment ID: %w", err)
		}
		ids[id] = true
	}

	return ids, rows.Err()
}

// GetRecordsBySchedule retrieves the records of one schedule ordered by index.
func (h *InstallmentHistory) GetRecordsBySchedule(scheduleID string) ([]InstallmentRecord, error) {
	query := `
		SELECT id, installment_id, schedule_id, source, narration, installment_index,
		       periods, installment_date, amount, currency, beancount_file, written_at
		FROM installment_history
		WHERE schedule_id = ?
		ORDER BY installment_index
	`

	rows, err := h.conn.Query(query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get records by schedule: %w", err)
	}
	defer rows.Close()

	var records []InstallmentRecord
	for rows.Next() {
		var r InstallmentRecord
		if err := rows.Scan(
			&r.ID,
			&r.InstallmentID,
			&r.ScheduleID,
			&r.Source,
			&r.Narration,
			&r.InstallmentIndex,
			&r.Periods,
			&r.InstallmentDate,
			&r.Amount,
			&r.Currency,
			&r.BeancountFile,
			&r.WrittenAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan installment record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Stats represents installment history statistics.
type Stats struct {
	TotalInstallments int
	TotalSchedules    int
	LastWrite         sql.NullString
}

// GetStats retrieves installment history statistics.
func (h *InstallmentHistory) GetStats() (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(`SELECT COUNT(*) FROM installment_history`).Scan(&stats.TotalInstallments)
	if err != nil {
		return nil, fmt.Errorf("failed to get installment count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT COUNT(DISTINCT schedule_id) FROM installment_history`).Scan(&stats.TotalSchedules)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule count: %w", err)
	}

	err = h.conn.QueryRow(`SELECT MAX(written_at) FROM installment_history`).Scan(&stats.LastWrite)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last write time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value. Returns empty string if unset.
func (h *InstallmentHistory) GetMetadata(key string) (string, error) {
	var value string
	err := h.conn.QueryRow(`SELECT value FROM run_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *InstallmentHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO run_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := h.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
