package db

import (
	"fmt"
	"path/filepath"
	"testing"
)

func openTestHistory(t *testing.T) *InstallmentHistory {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewInstallmentHistory(conn)
}

func record(schedule string, index int) InstallmentRecord {
	return InstallmentRecord{
		InstallmentID:    fmt.Sprintf("%s-%d", schedule, index),
		ScheduleID:       schedule,
		Source:           "ledger.yaml:7",
		Narration:        "Amortize car insurance",
		InstallmentIndex: index,
		Periods:          3,
		InstallmentDate:  fmt.Sprintf("2017-%02d-01", 6+index),
		Amount:           "200.00",
		Currency:         "USD",
		BeancountFile:    "/ledger/2017/2017-06.beancount",
	}
}

func TestRecordInstallment(t *testing.T) {
	history := openTestHistory(t)

	ids, err := history.GetRecordedIDs()
	if err != nil {
		t.Fatalf("GetRecordedIDs() error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("GetRecordedIDs() = %v on an empty database", ids)
	}

	if err := history.RecordInstallment(record("car", 0)); err != nil {
		t.Fatalf("RecordInstallment() error: %v", err)
	}
	// A second write of the same installment is ignored.
	duplicate := record("car", 0)
	duplicate.Amount = "999.99"
	if err := history.RecordInstallment(duplicate); err != nil {
		t.Fatalf("duplicate RecordInstallment() error: %v", err)
	}

	ids, err = history.GetRecordedIDs()
	if err != nil || !ids["car-0"] || len(ids) != 1 {
		t.Errorf("GetRecordedIDs() = %v, %v, expected only car-0", ids, err)
	}

	records, err := history.GetRecordsBySchedule("car")
	if err != nil {
		t.Fatalf("GetRecordsBySchedule() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("GetRecordsBySchedule() returned %d records, expected 1", len(records))
	}
	if records[0].Amount != "200.00" || records[0].Source != "ledger.yaml:7" {
		t.Errorf("record = %+v", records[0])
	}
	if records[0].WrittenAt.IsZero() {
		t.Error("WrittenAt was not set")
	}
}

func TestGetRecordedIDsAndStats(t *testing.T) {
	history := openTestHistory(t)

	stats, err := history.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalInstallments != 0 || stats.TotalSchedules != 0 || stats.LastWrite.Valid {
		t.Errorf("empty stats = %+v", stats)
	}

	for _, r := range []InstallmentRecord{record("car", 1), record("car", 0), record("rent", 0)} {
		if err := history.RecordInstallment(r); err != nil {
			t.Fatalf("RecordInstallment() error: %v", err)
		}
	}

	ids, err := history.GetRecordedIDs()
	if err != nil {
		t.Fatalf("GetRecordedIDs() error: %v", err)
	}
	for _, id := range []string{"car-0", "car-1", "rent-0"} {
		if !ids[id] {
			t.Errorf("GetRecordedIDs() is missing %s", id)
		}
	}
	if len(ids) != 3 {
		t.Errorf("GetRecordedIDs() returned %d IDs, expected 3", len(ids))
	}

	records, err := history.GetRecordsBySchedule("car")
	if err != nil {
		t.Fatalf("GetRecordsBySchedule() error: %v", err)
	}
	if len(records) != 2 || records[0].InstallmentIndex != 0 || records[1].InstallmentIndex != 1 {
		t.Errorf("GetRecordsBySchedule() not ordered by index: %+v", records)
	}

	stats, err = history.GetStats()
	if err != nil {
		t.Fatalf("GetStats() error: %v", err)
	}
	if stats.TotalInstallments != 3 || stats.TotalSchedules != 2 || !stats.LastWrite.Valid {
		t.Errorf("stats = %+v", stats)
	}
}

func TestMetadata(t *testing.T) {
	history := openTestHistory(t)

	value, err := history.GetMetadata("last_today")
	if err != nil || value != "" {
		t.Errorf("GetMetadata() of unset key = %q, %v", value, err)
	}

	for _, v := range []string{"2017-07-25", "2017-08-01"} {
		if err := history.SetMetadata("last_today", v); err != nil {
			t.Fatalf("SetMetadata() error: %v", err)
		}
	}

	value, err = history.GetMetadata("last_today")
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	if value != "2017-08-01" {
		t.Errorf("GetMetadata() = %q, expected 2017-08-01", value)
	}
}
