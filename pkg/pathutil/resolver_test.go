package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultsDatabasePath(t *testing.T) {
	resolver := New(Config{BeancountRoot: "/ledger"})

	expected := filepath.Join("/ledger", ".amortize", "history.db")
	if got := resolver.GetDatabasePath(); got != expected {
		t.Errorf("GetDatabasePath() = %s, expected %s", got, expected)
	}

	resolver = New(Config{BeancountRoot: "/ledger", DatabasePath: "/tmp/history.db"})
	if got := resolver.GetDatabasePath(); got != "/tmp/history.db" {
		t.Errorf("GetDatabasePath() = %s, expected /tmp/history.db", got)
	}
}

func TestGetMonthFilePath(t *testing.T) {
	resolver := New(Config{BeancountRoot: "/ledger"})

	tests := []struct {
		yearMonth string
		expected  string
		wantErr   bool
	}{
		{"2017-06", filepath.Join("/ledger", "2017", "2017-06.beancount"), false},
		{"2017-12", filepath.Join("/ledger", "2017", "2017-12.beancount"), false},
		{"2017-6", "", true},
		{"17-06", "", true},
		{"2017", "", true},
		{"2017-06-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.yearMonth, func(t *testing.T) {
			got, err := resolver.GetMonthFilePath(tt.yearMonth)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetMonthFilePath(%q) error = %v, wantErr %v", tt.yearMonth, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("GetMonthFilePath(%q) = %s, expected %s", tt.yearMonth, got, tt.expected)
			}
		})
	}
}

func TestEnsureParentDir(t *testing.T) {
	root := t.TempDir()
	resolver := New(Config{BeancountRoot: root})

	path, err := resolver.GetMonthFilePath("2017-06")
	if err != nil {
		t.Fatal(err)
	}
	if resolver.FileExists(path) {
		t.Fatal("month file exists before creation")
	}

	if err := resolver.EnsureParentDir(path); err != nil {
		t.Fatalf("EnsureParentDir() error: %v", err)
	}
	if !resolver.FileExists(resolver.GetYearDir("2017")) {
		t.Error("year directory was not created")
	}

	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !resolver.FileExists(path) {
		t.Error("FileExists() = false after creation")
	}
	if resolver.GetBeancountRoot() != root {
		t.Errorf("GetBeancountRoot() = %s", resolver.GetBeancountRoot())
	}
}
