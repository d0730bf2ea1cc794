package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var envKeys = []string{
	"BEANCOUNT_INPUT_FILE",
	"PREFIX",
	"AMORTIZE_TODAY",
	"AMORTIZE_WORKERS",
	"AMORTIZE_ROUNDING",
	"BEANCOUNT_ROOT",
	"BEANCOUNT_DB_PATH",
	"DEBUG",
}

// clearEnv empties every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error: %v", dir, err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Ledger.InputFiles) != 0 {
		t.Errorf("InputFiles = %v, expected none", cfg.Ledger.InputFiles)
	}
	if cfg.Amortize.Workers != 1 {
		t.Errorf("Workers = %d, expected 1", cfg.Amortize.Workers)
	}
	if cfg.Amortize.Rounding != "half_even" {
		t.Errorf("Rounding = %q, expected half_even", cfg.Amortize.Rounding)
	}
	if cfg.Beancount.Root != "./beancount" {
		t.Errorf("Root = %q, expected ./beancount", cfg.Beancount.Root)
	}
	if cfg.Debug {
		t.Error("Debug = true, expected false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BEANCOUNT_INPUT_FILE", "main.yaml, insurance.yaml,,")
	t.Setenv("PREFIX", "/ledger")
	t.Setenv("AMORTIZE_TODAY", "2017-07-25")
	t.Setenv("AMORTIZE_WORKERS", "4")
	t.Setenv("AMORTIZE_ROUNDING", "half_up")
	t.Setenv("BEANCOUNT_ROOT", "/srv/beancount")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	expected := []string{"main.yaml", "insurance.yaml"}
	if !reflect.DeepEqual(cfg.Ledger.InputFiles, expected) {
		t.Errorf("InputFiles = %v, expected %v", cfg.Ledger.InputFiles, expected)
	}
	if cfg.Ledger.Prefix != "/ledger" {
		t.Errorf("Prefix = %q", cfg.Ledger.Prefix)
	}
	if cfg.Amortize.Today != "2017-07-25" || cfg.Amortize.Workers != 4 || cfg.Amortize.Rounding != "half_up" {
		t.Errorf("Amortize = %+v", cfg.Amortize)
	}
	if cfg.Beancount.Root != "/srv/beancount" {
		t.Errorf("Root = %q", cfg.Beancount.Root)
	}
	if !cfg.Debug {
		t.Error("Debug = false, expected true")
	}
}

func TestLoadInvalidWorkers(t *testing.T) {
	clearEnv(t)
	t.Setenv("AMORTIZE_WORKERS", "many")

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid AMORTIZE_WORKERS")
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set.
	for _, key := range []string{"BEANCOUNT_INPUT_FILE", "AMORTIZE_TODAY"} {
		os.Unsetenv(key)
	}

	envPath := filepath.Join(t.TempDir(), "test.env")
	content := "BEANCOUNT_INPUT_FILE=ledger.yaml\nAMORTIZE_TODAY=2017-07-25\n"
	if err := os.WriteFile(envPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("BEANCOUNT_INPUT_FILE")
		os.Unsetenv("AMORTIZE_TODAY")
	})

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(cfg.Ledger.InputFiles, []string{"ledger.yaml"}) {
		t.Errorf("InputFiles = %v", cfg.Ledger.InputFiles)
	}
	if cfg.Amortize.Today != "2017-07-25" {
		t.Errorf("Today = %q", cfg.Amortize.Today)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Load() expected error for missing .env file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Ledger:    LedgerConfig{InputFiles: []string{"ledger.yaml"}},
		Beancount: BeancountConfig{Root: "./beancount"},
	}

	if err := cfg.Validate([]string{"ledger", "inputFiles"}, []string{"beancount", "root"}); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	err := cfg.Validate([]string{"ledger", "prefix"}, []string{"beancount", "dbPath"}, []string{"amortize", "today"})
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, path := range []string{"ledger.prefix", "beancount.dbPath", "amortize.today"} {
		if !strings.Contains(err.Error(), path) {
			t.Errorf("Validate() error %q does not mention %s", err, path)
		}
	}
}
