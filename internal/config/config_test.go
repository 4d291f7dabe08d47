package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/metro-mecard/mecard/internal/domain"
)

func validBImportConfig() Config {
	cfg := Config{
		ILS: ILSConfig{Backend: BackendBImport},
		BImport: BImportConfig{
			LoadDir:  "/var/mecard/load",
			Server:   "horizon01",
			User:     "sa",
			Password: "secret",
			Database: "horizon",
			Location: "lalap",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := Config{ILS: ILSConfig{Backend: "koha"}}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !errors.Is(err, domain.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestValidate_BImportMissingProperty(t *testing.T) {
	cfg := validBImportConfig()
	cfg.BImport.Database = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	expected := "bimport.database is required: configuration error"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
	if !IsConfigError(err) {
		t.Error("IsConfigError() = false")
	}
}

func TestValidate_BImportValid(t *testing.T) {
	cfg := validBImportConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BImportEncoding(t *testing.T) {
	for _, enc := range []string{"", "utf-8", "windows-1252"} {
		t.Run("encoding="+enc, func(t *testing.T) {
			cfg := validBImportConfig()
			cfg.BImport.Encoding = enc
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for %q: %v", enc, err)
			}
		})
	}

	cfg := validBImportConfig()
	cfg.BImport.Encoding = "ebcdic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported encoding")
	}
}

func TestValidate_BadFailedPattern(t *testing.T) {
	cfg := validBImportConfig()
	cfg.Loader.FailedPattern = "([unclosed"
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestValidate_SIP2RequiresHost(t *testing.T) {
	cfg := Config{ILS: ILSConfig{Backend: BackendSIP2}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing sip2.host")
	}
}

func TestValidate_OutcomeRequiresAddrs(t *testing.T) {
	cfg := Config{ILS: ILSConfig{Backend: BackendDebug}, Outcome: OutcomeConfig{Enabled: true}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing outcome.addrs")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{ILS: ILSConfig{Backend: BackendDebug}}
	cfg.ApplyDefaults()
	cfg.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{BImport: BImportConfig{LoadDir: "/load"}}
	cfg.ApplyDefaults()

	if cfg.Protocol.Delimiter != "|" {
		t.Errorf("expected Delimiter=|, got %q", cfg.Protocol.Delimiter)
	}
	if cfg.Loader.LockFile != "metro-load.pid" {
		t.Errorf("expected LockFile=metro-load.pid, got %q", cfg.Loader.LockFile)
	}
	if cfg.Loader.FailureDir != "/load" {
		t.Errorf("expected FailureDir to default to load dir, got %q", cfg.Loader.FailureDir)
	}
	if cfg.Loader.StaleLockSec != 2*cfg.Loader.TimeoutSec {
		t.Errorf("expected StaleLockSec=%d, got %d", 2*cfg.Loader.TimeoutSec, cfg.Loader.StaleLockSec)
	}
	if cfg.Loader.RetainCombined == nil || !*cfg.Loader.RetainCombined {
		t.Error("expected RetainCombined=true by default")
	}
	if cfg.BImport.Version != "fm41" {
		t.Errorf("expected Version=fm41, got %q", cfg.BImport.Version)
	}
	if cfg.BImport.Flags.Header != "/h" {
		t.Errorf("expected header flag /h, got %q", cfg.BImport.Flags.Header)
	}
	if cfg.Messages.SuccessJoin == "" {
		t.Error("expected default success_join message")
	}
	if cfg.Outcome.TTLHours != 168 {
		t.Errorf("expected TTLHours=168, got %d", cfg.Outcome.TTLHours)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	retain := false
	cfg := Config{
		Protocol: ProtocolConfig{Delimiter: "^"},
		Loader:   LoaderConfig{LockFile: "custom.pid", RetainCombined: &retain, IntervalSec: 30},
	}
	cfg.ApplyDefaults()

	if cfg.Protocol.Delimiter != "^" {
		t.Errorf("Delimiter overwritten: %q", cfg.Protocol.Delimiter)
	}
	if cfg.Loader.LockFile != "custom.pid" {
		t.Errorf("LockFile overwritten: %q", cfg.Loader.LockFile)
	}
	if *cfg.Loader.RetainCombined {
		t.Error("RetainCombined overwritten")
	}
	if cfg.Loader.IntervalSec != 30 {
		t.Errorf("IntervalSec overwritten: %d", cfg.Loader.IntervalSec)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("MECARD_TEST_BIMPORT_PASSWORD", "s3cret")

	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	data := []byte(`
ils:
  backend: bimport
bimport:
  load_dir: ` + dir + `
  server: horizon01
  user: sa
  password: ${MECARD_TEST_BIMPORT_PASSWORD}
  database: ${MECARD_TEST_UNSET_DB:-horizon}
  location: lalap
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BImport.Password != "s3cret" {
		t.Errorf("expected expanded password, got %q", cfg.BImport.Password)
	}
	if cfg.BImport.Database != "horizon" {
		t.Errorf("expected default database, got %q", cfg.BImport.Database)
	}
	if cfg.Loader.FailureDir != dir {
		t.Errorf("expected FailureDir=%q, got %q", dir, cfg.Loader.FailureDir)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
