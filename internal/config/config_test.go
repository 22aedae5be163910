package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingRedisAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing redis addrs")
	}
}

func TestValidate_MemoryDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: DriverMemory}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for memory driver without fixtures")
	}
	expected := "storage.fixtures is required for the memory driver"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}

	cfg.Storage.Fixtures = "testdata/showrooms.yaml"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "valkey"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_DiscoveryBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DiscoveryConfig)
	}{
		{"page size", func(d *DiscoveryConfig) { d.DefaultPageSize = 200 }},
		{"suggest limit", func(d *DiscoveryConfig) { d.DefaultSuggestLimit = 30 }},
		{"near radius", func(d *DiscoveryConfig) { d.DefaultNearRadiusKm = 80 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg.Discovery)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate_EmptyBlockedCountry(t *testing.T) {
	cfg := validConfig()
	cfg.Jurisdiction.BlockedCountries = []BlockedCountry{{}}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty blocked country")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != DriverRedis {
		t.Errorf("expected Driver=%q, got %q", DriverRedis, cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "showroomdex:" {
		t.Errorf("expected KeyPrefix='showroomdex:', got %q", cfg.Storage.KeyPrefix)
	}
	d := cfg.Discovery
	if d.DefaultPageSize != 20 || d.MaxPageSize != 100 {
		t.Errorf("page sizes = %d/%d", d.DefaultPageSize, d.MaxPageSize)
	}
	if d.DefaultSuggestLimit != 10 || d.MaxSuggestLimit != 20 || d.SuggestSampleSize != 200 {
		t.Errorf("suggest = %d/%d/%d", d.DefaultSuggestLimit, d.MaxSuggestLimit, d.SuggestSampleSize)
	}
	if d.MaxGeohashPrefixes != 8 || d.DefaultNearRadiusKm != 5 || d.MaxNearRadiusKm != 50 {
		t.Errorf("geo = %d/%g/%g", d.MaxGeohashPrefixes, d.DefaultNearRadiusKm, d.MaxNearRadiusKm)
	}
	if len(cfg.Jurisdiction.BlockedCountries) != 1 || cfg.Jurisdiction.BlockedCountries[0].Code != "RU" {
		t.Errorf("blocked = %+v", cfg.Jurisdiction.BlockedCountries)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:         HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:     DatabaseConfig{Driver: DriverMemory, ReadinessTimeout: 15},
		Storage:      StorageConfig{KeyPrefix: "custom:"},
		Discovery:    DiscoveryConfig{DefaultPageSize: 50, MaxPageSize: 500},
		Jurisdiction: JurisdictionConfig{BlockedCountries: []BlockedCountry{}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("expected Driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Discovery.MaxPageSize != 500 {
		t.Errorf("expected MaxPageSize=500, got %d", cfg.Discovery.MaxPageSize)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if len(cfg.Jurisdiction.BlockedCountries) != 0 {
		t.Error("an explicitly empty blocklist must stay empty")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SHOWROOMDEX_TEST_ADDR", "redis:6380")
	got := string(expandEnvVars([]byte("a: ${SHOWROOMDEX_TEST_ADDR}\nb: ${SHOWROOMDEX_TEST_UNSET:-fallback}\n")))
	want := "a: redis:6380\nb: fallback\n"
	if got != want {
		t.Errorf("expandEnvVars = %q, want %q", got, want)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	data := []byte(`
http:
  port: 9090
database:
  driver: memory
storage:
  fixtures: testdata/showrooms.yaml
jurisdiction:
  blocked_countries:
    - code: BY
      names: [Belarus]
`)
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), data, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Database.Driver != DriverMemory {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := cfg.Jurisdiction.BlockedCountries; len(got) != 1 || got[0].Names[0] != "Belarus" {
		t.Errorf("blocked = %+v", got)
	}
}

func TestDiscoveryLimits(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Discovery.MaxPageSize = 50
	cfg.Discovery.MaxGeohashPrefixes = 4

	l := cfg.Discovery.Limits()
	if l.MaxPageSize != 50 || l.MaxGeohashPrefixes != 4 {
		t.Errorf("limits not mapped: %+v", l)
	}
	if l.DefaultPageSize != 20 || l.MaxNearRadiusKm != 50 {
		t.Errorf("defaults not carried: %+v", l)
	}
	if l.MaxListValues <= 0 {
		t.Errorf("MaxListValues must keep its stock bound, got %d", l.MaxListValues)
	}
}

func TestJurisdiction(t *testing.T) {
	j := JurisdictionConfig{BlockedCountries: []BlockedCountry{
		{Code: "BY", Names: []string{"Belarus"}},
	}}
	jur := j.Jurisdiction()
	if !jur.IsBlocked("belarus") || !jur.IsBlocked("by") {
		t.Error("configured country must be blocked case-insensitively")
	}
	if jur.IsBlocked("Russia") {
		t.Error("an explicit blocklist replaces the default")
	}
}
