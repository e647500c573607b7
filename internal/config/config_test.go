package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Path: "data/findex.db"},
		Search: SearchConfig{
			TypeOrder: []string{"sample"},
			Types: map[string]TypeConfig{
				"sample": {
					URLPath:       "/samples",
					AllowedFields: []string{"name", "identifier"},
				},
			},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabasePath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database path")
	}
}

func TestValidate_CacheEnabledWithoutAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}
}

func TestValidate_NoTypes(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Types = nil
	cfg.Search.TypeOrder = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty type set")
	}
}

func TestValidate_BadURLPath(t *testing.T) {
	cfg := validConfig()
	typ := cfg.Search.Types["sample"]
	typ.URLPath = "samples"
	cfg.Search.Types["sample"] = typ
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for url_path without leading slash")
	}
}

func TestValidate_EmptyEnumValueSet(t *testing.T) {
	cfg := validConfig()
	typ := cfg.Search.Types["sample"]
	typ.Enums = map[string]EnumConfig{"workflow_state": {}}
	cfg.Search.Types["sample"] = typ
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty enum value set")
	}
}

func TestValidate_TypeOrderMismatch(t *testing.T) {
	cfg := validConfig()
	cfg.Search.TypeOrder = []string{"sample", "gadget"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for type_order naming an unknown type")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		Search: SearchConfig{
			Types: map[string]TypeConfig{
				"sample":  {URLPath: "/samples"},
				"project": {URLPath: "/projects"},
			},
		},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Cache.TTLSec != 60 {
		t.Errorf("expected cache TTLSec=60, got %d", cfg.Cache.TTLSec)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("pagination defaults: %d/%d", cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	}
	if len(cfg.Search.TypeOrder) != 2 || cfg.Search.TypeOrder[0] != "project" {
		t.Errorf("type order defaults to sorted names, got %v", cfg.Search.TypeOrder)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FINDEX_TEST_PORT", "9999")

	in := []byte("port: ${FINDEX_TEST_PORT}\npath: ${FINDEX_TEST_MISSING:-data/findex.db}\n")
	out := string(expandEnvVars(in))

	want := "port: 9999\npath: data/findex.db\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
