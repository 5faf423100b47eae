// ABOUTME: Tests for CLI configuration
// ABOUTME: Covers defaults, YAML loading, flag precedence and validation
package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/lanprobe/internal/discovery"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lanprobe.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("lanprobe", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestDefaultValid(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Backend != discovery.BackendMDNS {
		t.Errorf("expected mdns backend, got %s", cfg.Backend)
	}
	if cfg.Descriptor().Name != "LocalNetworkPrivacy" {
		t.Errorf("expected default instance name, got %s", cfg.Descriptor().Name)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "backend: zeroconf\nname: Kitchen\ntimeout: 15s\nno_tui: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend != discovery.BackendZeroconf {
		t.Errorf("expected zeroconf, got %s", cfg.Backend)
	}
	if cfg.Name != "Kitchen" {
		t.Errorf("expected name Kitchen, got %s", cfg.Name)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.Timeout)
	}
	if !cfg.NoTUI {
		t.Error("expected no_tui to be true")
	}
	if cfg.LogFile != "lanprobe.log" {
		t.Errorf("expected default log file to survive, got %s", cfg.LogFile)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeConfig(t, "backend: [unterminated\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "backend: zeroconf\nname: FromFile\ntimeout: 15s\n")

	cfg, err := Parse(newFlagSet(), []string{"-config", path, "-name", "FromFlag"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Name != "FromFlag" {
		t.Errorf("expected flag to win, got %s", cfg.Name)
	}
	if cfg.Backend != discovery.BackendZeroconf {
		t.Errorf("expected backend from file, got %s", cfg.Backend)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("expected timeout from file, got %v", cfg.Timeout)
	}
}

func TestParseWithoutFile(t *testing.T) {
	cfg, err := Parse(newFlagSet(), []string{"-backend", "zeroconf", "-no-tui"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Backend != discovery.BackendZeroconf {
		t.Errorf("expected zeroconf, got %s", cfg.Backend)
	}
	if !cfg.NoTUI {
		t.Error("expected no-tui to be set")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "bonjour" }},
		{"empty name", func(c *Config) { c.Name = "" }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := Default()
	cfg.Backend = "bonjour"
	if err := cfg.Validate(); !errors.Is(err, discovery.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}
