package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("default port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Upstream.Driver != "simulated" {
		t.Errorf("default driver = %q, want simulated", cfg.Upstream.Driver)
	}
	if cfg.Relay.Retention != 30*time.Minute {
		t.Errorf("default retention = %v, want 30m", cfg.Relay.Retention)
	}
	if cfg.Relay.StatisticInterval != 5*time.Second {
		t.Errorf("default statistic interval = %v, want 5s", cfg.Relay.StatisticInterval)
	}
	if cfg.Admission.Enabled {
		t.Error("admission should default to disabled")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	content := `
server:
  port: 9000
upstream:
  driver: liveproto
  credential: server-session
relay:
  retention: 10m
admission:
  enabled: true
  max_connections: 50
log:
  level: debug
  json: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host should keep default, got %q", cfg.Server.Host)
	}
	if cfg.Upstream.Credential != "server-session" {
		t.Errorf("credential = %q, want server-session", cfg.Upstream.Credential)
	}
	if cfg.Relay.Retention != 10*time.Minute {
		t.Errorf("retention = %v, want 10m", cfg.Relay.Retention)
	}
	// Unset in the file: stays at the default.
	if cfg.Relay.StatisticInterval != 5*time.Second {
		t.Errorf("statistic interval = %v, want 5s", cfg.Relay.StatisticInterval)
	}
	if !cfg.Admission.Enabled || cfg.Admission.MaxConnections != 50 {
		t.Errorf("admission = %+v, want enabled with cap 50", cfg.Admission)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log = %+v, want debug json", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	content := `
relay:
  retention: 0s
  statistic_interval: -1s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Relay.Retention != 30*time.Minute {
		t.Errorf("retention = %v, want fallback 30m", cfg.Relay.Retention)
	}
	if cfg.Relay.StatisticInterval != 5*time.Second {
		t.Errorf("statistic interval = %v, want fallback 5s", cfg.Relay.StatisticInterval)
	}
}
