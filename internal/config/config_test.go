package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitialize(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if v == nil {
		t.Fatal("viper instance is nil after Initialize()")
	}
}

func TestDefaults(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}

	if GetBool("json") {
		t.Error("json should default to false")
	}
	if GetBool("no-daemon") {
		t.Error("no-daemon should default to false")
	}
	if GetString("db") != "" {
		t.Error("db should default to empty")
	}
	if GetString("ticket-prefix") != "" {
		t.Error("ticket-prefix should default to empty")
	}
	if GetDuration("marker-window") != 30*time.Minute {
		t.Errorf("marker-window = %v, want 30m", GetDuration("marker-window"))
	}
	if !GetBool("auto-start-daemon") {
		t.Error("auto-start-daemon should default to true")
	}
}

func TestEnvironmentBinding(t *testing.T) {
	tests := []struct {
		envVar string
		value  string
		check  func() bool
	}{
		{"RK_JSON", "true", func() bool { return GetBool("json") }},
		{"RK_NO_DAEMON", "true", func() bool { return GetBool("no-daemon") }},
		{"RK_ACTOR", "testuser", func() bool { return GetString("actor") == "testuser" }},
		{"RK_DB", "/tmp/test.db", func() bool { return GetString("db") == "/tmp/test.db" }},
		{"RK_TICKET_PREFIX", "qa", func() bool { return GetString("ticket-prefix") == "qa" }},
	}

	for _, tt := range tests {
		t.Run(tt.envVar, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.value)
			if err := Initialize(); err != nil {
				t.Fatal(err)
			}
			if !tt.check() {
				t.Errorf("%s=%s not reflected in config", tt.envVar, tt.value)
			}
		})
	}
}

func TestConfigFileDiscovery(t *testing.T) {
	dir := t.TempDir()
	rkDir := filepath.Join(dir, ".ralphkit")
	if err := os.MkdirAll(rkDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "actor: filebot\nticket-prefix: qa\n"
	if err := os.WriteFile(filepath.Join(rkDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Run from a subdirectory to exercise the walk-up discovery
	sub := filepath.Join(dir, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if GetString("actor") != "filebot" {
		t.Errorf("actor = %q, want filebot", GetString("actor"))
	}
	if GetString("ticket-prefix") != "qa" {
		t.Errorf("ticket-prefix = %q, want qa", GetString("ticket-prefix"))
	}
}

func TestSetOverrides(t *testing.T) {
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	Set("actor", "flag-actor")
	if GetString("actor") != "flag-actor" {
		t.Errorf("Set should take highest precedence, got %q", GetString("actor"))
	}
}
