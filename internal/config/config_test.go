package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadXDGToml(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	write(t, filepath.Join(dir, "mtail", "config.toml"), `
[defaults]
logical_line_marker = "20"
context = 2
truncate = true

[keybindings]
quit = ["x"]
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.LogicalLineMarker != "20" || cfg.Defaults.Context != 2 || !cfg.Defaults.Truncate {
		t.Errorf("defaults %+v", cfg.Defaults)
	}
	if !reflect.DeepEqual(cfg.Keybindings.Quit, []string{"x"}) {
		t.Errorf("quit keys %v", cfg.Keybindings.Quit)
	}
	// untouched sections keep their defaults
	if cfg.Defaults.Comparison != "OrdinalIgnoreCase" || len(cfg.Theme.Filters) == 0 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadExplicitYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtail.yaml")
	write(t, path, `
theme:
  status_bar: "17"
log_levels:
  warn_patterns: ["ATTN"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme.StatusBar != "17" {
		t.Errorf("status bar %q", cfg.Theme.StatusBar)
	}
	if !reflect.DeepEqual(cfg.LogLevels.WarnPatterns, []string{"ATTN"}) {
		t.Errorf("warn patterns %v", cfg.LogLevels.WarnPatterns)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("explicit missing file: expected error")
	}

	bad := filepath.Join(dir, "bad.toml")
	write(t, bad, "[defaults\ncontext = ")
	if _, err := Load(bad); err == nil {
		t.Errorf("malformed file: expected error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := DefaultConfig()
	cfg.Defaults.Syntax = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if GetConfigPath() != filepath.Join(dir, "mtail", "config.toml") {
		t.Fatalf("config path %q", GetConfigPath())
	}

	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Defaults.Syntax {
		t.Fatalf("saved defaults not loaded back")
	}
}
