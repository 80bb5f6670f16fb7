package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/TimelordUK/mtail/internal/source"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		n       int64
		unit    LocationUnit
		wantErr bool
	}{
		{"100b", 100, Bytes, false},
		{" 25P ", 25, Percent, false},
		{"0B", 0, Bytes, false},
		{"B", 0, Bytes, true},
		{"10x", 0, Bytes, true},
		{"abcB", 0, Bytes, true},
		{"101P", 0, Bytes, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, unit, err := ParseLocation(tt.in)
			if tt.wantErr {
				var argErr *ArgumentError
				if !errors.As(err, &argErr) {
					t.Fatalf("err = %v, want ArgumentError", err)
				}
				return
			}
			if err != nil || n != tt.n || unit != tt.unit {
				t.Fatalf("ParseLocation(%q) = %d, %v, %v", tt.in, n, unit, err)
			}
		})
	}
}

func TestParseLines(t *testing.T) {
	tests := []struct {
		in      string
		n       int
		from    LinesFrom
		wantErr bool
	}{
		{"10", 10, FromEnd, false},
		{"+3", 3, FromBegin, false},
		{"0", 0, FromEnd, false},
		{"", 0, FromBegin, true},
		{"-2", 0, FromBegin, true},
		{"x", 0, FromBegin, true},
	}
	for _, tt := range tests {
		n, from, err := ParseLines(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLines(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && (n != tt.n || from != tt.from) {
			t.Errorf("ParseLines(%q) = %d, %v", tt.in, n, from)
		}
	}
}

func TestParseContext(t *testing.T) {
	if n, err := ParseContext("2"); err != nil || n != 2 {
		t.Fatalf("ParseContext(2) = %d, %v", n, err)
	}
	for _, bad := range []string{"0", "-1", "", "z"} {
		if _, err := ParseContext(bad); err == nil {
			t.Errorf("ParseContext(%q) accepted", bad)
		}
	}
}

func TestOptionsDerived(t *testing.T) {
	o := DefaultOptions()
	o.Lines = 3
	o.ContextBefore = 1
	o.ContextAfter = 2
	if o.TailTarget() != 12 {
		t.Fatalf("TailTarget() = %d", o.TailTarget())
	}
	o.StartUnit = Percent
	o.StartLocation = 50
	if got := o.StartOffset(1000); got != 500 {
		t.Fatalf("StartOffset() = %d", got)
	}
}

func TestValidate(t *testing.T) {
	o := DefaultOptions()
	if err := o.Validate(); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
	o.Files = []string{"a.log"}
	o.Filters = source.FilterSet{Show: []string{""}}
	if err := o.Validate(); !errors.Is(err, source.ErrEmptyPattern) {
		t.Fatalf("err = %v, want ErrEmptyPattern", err)
	}
	o.Filters = source.FilterSet{Show: []string{"ok"}}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "c.toml")
	os.WriteFile(tomlPath, []byte("[defaults]\nlogical_line_marker = \"<<<\"\n"), 0o644)
	yamlPath := filepath.Join(dir, "c.yaml")
	os.WriteFile(yamlPath, []byte("defaults:\n  context: 2\n"), 0o644)

	cfg, err := Load(tomlPath)
	if err != nil || cfg.Defaults.LogicalLineMarker != "<<<" {
		t.Fatalf("toml: %+v, %v", cfg.Defaults, err)
	}
	if len(cfg.Theme.Filters) == 0 {
		t.Fatal("defaults lost")
	}
	cfg, err = Load(yamlPath)
	if err != nil || cfg.Defaults.Context != 2 {
		t.Fatalf("yaml: %+v, %v", cfg.Defaults, err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Fatal("missing explicit file accepted")
	}
}

func TestLoadDefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.Comparison != "OrdinalIgnoreCase" {
		t.Fatalf("comparison = %q", cfg.Defaults.Comparison)
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(GetConfigPath()); err != nil {
		t.Fatalf("saved file: %v", err)
	}
}
