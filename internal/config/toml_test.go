package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Practice.Mode != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[practice]
mode = "words"
words = 40
caps = 0.25
graphemes = false

[stats]
curve-window = 7
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Practice.Mode == nil || *cfg.Practice.Mode != "words" {
		t.Fatalf("unexpected mode: %v", cfg.Practice.Mode)
	}
	if cfg.Practice.Words == nil || *cfg.Practice.Words != 40 {
		t.Fatalf("unexpected words: %v", cfg.Practice.Words)
	}
	if cfg.Practice.CapsPct == nil || *cfg.Practice.CapsPct != 0.25 {
		t.Fatalf("unexpected caps: %v", cfg.Practice.CapsPct)
	}
	if cfg.Practice.Graphemes == nil || *cfg.Practice.Graphemes {
		t.Fatalf("expected graphemes=false to be set")
	}
	if cfg.Practice.Seconds != nil {
		t.Fatalf("expected seconds to stay unset")
	}
	if cfg.Stats.CurveWindow == nil || *cfg.Stats.CurveWindow != 7 {
		t.Fatalf("unexpected curve window: %v", cfg.Stats.CurveWindow)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[practice]\nspeed = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestDefaultPathsHonorXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	if got := DefaultConfigPath(); got != filepath.Join(dir, "typemeter", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "typemeter", "typemeter.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
}
