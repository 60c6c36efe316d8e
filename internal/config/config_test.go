package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Output.Suffix != ".s" {
		t.Errorf("Suffix = %q, want .s", cfg.Output.Suffix)
	}
	if cfg.Output.EmitDebug {
		t.Errorf("EmitDebug should default to false")
	}
	if cfg.Diagnostics.MaxErrors != 1 {
		t.Errorf("MaxErrors = %d, want 1", cfg.Diagnostics.MaxErrors)
	}
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Output.Suffix != ".s" {
		t.Fatalf("expected defaults when no file is present, got %+v", cfg)
	}
}

func TestSaveToThenLoadFromRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cc.toml")

	cfg := DefaultConfig()
	cfg.Output.Suffix = ".asm"
	cfg.Output.EmitDebug = true
	cfg.Diagnostics.MaxErrors = 5

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %s", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %s", err)
	}
	if got.Output.Suffix != ".asm" || !got.Output.EmitDebug || got.Diagnostics.MaxErrors != 5 {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestLoadFromRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("output = [this is not valid toml"), 0600); err != nil {
		t.Fatalf("setup: %s", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("expected an error decoding malformed TOML")
	}
}
