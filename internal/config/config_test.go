package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Model != "gemini-2.5-flash" {
		t.Errorf("expected default model, got %s", cfg.Model)
	}
	if cfg.MaxIterations != 50 {
		t.Errorf("expected 50, got %d", cfg.MaxIterations)
	}
}

func TestLoadAppliesTOMLOverDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "ctxrun")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ctxrun.toml"), []byte("model = \"gemini-2.5-pro\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("expected TOML override, got %s", cfg.Model)
	}
	if cfg.APIKey != "test-key" {
		t.Errorf("expected env key, got %s", cfg.APIKey)
	}
}

func TestEnvOverridesModel(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CTXRUN_MODEL", "gemini-override")
	t.Setenv("GOOGLE_API_KEY", "k")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "gemini-override" {
		t.Errorf("expected env override, got %s", cfg.Model)
	}
}

func TestEnsureDefaultModuleWritesOnce(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureDefaultModule(dir); err != nil {
		t.Fatalf("EnsureDefaultModule: %v", err)
	}
	data, err := os.ReadFile(DefaultModulePath(dir))
	if err != nil {
		t.Fatalf("read default.module: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty default prompt")
	}

	// Second call must not overwrite a user-edited file.
	if err := os.WriteFile(DefaultModulePath(dir), []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDefaultModule(dir); err != nil {
		t.Fatalf("EnsureDefaultModule (second): %v", err)
	}
	data, _ = os.ReadFile(DefaultModulePath(dir))
	if string(data) != "custom" {
		t.Error("EnsureDefaultModule overwrote an existing module file")
	}
}
