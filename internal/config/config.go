// Package config resolves ctxrun's configuration directory, runtime knobs,
// and the bootstrap default module.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultDirName = "ctxrun"

// Config holds runtime knobs layered: defaults -> TOML file -> env vars.
type Config struct {
	Model          string `toml:"model"`
	HTTPTimeoutSec int    `toml:"http_timeout_sec"`
	MaxIterations  int    `toml:"max_iterations"`
	APIKey         string `toml:"-"`
	ConfigDir      string `toml:"-"`
}

// Default returns a Config with all built-in defaults applied.
func Default() Config {
	return Config{
		Model:          "gemini-2.5-flash",
		HTTPTimeoutSec: 60,
		MaxIterations:  50,
	}
}

// Load resolves the config directory, reads an optional ctxrun.toml inside
// it over the defaults, then applies environment overrides. GOOGLE_API_KEY
// must be set; its absence is reported as ErrConfigMissing-shaped error by
// the caller (Load itself only surfaces the missing-key fact via APIKey
// being empty, matching internal/config/config.go's defaults -> TOML ->
// env-override layering).
func Load() (Config, error) {
	cfg := Default()

	dir, err := ConfigDir()
	if err != nil {
		return cfg, err
	}
	cfg.ConfigDir = dir

	if data, err := os.ReadFile(filepath.Join(dir, "ctxrun.toml")); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	if v := os.Getenv("CTXRUN_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CTXRUN_MAX_ITERATIONS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.MaxIterations)
	}

	cfg.APIKey = os.Getenv("GOOGLE_API_KEY")

	return cfg, nil
}

// ConfigDir resolves ${HOME}/.config/ctxrun, creating it on first use.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", defaultDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultModulePath returns the path to the root context's module file.
func DefaultModulePath(configDir string) string {
	return filepath.Join(configDir, "default.module")
}

// ModulePath returns the path a named tool's sub-context module would live
// at, per the dispatcher's ${config_dir}/${name}.module convention.
func ModulePath(configDir, name string) string {
	return filepath.Join(configDir, name+".module")
}

// defaultPrompt is the built-in system prompt written to default.module on
// first run when the file is absent.
const defaultPrompt = `You are ctxrun, a terse command-line assistant.
Answer the user's request directly. When you have nothing left to do,
end your final reply with the word END.
`

// EnsureDefaultModule writes default.module with defaultPrompt if it does
// not already exist.
func EnsureDefaultModule(configDir string) error {
	path := DefaultModulePath(configDir)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(defaultPrompt), 0o644)
}
