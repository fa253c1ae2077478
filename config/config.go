// Package config loads coolc.toml project settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up next to the sources.
const FileName = "coolc.toml"

type Config struct {
	Check CheckConfig `toml:"check"`
	Emit  EmitConfig  `toml:"emit"`
}

type CheckConfig struct {
	// Jobs bounds concurrent class checks; 0 means GOMAXPROCS.
	Jobs int `toml:"jobs"`
	// MaxErrors caps the diagnostics printed; 0 means no limit.
	MaxErrors int `toml:"max_errors"`
}

type EmitConfig struct {
	TargetTriple string `toml:"target_triple"`
}

// Default returns the settings used when no file is found.
func Default() Config {
	return Config{
		Check: CheckConfig{MaxErrors: 100},
		Emit:  EmitConfig{TargetTriple: "x86_64-pc-linux-gnu"},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load decodes path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if cfg.Check.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	if cfg.Check.MaxErrors < 0 {
		return Config{}, fmt.Errorf("%s: [check].max_errors must not be negative", path)
	}
	return cfg, nil
}

// Resolve loads explicit when set, otherwise the nearest FileName above
// startDir, otherwise the defaults. The returned path is empty when no file
// was used.
func Resolve(explicit, startDir string) (Config, string, error) {
	path := explicit
	if path == "" {
		found, ok, err := Find(startDir)
		if err != nil {
			return Config{}, "", err
		}
		if !ok {
			return Default(), "", nil
		}
		path = found
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}
