// Package config resolves Angarac's installation-specific paths (the
// runtime directory, the native-module install directory, and extra module
// search paths) from a YAML file, overridable by environment variables.
//
// Hard-coded absolute installation paths are unsuitable for distribution
// (see DESIGN.md); instead paths come from, in increasing priority,
// built-in defaults, an `angarac.yaml` file, then environment variables.
package config

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config holds the driver's installation-specific paths.
type Config struct {
	// RuntimeDir holds the hand-written C runtime's header and source
	RuntimeDir string `yaml:"runtime_dir"`

	// NativeModuleDir is searched for `lib<name>.so`/`lib<name>.dylib`
	// and used for the link-time rpath.
	NativeModuleDir string `yaml:"native_module_dir"`

	// ModuleSearchPaths are additional directories consulted after cwd and
	// before NativeModuleDir/UserModuleDir.
	ModuleSearchPaths []string `yaml:"module_search_paths"`

	// UserModuleDir is the user's own module directory, distinct from the
	// native-module install directory.
	UserModuleDir string `yaml:"user_module_dir"`

	// CC is the system C compiler to invoke.
	CC string `yaml:"cc"`
}

// Default returns the built-in fallback configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		RuntimeDir:      filepath.Join(home, ".angara", "runtime"),
		NativeModuleDir: filepath.Join(home, ".angara", "native"),
		UserModuleDir:   filepath.Join(home, ".angara", "modules"),
		CC:              "gcc",
	}
}

// Load resolves configuration from, in order: built-in defaults, the YAML
// file at path (if non-empty and it exists), then environment variables.
// An empty path is not an error; defaults plus env overrides still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ANGARA_RUNTIME_DIR"); v != "" {
		cfg.RuntimeDir = v
	}
	if v := os.Getenv("ANGARA_NATIVE_DIR"); v != "" {
		cfg.NativeModuleDir = v
	}
	if v := os.Getenv("ANGARA_MODULE_PATH"); v != "" {
		cfg.ModuleSearchPaths = append(cfg.ModuleSearchPaths, filepath.SplitList(v)...)
	}
	if v := os.Getenv("ANGARA_CC"); v != "" {
		cfg.CC = v
	}
}

// ResolveConfigPath implements the config search order: --config flag,
// $ANGARAC_CONFIG, ./angarac.yaml.
func ResolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("ANGARAC_CONFIG"); v != "" {
		return v
	}
	return "angarac.yaml"
}
