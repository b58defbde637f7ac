package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsFilledIn(t *testing.T) {
	cfg := Default()
	if cfg.CC != "gcc" {
		t.Errorf("default CC = %q", cfg.CC)
	}
	if cfg.RuntimeDir == "" || cfg.NativeModuleDir == "" || cfg.UserModuleDir == "" {
		t.Error("default directories must be non-empty")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "angarac.yaml")
	yaml := `
runtime_dir: /opt/angara/runtime
native_module_dir: /opt/angara/native
user_module_dir: /home/me/angara
module_search_paths:
  - /opt/angara/vendor
cc: clang
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RuntimeDir != "/opt/angara/runtime" {
		t.Errorf("RuntimeDir = %q", cfg.RuntimeDir)
	}
	if cfg.CC != "clang" {
		t.Errorf("CC = %q", cfg.CC)
	}
	if len(cfg.ModuleSearchPaths) != 1 || cfg.ModuleSearchPaths[0] != "/opt/angara/vendor" {
		t.Errorf("ModuleSearchPaths = %v", cfg.ModuleSearchPaths)
	}
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}
	if cfg.CC != "gcc" {
		t.Errorf("CC = %q, want default", cfg.CC)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ANGARA_RUNTIME_DIR", "/env/runtime")
	t.Setenv("ANGARA_CC", "tcc")
	t.Setenv("ANGARA_MODULE_PATH", "/env/a"+string(os.PathListSeparator)+"/env/b")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RuntimeDir != "/env/runtime" {
		t.Errorf("RuntimeDir = %q", cfg.RuntimeDir)
	}
	if cfg.CC != "tcc" {
		t.Errorf("CC = %q", cfg.CC)
	}
	if len(cfg.ModuleSearchPaths) != 2 {
		t.Errorf("ModuleSearchPaths = %v", cfg.ModuleSearchPaths)
	}
}

func TestResolveConfigPathOrder(t *testing.T) {
	if got := ResolveConfigPath("/flag/path.yaml"); got != "/flag/path.yaml" {
		t.Errorf("flag must win: %q", got)
	}
	t.Setenv("ANGARAC_CONFIG", "/env/path.yaml")
	if got := ResolveConfigPath(""); got != "/env/path.yaml" {
		t.Errorf("env must be second: %q", got)
	}
	os.Unsetenv("ANGARAC_CONFIG")
	if got := ResolveConfigPath(""); got != "angarac.yaml" {
		t.Errorf("cwd default must be last: %q", got)
	}
}
