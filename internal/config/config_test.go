package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Dev.Port != DefaultPort {
		t.Errorf("Dev.Port = %d, want %d", cfg.Dev.Port, DefaultPort)
	}
	if cfg.Dev.Host != DefaultHost {
		t.Errorf("Dev.Host = %q, want %q", cfg.Dev.Host, DefaultHost)
	}
	if cfg.Compiler.Command != DefaultCompilerCommand {
		t.Errorf("Compiler.Command = %q, want %q", cfg.Compiler.Command, DefaultCompilerCommand)
	}
	if cfg.Compiler.TimeoutSeconds != DefaultCompileTimeoutSeconds {
		t.Errorf("Compiler.TimeoutSeconds = %d", cfg.Compiler.TimeoutSeconds)
	}
	if cfg.Cache.DirName != DefaultCacheDirName {
		t.Errorf("Cache.DirName = %q", cfg.Cache.DirName)
	}
	if cfg.Compiler.SourceMaps {
		t.Error("SourceMaps should default to false")
	}
}

func TestLoad_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{
  "name": "myapp",
  "appDir": "src/app",
  "dev": {"port": 8080, "host": "0.0.0.0"},
  "compiler": {"command": "swc-custom", "timeoutSeconds": 60}
}`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Name != "myapp" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Dev.Port != 8080 {
		t.Errorf("Dev.Port = %d, want 8080", cfg.Dev.Port)
	}
	if cfg.Compiler.Command != "swc-custom" {
		t.Errorf("Compiler.Command = %q", cfg.Compiler.Command)
	}
	if cfg.AppPath() != filepath.Join(tmpDir, "src/app") {
		t.Errorf("AppPath() = %q", cfg.AppPath())
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()

	t.Setenv("RIVET_COMPILER_CMD", "/opt/swc/bin/swc")
	t.Setenv("RIVET_DEV_PORT", "4100")
	t.Setenv("RIVET_CACHE_DIR", ".rivet-cache")
	t.Setenv("RIVET_SOURCE_MAPS", "true")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Compiler.Command != "/opt/swc/bin/swc" {
		t.Errorf("Compiler.Command = %q", cfg.Compiler.Command)
	}
	if cfg.Dev.Port != 4100 {
		t.Errorf("Dev.Port = %d", cfg.Dev.Port)
	}
	if cfg.Cache.DirName != ".rivet-cache" {
		t.Errorf("Cache.DirName = %q", cfg.Cache.DirName)
	}
	if !cfg.Compiler.SourceMaps {
		t.Error("SourceMaps should be enabled by env")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("RIVET_COMPILE_TIMEOUT=45\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Ensure the process env does not already carry the variable.
	t.Setenv("RIVET_COMPILE_TIMEOUT", "")
	os.Unsetenv("RIVET_COMPILE_TIMEOUT")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Compiler.TimeoutSeconds != 45 {
		t.Errorf("TimeoutSeconds = %d, want 45", cfg.Compiler.TimeoutSeconds)
	}
}

func TestDevAddress(t *testing.T) {
	tmpDir := t.TempDir()
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.DevAddress(); got != "localhost:3000" {
		t.Errorf("DevAddress() = %q", got)
	}
	if got := cfg.DevURL(); got != "http://localhost:3000" {
		t.Errorf("DevURL() = %q", got)
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "on", " true "}
	for _, v := range truthy {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false, want true", v)
		}
	}
	falsy := []string{"", "0", "false", "no", "off", "junk"}
	for _, v := range falsy {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true, want false", v)
		}
	}
}
