package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rivet-web/rivet/internal/errors"
)

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "rivet.json"

	// DefaultPort is the default development server port.
	DefaultPort = 3000

	// DefaultHost is the default development server host.
	DefaultHost = "localhost"

	// DefaultAppDir is the default route-source directory.
	DefaultAppDir = "app"

	// DefaultCacheDirName is the default compilation cache directory.
	DefaultCacheDirName = ".cache"

	// DefaultCompilerCommand is the default external transformer binary.
	DefaultCompilerCommand = "swc"

	// DefaultCompileTimeoutSeconds is the default per-compile budget.
	DefaultCompileTimeoutSeconds = 30
)

// Config is the complete rivet.json configuration plus environment
// overrides.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// AppDir is the route-source directory, relative to the project root.
	AppDir string `json:"appDir,omitempty"`

	// Dev contains development server settings.
	Dev DevConfig `json:"dev,omitempty"`

	// Compiler contains external transformer settings.
	Compiler CompilerConfig `json:"compiler,omitempty"`

	// Cache contains compilation cache settings.
	Cache CacheConfig `json:"cache,omitempty"`

	// Build contains production build settings.
	Build BuildConfig `json:"build,omitempty"`

	// configPath stores where the config was loaded from.
	configPath string
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// DebounceMillis is the quiet period after the last file change
	// before a rebuild batch begins.
	DebounceMillis int `json:"debounceMillis,omitempty"`

	// Ignore contains extra watch-ignore patterns.
	Ignore []string `json:"ignore,omitempty"`
}

// CompilerConfig contains external transformer settings.
type CompilerConfig struct {
	// Command is the path or name of the transformer binary.
	Command string `json:"command,omitempty"`

	// TimeoutSeconds is the per-compile budget.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`

	// SourceMaps enables source map generation.
	SourceMaps bool `json:"sourceMaps,omitempty"`
}

// CacheConfig contains compilation cache settings.
type CacheConfig struct {
	// DirName is the cache directory, relative to the project root.
	DirName string `json:"dirName,omitempty"`

	// RemoteBucket is an optional S3 bucket mirroring compiled output.
	RemoteBucket string `json:"remoteBucket,omitempty"`

	// RemotePrefix is the key prefix inside RemoteBucket.
	RemotePrefix string `json:"remotePrefix,omitempty"`
}

// BuildConfig contains production build settings.
type BuildConfig struct {
	// Parallelism bounds concurrent route compiles (0 = NumCPU).
	Parallelism int `json:"parallelism,omitempty"`
}

// Load reads rivet.json from dir, merges .env and process environment
// overrides, and applies defaults. A missing rivet.json is not an error;
// defaults plus the environment apply.
func Load(dir string) (*Config, error) {
	cfg := &Config{configPath: filepath.Join(dir, ConfigFileName)}

	data, err := os.ReadFile(cfg.configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.KindFileSystem, "invalid %s: %v", ConfigFileName, err).
				WithPath(cfg.configPath)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, errors.New(errors.KindFileSystem, "reading %s: %v", ConfigFileName, err).
			WithPath(cfg.configPath)
	}

	// .env values become process env for the overrides below. Existing
	// environment always wins, hence godotenv.Load not Overload.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromWorkingDir loads configuration from the current directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.New(errors.KindFileSystem, "getting working directory: %v", err)
	}
	return Load(wd)
}

// applyEnv applies RIVET_* environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("RIVET_COMPILER_CMD"); v != "" {
		c.Compiler.Command = v
	}
	if v := os.Getenv("RIVET_COMPILE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Compiler.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("RIVET_CACHE_DIR"); v != "" {
		c.Cache.DirName = v
	}
	if v := os.Getenv("RIVET_DEV_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Dev.Port = n
		}
	}
	if v := os.Getenv("RIVET_SOURCE_MAPS"); v != "" {
		c.Compiler.SourceMaps = parseBool(v)
	}
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.AppDir == "" {
		c.AppDir = DefaultAppDir
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.DebounceMillis == 0 {
		c.Dev.DebounceMillis = 300
	}
	if c.Compiler.Command == "" {
		c.Compiler.Command = DefaultCompilerCommand
	}
	if c.Compiler.TimeoutSeconds == 0 {
		c.Compiler.TimeoutSeconds = DefaultCompileTimeoutSeconds
	}
	if c.Cache.DirName == "" {
		c.Cache.DirName = DefaultCacheDirName
	}
}

// Dir returns the project root directory.
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AppPath returns the absolute route-source directory.
func (c *Config) AppPath() string {
	return filepath.Join(c.Dir(), c.AppDir)
}

// CachePath returns the absolute cache directory.
func (c *Config) CachePath() string {
	return filepath.Join(c.Dir(), c.Cache.DirName)
}

// DevAddress returns "host:port" for the dev server listener.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the browsable dev server URL.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
