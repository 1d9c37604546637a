// Package config loads greenlens settings from defaults, a global config
// file, a repository config file, the environment and command-line
// overrides, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sprite-ai/greenlens/internal/analysis"
)

// RepoConfigName is the repository-level config file.
const RepoConfigName = ".greenlens.toml"

// Config is the effective configuration.
type Config struct {
	Python       string
	Script       string
	Timeout      time.Duration
	Policy       string
	CacheEnabled bool
	CacheDir     string
	LogLevel     string
	Listen       string
}

// Overrides holds values set on the command line. Nil fields are unset.
type Overrides struct {
	Python       *string
	Script       *string
	Timeout      *time.Duration
	Policy       *string
	CacheEnabled *bool
	CacheDir     *string
	LogLevel     *string
	Listen       *string
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// RepoRoot is searched for .greenlens.toml. Empty skips the repo file.
	RepoRoot string
	// GlobalConfigPath overrides the XDG location. Empty uses the default.
	GlobalConfigPath string
	// ConfigPath, when set, is read in place of the repo file and must exist.
	ConfigPath string
	// Env is a list of KEY=VALUE pairs. Nil reads os.Environ().
	Env       []string
	Overrides *Overrides
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Python:       "python",
		Script:       "main.py",
		Timeout:      2 * time.Minute,
		Policy:       analysis.FirstMatch.Name(),
		CacheEnabled: true,
		LogLevel:     "info",
		Listen:       "127.0.0.1:6142",
	}
}

// DefaultGlobalConfigPath returns $XDG_CONFIG_HOME/greenlens/config.toml,
// falling back to ~/.config.
func DefaultGlobalConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "greenlens", "config.toml")
}

// Load builds the effective configuration.
func Load(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()

	global := opts.GlobalConfigPath
	if global == "" {
		global = DefaultGlobalConfigPath()
	}
	if global != "" {
		if err := mergeFile(&cfg, global, false); err != nil {
			return nil, err
		}
	}

	switch {
	case opts.ConfigPath != "":
		if err := mergeFile(&cfg, opts.ConfigPath, true); err != nil {
			return nil, err
		}
	case opts.RepoRoot != "":
		if err := mergeFile(&cfg, filepath.Join(opts.RepoRoot, RepoConfigName), false); err != nil {
			return nil, err
		}
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}
	if err := applyEnv(&cfg, env); err != nil {
		return nil, err
	}
	applyOverrides(&cfg, opts.Overrides)

	if _, err := analysis.PolicyByName(cfg.Policy); err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %v", cfg.Timeout)
	}
	return &cfg, nil
}

type fileConfig struct {
	Python       *string `toml:"python"`
	Script       *string `toml:"script"`
	Timeout      *string `toml:"timeout"`
	Policy       *string `toml:"policy"`
	CacheEnabled *bool   `toml:"cache_enabled"`
	CacheDir     *string `toml:"cache_dir"`
	LogLevel     *string `toml:"log_level"`
	Listen       *string `toml:"listen"`
}

func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var f fileConfig
	if _, err := toml.Decode(string(data), &f); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	if f.Python != nil {
		cfg.Python = *f.Python
	}
	if f.Script != nil {
		cfg.Script = resolveScript(*f.Script, filepath.Dir(path))
	}
	if f.Timeout != nil {
		d, err := parseDuration(*f.Timeout)
		if err != nil {
			return fmt.Errorf("config %s: timeout: %w", path, err)
		}
		cfg.Timeout = d
	}
	if f.Policy != nil {
		cfg.Policy = *f.Policy
	}
	if f.CacheEnabled != nil {
		cfg.CacheEnabled = *f.CacheEnabled
	}
	if f.CacheDir != nil {
		cfg.CacheDir = *f.CacheDir
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if f.Listen != nil {
		cfg.Listen = *f.Listen
	}
	return nil
}

// Relative script paths in a config file are relative to that file.
func resolveScript(script, dir string) string {
	if script == "" || filepath.IsAbs(script) {
		return script
	}
	return filepath.Join(dir, script)
}

// parseDuration accepts Go durations ("90s", "2m") or integer seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return time.Duration(n) * time.Second, nil
}

const (
	envPython   = "GREENLENS_PYTHON"
	envScript   = "GREENLENS_SCRIPT"
	envTimeout  = "GREENLENS_TIMEOUT"
	envPolicy   = "GREENLENS_POLICY"
	envCache    = "GREENLENS_CACHE"
	envCacheDir = "GREENLENS_CACHE_DIR"
	envLogLevel = "GREENLENS_LOG_LEVEL"
	envListen   = "GREENLENS_LISTEN"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			continue
		}
		vals[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	if v := vals[envPython]; v != "" {
		cfg.Python = v
	}
	if v := vals[envScript]; v != "" {
		cfg.Script = v
	}
	if v := vals[envTimeout]; v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := vals[envPolicy]; v != "" {
		cfg.Policy = v
	}
	if v := vals[envCache]; v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envCache, err)
		}
		cfg.CacheEnabled = b
	}
	if v := vals[envCacheDir]; v != "" {
		cfg.CacheDir = v
	}
	if v := vals[envLogLevel]; v != "" {
		cfg.LogLevel = v
	}
	if v := vals[envListen]; v != "" {
		cfg.Listen = v
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o == nil {
		return
	}
	if o.Python != nil {
		cfg.Python = *o.Python
	}
	if o.Script != nil {
		cfg.Script = *o.Script
	}
	if o.Timeout != nil {
		cfg.Timeout = *o.Timeout
	}
	if o.Policy != nil {
		cfg.Policy = *o.Policy
	}
	if o.CacheEnabled != nil {
		cfg.CacheEnabled = *o.CacheEnabled
	}
	if o.CacheDir != nil {
		cfg.CacheDir = *o.CacheDir
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	if o.Listen != nil {
		cfg.Listen = *o.Listen
	}
}
