// Package config reads trilium.toml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file looked up at the vault root.
const FileName = "trilium.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRILIUM_"

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type VaultConfig struct {
	Path      string `toml:"path"`
	SystemDir string `toml:"system_dir"`
	Pattern   string `toml:"pattern"`
	MustExist bool   `toml:"must_exist"`
	ReadOnly  bool   `toml:"read_only"`
}

type RemoteConfig struct {
	URL       string   `toml:"url"`
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

type CacheConfig struct {
	MemoTTL Duration `toml:"memo_ttl"`
	Watch   bool     `toml:"watch"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Vault  VaultConfig  `toml:"vault"`
	Remote RemoteConfig `toml:"remote"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Vault:  VaultConfig{Path: "."},
		Remote: RemoteConfig{Timeout: Duration(30 * time.Second)},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return cfg, nil
}

// LoadOptional reads path if it exists and returns the defaults otherwise.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from TRILIUM_* variables.
func (c *Config) ApplyEnv() error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
		return nil
	}
	duration := func(name string, dst *Duration) error {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
		}
		return nil
	}

	str("VAULT", &c.Vault.Path)
	str("SYSTEM_DIR", &c.Vault.SystemDir)
	str("PATTERN", &c.Vault.Pattern)
	str("REMOTE_URL", &c.Remote.URL)
	str("USER_AGENT", &c.Remote.UserAgent)
	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)

	return errors.Join(
		boolean("READ_ONLY", &c.Vault.ReadOnly),
		boolean("MUST_EXIST", &c.Vault.MustExist),
		boolean("WATCH", &c.Cache.Watch),
		duration("REMOTE_TIMEOUT", &c.Remote.Timeout),
		duration("MEMO_TTL", &c.Cache.MemoTTL),
	)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.Vault.Path == "" && c.Remote.URL == "" {
		errs = append(errs, errors.New("either vault.path or remote.url must be set"))
	}
	if c.Remote.URL != "" && !strings.HasPrefix(c.Remote.URL, "http://") && !strings.HasPrefix(c.Remote.URL, "https://") {
		errs = append(errs, fmt.Errorf("remote.url must be http(s): %q", c.Remote.URL))
	}
	if c.Remote.Timeout < 0 || c.Cache.MemoTTL < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Source is the URI a repository should be opened from: the remote URL
// when set, the vault path otherwise.
func (c *Config) Source() string {
	if c.Remote.URL != "" {
		return c.Remote.URL
	}
	return c.Vault.Path
}

// ParseLevel maps a level name to slog. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
