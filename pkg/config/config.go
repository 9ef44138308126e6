// Package config loads gdlf session settings from TOML.
//
// A configuration file has four optional sections:
//
//	[policy]
//	combine   = "sum"     # sum | product
//	summarize = "min"     # min | max | sum
//	normalize = "none"    # none | sum0 | sum1
//	sparse    = "map"     # map | sorted
//
//	[runtime]
//	mode       = "graph"  # graph | tree-up | tree-down
//	workers    = 4
//	max_rounds = 100
//
//	[cache]
//	backend = "file"      # file | redis | none
//	dir     = "~/.cache/gdlf"
//	ttl     = "168h"
//	redis_addr = "localhost:6379"
//	prefix  = "gdlf:"
//
//	[log]
//	level = "info"
//
// Missing keys keep their [Default] values; unknown keys are an error.
// Command line flags override whatever the file sets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/errors"
	"github.com/kilburn/gdlfiltering/pkg/msgpass"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the full session configuration.
type Config struct {
	Policy  PolicyConfig  `toml:"policy"`
	Runtime RuntimeConfig `toml:"runtime"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// PolicyConfig selects the operators and the sparse backing.
type PolicyConfig struct {
	Combine   string `toml:"combine"`
	Summarize string `toml:"summarize"`
	Normalize string `toml:"normalize"`
	Sparse    string `toml:"sparse"`
}

// RuntimeConfig tunes message-passing runs.
type RuntimeConfig struct {
	Mode      string `toml:"mode"`
	Workers   int    `toml:"workers"`
	MaxRounds int    `toml:"max_rounds"`
}

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string ("90m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Policy: PolicyConfig{
			Combine:   "sum",
			Summarize: "min",
			Normalize: "none",
			Sparse:    "map",
		},
		Runtime: RuntimeConfig{
			Mode:      msgpass.ModeGraph.String(),
			Workers:   1,
			MaxRounds: 100,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{7 * 24 * time.Hour},
			Prefix:  "gdlf:",
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultPath is the user-level config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gdlf", "config.toml"), nil
}

// Load reads path over the defaults. An empty path loads the file at
// DefaultPath when it exists and the defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		if _, err := os.Stat(p); err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := c.PolicyValue(); err != nil {
		return err
	}
	if _, err := c.SparseRepresentation(); err != nil {
		return err
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	if c.Runtime.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "runtime.workers must be at least 1, got %d", c.Runtime.Workers)
	}
	if c.Runtime.MaxRounds < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "runtime.max_rounds must be at least 1, got %d", c.Runtime.MaxRounds)
	}
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir != "" {
			if err := errors.ValidatePath(c.Cache.Dir); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.dir")
			}
		}
	case BackendNone:
	case BackendRedis:
		if err := errors.ValidateRedisAddr(c.Cache.RedisAddr); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q (want file|redis|none)", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// PolicyValue parses the [policy] operators.
func (c *Config) PolicyValue() (costfn.Policy, error) {
	comb, err := costfn.ParseCombine(c.Policy.Combine)
	if err != nil {
		return costfn.Policy{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "policy.combine")
	}
	sum, err := costfn.ParseSummarize(c.Policy.Summarize)
	if err != nil {
		return costfn.Policy{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "policy.summarize")
	}
	norm, err := costfn.ParseNormalize(c.Policy.Normalize)
	if err != nil {
		return costfn.Policy{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "policy.normalize")
	}
	return costfn.Policy{Combine: comb, Summarize: sum, Normalize: norm}, nil
}

// SparseRepresentation parses policy.sparse. Dense is rejected: it is not
// a sparse backing.
func (c *Config) SparseRepresentation() (costfn.Representation, error) {
	r, err := costfn.ParseRepresentation(c.Policy.Sparse)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "policy.sparse")
	}
	if !r.IsSparse() {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "policy.sparse must be map or sorted, got %q", c.Policy.Sparse)
	}
	return r, nil
}

// FactoryOptions returns the costfn options implied by the configuration.
func (c *Config) FactoryOptions() ([]costfn.Option, error) {
	r, err := c.SparseRepresentation()
	if err != nil {
		return nil, err
	}
	return []costfn.Option{costfn.WithSparseRepresentation(r)}, nil
}

// Mode parses runtime.mode.
func (c *Config) Mode() (msgpass.Mode, error) {
	m, err := msgpass.ParseMode(c.Runtime.Mode)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "runtime.mode")
	}
	return m, nil
}

// RuntimeOptions returns the msgpass options implied by [runtime].
func (c *Config) RuntimeOptions(logger *log.Logger) []msgpass.Option {
	opts := []msgpass.Option{msgpass.WithWorkers(c.Runtime.Workers)}
	if logger != nil {
		opts = append(opts, msgpass.WithLogger(logger))
	}
	return opts
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}
	return lvl, nil
}

// CacheDir resolves cache.dir, falling back to the user cache directory.
// A leading "~/" expands to the home directory.
func (c *Config) CacheDir() (string, error) {
	dir := c.Cache.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("user cache dir: %w", err)
		}
		return filepath.Join(base, "gdlf"), nil
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		return filepath.Join(home, rest), nil
	}
	return dir, nil
}
