// Package config loads glyphsim settings from defaults, an optional config
// file, an optional .env file, GLYPHSIM_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "GLYPHSIM"

// Defaults.
const (
	DefaultCutoff   = 50
	DefaultThreads  = 4
	DefaultLogLevel = "info"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Redis configures the optional Redis publisher. An empty Addr disables it.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Config is the full set of settings.
type Config struct {
	Decomp      string `mapstructure:"decomp"`
	Radicals    string `mapstructure:"radicals"`
	Equivalence string `mapstructure:"equivalence"`
	TestCases   string `mapstructure:"testcases"`
	Output      string `mapstructure:"output"`

	Cutoff         int  `mapstructure:"cutoff"`
	Threads        int  `mapstructure:"threads"`
	UseEquivalence bool `mapstructure:"use_equivalence"`
	UseIndex       bool `mapstructure:"use_index"`
	Normalize      bool `mapstructure:"normalize"`

	// Store is a SQLite DSN; empty disables run persistence.
	Store string `mapstructure:"store"`
	Redis Redis  `mapstructure:"redis"`

	LogLevel string `mapstructure:"log_level"`
	Progress bool   `mapstructure:"progress"`
}

// SetDefaults registers every key with its default so that environment
// variables are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("decomp", "")
	v.SetDefault("radicals", "")
	v.SetDefault("equivalence", "")
	v.SetDefault("testcases", "")
	v.SetDefault("output", "")
	v.SetDefault("cutoff", DefaultCutoff)
	v.SetDefault("threads", DefaultThreads)
	v.SetDefault("use_equivalence", false)
	v.SetDefault("use_index", false)
	v.SetDefault("normalize", false)
	v.SetDefault("store", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "glyphsim")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("progress", true)
}

// Load reads configuration into a Config. configFile and envFile are
// optional; a missing envFile is ignored, a missing configFile is not.
// Flags must already be bound to v.
func Load(v *viper.Viper, configFile, envFile string) (Config, error) {
	var cfg Config
	SetDefaults(v)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings needed by command ("create" or "evaluate").
func (c Config) Validate(command string) error {
	var errs []error
	if c.Cutoff < 1 {
		errs = append(errs, fmt.Errorf("%w: cutoff must be positive, got %d", ErrInvalid, c.Cutoff))
	}
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("%w: threads must be positive, got %d", ErrInvalid, c.Threads))
	}
	required := map[string]string{"decomp": c.Decomp, "radicals": c.Radicals}
	switch command {
	case "create":
		required["output"] = c.Output
	case "evaluate":
		required["testcases"] = c.TestCases
	}
	if c.UseEquivalence {
		required["equivalence"] = c.Equivalence
	}
	for _, key := range []string{"decomp", "radicals", "output", "testcases", "equivalence"} {
		if v, ok := required[key]; ok && strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrInvalid, key))
		}
	}
	return errors.Join(errs...)
}
