// Package config loads liveparams settings with viper: defaults, then a YAML
// or JSON file, then LIVEPARAMS_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LIVEPARAMS_REDIS_ADDR.
const EnvPrefix = "LIVEPARAMS"

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"listen":    "listen",
	"document":  "document",
	"log-level": "log_level",
	"redis":     "redis.addr",
}

// Redis configures the Redis palette and locker. Both are disabled when Addr is empty.
type Redis struct {
	Addr    string        `mapstructure:"addr"`
	Channel string        `mapstructure:"channel"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// Config is the full application configuration.
type Config struct {
	Listen       string `mapstructure:"listen"`
	Document     string `mapstructure:"document"`
	LogLevel     string `mapstructure:"log_level"`
	MaxInputSize int    `mapstructure:"max_input_size"`
	Metrics      bool   `mapstructure:"metrics"`

	domain.Sentinels `mapstructure:",squash"`

	Redis Redis `mapstructure:"redis"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Listen:       ":8080",
		Document:     "design.yaml",
		LogLevel:     "info",
		MaxInputSize: 4096,
		Metrics:      true,
		Sentinels:    domain.DefaultSentinels(),
		Redis: Redis{
			Channel: "liveparams:panel",
			LockTTL: 30 * time.Second,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("listen", d.Listen)
	v.SetDefault("document", d.Document)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("max_input_size", d.MaxInputSize)
	v.SetDefault("metrics", d.Metrics)
	v.SetDefault("idle_command", d.Idle)
	v.SetDefault("commit_command", d.Commit)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.channel", d.Redis.Channel)
	v.SetDefault("redis.lock_ttl", d.Redis.LockTTL)
}

// Load reads path over the defaults, then applies the environment and the
// flags in FlagKeys that were set on flags (which may be nil).
// A missing file is not an error unless required is set.
func Load(path string, required bool, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
			if required || !missing {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the application cannot start with.
func (c Config) Validate() error {
	if c.Idle == "" {
		return fmt.Errorf("idle_command must not be empty")
	}
	if c.Idle == c.Commit {
		return fmt.Errorf("idle_command and commit_command must differ (both %q)", c.Idle)
	}
	if c.MaxInputSize <= 0 {
		return fmt.Errorf("max_input_size must be positive")
	}
	if c.Redis.Addr != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("redis.lock_ttl must be positive")
	}
	return nil
}
