// Package config loads remoteui settings from defaults, an optional YAML
// file, REMOTEUI_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override (REMOTEUI_LOG_LEVEL).
const EnvPrefix = "REMOTEUI"

// Config is the root configuration.
type Config struct {
	Addr          string        `mapstructure:"addr" yaml:"addr"`
	Scripts       string        `mapstructure:"scripts" yaml:"scripts"`
	Watch         bool          `mapstructure:"watch" yaml:"watch"`
	MCP           bool          `mapstructure:"mcp" yaml:"mcp"`
	MCPToken      string        `mapstructure:"mcp_token" yaml:"mcp_token"`
	ScriptTimeout time.Duration `mapstructure:"script_timeout" yaml:"script_timeout"`
	Log           LogConfig     `mapstructure:"log" yaml:"log"`
	Redis         RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RedisConfig configures the reload trigger. An empty Addr disables it.
type RedisConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	Channel string `mapstructure:"channel" yaml:"channel"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":           "addr",
	"scripts":        "scripts",
	"watch":          "watch",
	"mcp":            "mcp",
	"mcp-token":      "mcp_token",
	"script-timeout": "script_timeout",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"redis-addr":     "redis.addr",
	"redis-channel":  "redis.channel",
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", "127.0.0.1:5000")
	v.SetDefault("scripts", "")
	v.SetDefault("watch", false)
	v.SetDefault("mcp", false)
	v.SetDefault("mcp_token", "")
	v.SetDefault("script_timeout", 2*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", "remoteui:reload")
}

// Load builds the configuration. path may be empty; flags may be nil.
// Only flags the user actually set override file and environment values.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cannot be fixed by defaults.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.Watch && c.Scripts == "" {
		return errors.New("watch requires a scripts directory")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Log.Format)
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		return errors.New("redis.channel must not be empty when redis.addr is set")
	}
	return nil
}

// Redacted replaces secret values in printed configuration.
const Redacted = "<redacted>"

// Write prints the configuration as YAML with secrets redacted.
func (c *Config) Write(w io.Writer) error {
	out := *c
	if out.MCPToken != "" {
		out.MCPToken = Redacted
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return err
	}
	return enc.Close()
}
