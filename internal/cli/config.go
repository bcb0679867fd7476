package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "LISTQUERY"

// Config holds the settings shared by all commands. Values come from flags,
// then LISTQUERY_* environment variables, then defaults.
type Config struct {
	Catalog    string        `mapstructure:"catalog"`
	DB         string        `mapstructure:"db"`
	Seed       int           `mapstructure:"seed"`
	Addr       string        `mapstructure:"addr"`
	RedisAddr  string        `mapstructure:"redis-addr"`
	CacheTTL   time.Duration `mapstructure:"cache-ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
	AdminToken string        `mapstructure:"admin-token"`
	LogLevel   string        `mapstructure:"log-level"`
	Reject     bool          `mapstructure:"reject-invalid"`
}

func addConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("catalog", "", "resource catalog file (.yaml, .yml or .json); the built-in demo catalog when empty")
	flags.String("db", ":memory:", "SQLite database path")
	flags.Int("seed", 50, "demo records to seed per resource into empty tables of the built-in catalog (0 disables seeding)")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("redis-addr", "", "Redis address for the result cache; caching is off when empty")
	flags.Duration("cache-ttl", 30*time.Second, "lifetime of cached results")
	flags.Duration("timeout", 5*time.Second, "per-query store timeout")
	flags.String("admin-token", "", "X-Admin-Token value granting admin access")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("reject-invalid", false, "reject requests with malformed filter values instead of dropping the clause")
}

// loadConfig resolves the configuration for cmd.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Seed < 0 {
		return nil, fmt.Errorf("seed must not be negative, got %d", cfg.Seed)
	}
	return &cfg, nil
}
