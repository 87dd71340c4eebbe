/*
Package config loads process configuration.

SOURCES (later wins):
  1. Built-in defaults
  2. .env in the working directory, if present (exported into the environment)
  3. The YAML/JSON/TOML file named by PAYROLL_CONFIG_FILE, if set
  4. PAYROLL_* environment variables, e.g. PAYROLL_SERVER_PORT,
     PAYROLL_PAYROLL_OT_CAP_HOURS

SEE ALSO:
  - cmd/server/main.go: Consumes Config
*/
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Payroll  PayrollConfig  `mapstructure:"payroll"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path is the SQLite file; ":memory:" keeps everything in process.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// PayrollConfig holds the engine knobs. Statutory rate tables live in a
// separate JSON file (RateTablesFile) parsed by the factory package.
type PayrollConfig struct {
	OTCapHours          float64  `mapstructure:"ot_cap_hours"`
	StandardShiftHours  float64  `mapstructure:"standard_shift_hours"`
	FallbackWorkingDays int      `mapstructure:"fallback_working_days"`
	BulkConcurrency     int      `mapstructure:"bulk_concurrency"`
	BulkCommunityFund   string   `mapstructure:"bulk_community_fund"`
	SingleCommunityFund string   `mapstructure:"single_community_fund"`
	CommunityFundRate   float64  `mapstructure:"community_fund_rate"`
	RateTablesFile      string   `mapstructure:"rate_tables_file"`
	RestDays            []string `mapstructure:"rest_days"`
	RestoreCapAtLimit   bool     `mapstructure:"restore_cap_at_limit"`
}

const envPrefix = "PAYROLL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("database.path", "payroll.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("payroll.ot_cap_hours", 72)
	v.SetDefault("payroll.standard_shift_hours", 8)
	v.SetDefault("payroll.fallback_working_days", 22)
	v.SetDefault("payroll.bulk_concurrency", 8)
	v.SetDefault("payroll.bulk_community_fund", "flat")
	v.SetDefault("payroll.single_community_fund", "table")
	v.SetDefault("payroll.community_fund_rate", 3)
	v.SetDefault("payroll.rate_tables_file", "")
	v.SetDefault("payroll.rest_days", []string{"sunday"})
	v.SetDefault("payroll.restore_cap_at_limit", false)
}

// Load reads configuration from defaults, .env, an optional file and the
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(viper.New(), os.Getenv(envPrefix+"_CONFIG_FILE"))
}

func load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	p := c.Payroll
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	case c.Database.Path == "":
		return fmt.Errorf("database.path is required")
	case p.OTCapHours <= 0:
		return fmt.Errorf("payroll.ot_cap_hours must be positive")
	case p.StandardShiftHours <= 0:
		return fmt.Errorf("payroll.standard_shift_hours must be positive")
	case p.FallbackWorkingDays <= 0:
		return fmt.Errorf("payroll.fallback_working_days must be positive")
	case p.BulkConcurrency <= 0:
		return fmt.Errorf("payroll.bulk_concurrency must be positive")
	case p.CommunityFundRate < 0:
		return fmt.Errorf("payroll.community_fund_rate cannot be negative")
	}
	return nil
}
