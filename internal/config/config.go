// Package config loads the dashboard configuration from defaults, an
// optional config file, a .env file and FINDASH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverBigQuery = "bigquery"
	DriverSQL      = "sql"
)

// Config holds application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Storage    StorageConfig    `mapstructure:"storage"`
	BigQuery   BigQueryConfig   `mapstructure:"bigquery"`
	SQL        SQLConfig        `mapstructure:"sql"`
	Exports    ExportsConfig    `mapstructure:"exports"`
	Plaid      PlaidConfig      `mapstructure:"plaid"`
	Categorize CategorizeConfig `mapstructure:"categorize"`
	Jobs       JobsConfig       `mapstructure:"jobs"`
	// Timezone decides which calendar day "today" is for date filters.
	Timezone   string   `mapstructure:"timezone"`
	Categories []string `mapstructure:"categories"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// StorageConfig selects the store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// BigQueryConfig holds warehouse settings.
type BigQueryConfig struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
}

// SQLConfig holds relational database settings.
type SQLConfig struct {
	Dialect  string `mapstructure:"dialect"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Debug    bool   `mapstructure:"debug"`
}

// ExportsConfig holds CSV export settings.
type ExportsConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// PlaidConfig holds account-aggregation API settings.
type PlaidConfig struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"environment"`
	// CountryCodes are sent with institution lookups.
	CountryCodes []string `mapstructure:"country_codes"`
	// FallbackLogos maps institution IDs to logo URLs used when the API has none.
	FallbackLogos map[string]string `mapstructure:"fallback_logos"`
}

// CategorizeConfig holds category suggestion settings.
type CategorizeConfig struct {
	Model string `mapstructure:"model"`
}

// JobsConfig holds background job queue settings.
type JobsConfig struct {
	Workers    int `mapstructure:"workers"`
	Buffer     int `mapstructure:"buffer"`
	MaxRetries int `mapstructure:"max_retries"`
}

// Load reads configuration, loading ./.env first when it exists.
func Load() (Config, error) {
	return LoadWithEnvFile(".env")
}

// LoadWithEnvFile reads configuration after loading envFile into the
// environment. A missing envFile is not an error; variables that are already
// set are not overridden. Env var overrides use prefix FINDASH_.
func LoadWithEnvFile(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	cfgPath := os.Getenv("FINDASH_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "finance-dashboard"))
	}

	v.SetEnvPrefix("FINDASH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit config file must exist; the search paths are optional.
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origin", "*")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("storage.driver", DriverSQL)

	v.SetDefault("bigquery.project", "")
	v.SetDefault("bigquery.dataset", "finance")

	v.SetDefault("sql.dialect", "postgres")
	v.SetDefault("sql.host", "localhost")
	v.SetDefault("sql.port", 5432)
	v.SetDefault("sql.user", "postgres")
	v.SetDefault("sql.password", "")
	v.SetDefault("sql.name", "finance")
	v.SetDefault("sql.path", "")
	v.SetDefault("sql.debug", false)

	v.SetDefault("exports.bucket", "")

	v.SetDefault("plaid.client_id", "")
	v.SetDefault("plaid.secret", "")
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("plaid.country_codes", []string{"US"})
	v.SetDefault("plaid.fallback_logos", map[string]string{})

	v.SetDefault("categorize.model", "gemini-2.5-flash")

	v.SetDefault("jobs.workers", 5)
	v.SetDefault("jobs.buffer", 100)
	v.SetDefault("jobs.max_retries", 3)

	v.SetDefault("timezone", "Local")
	v.SetDefault("categories", []string{
		"Bill", "Gas", "Gift", "Grocery", "Miscellaneous",
		"Mortgage", "Restaurant", "Toll", "Vacation",
	})
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverBigQuery:
		if c.BigQuery.Project == "" {
			return fmt.Errorf("config: bigquery.project is required for the bigquery driver")
		}
	case DriverSQL:
		switch c.SQL.Dialect {
		case "postgres", "mysql", "sqlite3":
		default:
			return fmt.Errorf("config: unsupported sql.dialect %q", c.SQL.Dialect)
		}
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", c.Storage.Driver)
	}
	switch c.Plaid.Environment {
	case "sandbox", "development", "production":
	default:
		return fmt.Errorf("config: unsupported plaid.environment %q", c.Plaid.Environment)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Jobs.Workers < 1 {
		return fmt.Errorf("config: jobs.workers must be at least 1")
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("config: categories must not be empty")
	}
	return nil
}

// Location returns the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
