package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points config discovery at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("FINDASH_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithEnvFile("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, DriverSQL, cfg.Storage.Driver)
	require.Equal(t, "postgres", cfg.SQL.Dialect)
	require.Equal(t, "sandbox", cfg.Plaid.Environment)
	require.Equal(t, 5, cfg.Jobs.Workers)
	require.Len(t, cfg.Categories, 9)
	require.Equal(t, "Bill", cfg.Categories[0])
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FINDASH_SERVER_PORT", "9090")
	t.Setenv("FINDASH_SQL_DIALECT", "mysql")
	t.Setenv("FINDASH_TIMEZONE", "UTC")
	t.Setenv("FINDASH_JOBS_MAX_RETRIES", "7")

	cfg, err := LoadWithEnvFile("")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "mysql", cfg.SQL.Dialect)
	require.Equal(t, 7, cfg.Jobs.MaxRetries)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "dashboard.yaml")
	content := `
storage:
  driver: bigquery
bigquery:
  project: my-project
  dataset: dash
exports:
  bucket: exports-bucket
plaid:
  environment: development
  fallback_logos:
    ins_1: https://logos.example/ins_1.png
categories:
  - Rent
  - Food
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("FINDASH_CONFIG", path)

	cfg, err := LoadWithEnvFile("")
	require.NoError(t, err)
	require.Equal(t, DriverBigQuery, cfg.Storage.Driver)
	require.Equal(t, "my-project", cfg.BigQuery.Project)
	require.Equal(t, "dash", cfg.BigQuery.Dataset)
	require.Equal(t, "exports-bucket", cfg.Exports.Bucket)
	require.Equal(t, "https://logos.example/ins_1.png", cfg.Plaid.FallbackLogos["ins_1"])
	require.Equal(t, []string{"Rent", "Food"}, cfg.Categories)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("FINDASH_CONFIG", filepath.Join(dir, "missing.yaml"))

	_, err := LoadWithEnvFile("")
	require.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FINDASH_EXPORTS_BUCKET=from-dotenv\n"), 0o600))
	// godotenv sets the variable; make sure it does not leak into other tests.
	t.Setenv("FINDASH_EXPORTS_BUCKET", "")
	require.NoError(t, os.Unsetenv("FINDASH_EXPORTS_BUCKET"))

	cfg, err := LoadWithEnvFile(envFile)
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Exports.Bucket)

	// A missing .env file is fine.
	_, err = LoadWithEnvFile(filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage:    StorageConfig{Driver: DriverSQL},
			SQL:        SQLConfig{Dialect: "sqlite3"},
			Plaid:      PlaidConfig{Environment: "sandbox"},
			Jobs:       JobsConfig{Workers: 1},
			Timezone:   "UTC",
			Categories: []string{"Bill"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: true},
		{name: "unknown dialect", mutate: func(c *Config) { c.SQL.Dialect = "oracle" }, wantErr: true},
		{name: "bigquery without project", mutate: func(c *Config) { c.Storage.Driver = DriverBigQuery }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad plaid environment", mutate: func(c *Config) { c.Plaid.Environment = "staging" }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Jobs.Workers = 0 }, wantErr: true},
		{name: "no categories", mutate: func(c *Config) { c.Categories = nil }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
