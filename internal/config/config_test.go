package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 5*time.Second, cfg.Mileage.LookupTimeout)
	assert.Equal(t, "0.655", cfg.DefaultMileageRate().String())
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  mode: debug
database:
  path: /tmp/vouchers-test.db
mileage:
  lookup_timeout: 2s
  default_rate: "0.67"
export:
  organization: County Roads
`)
	t.Setenv("GOOGLE_MAPS_API_KEY", "maps-key")
	t.Setenv("LARK_APP_ID", "cli_123")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("LOGGER_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/vouchers-test.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.Mileage.LookupTimeout)
	assert.Equal(t, "0.67", cfg.DefaultMileageRate().String())
	assert.Equal(t, "maps-key", cfg.Mileage.GoogleMapsAPIKey)
	assert.Equal(t, "cli_123", cfg.Lark.AppID)
	assert.Equal(t, "secret", cfg.Lark.AppSecret)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "County Roads", cfg.Export.Organization)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080, Mode: "release"},
			Database: DatabaseConfig{Path: "data/vouchers.db", MaxOpenConns: 1},
			Mileage:  MileageConfig{LookupTimeout: time.Second, DefaultRate: "0.655"},
			Logger:   LoggerConfig{Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"zero timeout", func(c *Config) { c.Mileage.LookupTimeout = 0 }, "lookup_timeout"},
		{"rate not a number", func(c *Config) { c.Mileage.DefaultRate = "abc" }, "default_rate"},
		{"negative rate", func(c *Config) { c.Mileage.DefaultRate = "-0.5" }, "default_rate"},
		{"half lark credentials", func(c *Config) { c.Lark.AppID = "cli_1" }, "lark"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Path: "data/test.db", MaxOpenConns: 3},
		Mileage:  MileageConfig{GoogleMapsAPIKey: "key", LookupTimeout: 2 * time.Second, DefaultRate: "0.67"},
		Lark:     LarkConfig{AppID: "cli_1", AppSecret: "secret"},
		Export:   ExportConfig{Organization: "Fleet Services"},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "data/test.db", cc.Database.Path)
	assert.Equal(t, 3, cc.Database.MaxOpenConns)
	assert.Equal(t, "key", cc.Mileage.GoogleMapsAPIKey)
	assert.Equal(t, "0.67", cc.Mileage.DefaultRate.String())
	assert.Equal(t, "cli_1", cc.Lark.AppID)
	assert.Equal(t, "Fleet Services", cc.Export.Organization)
	assert.NoError(t, cc.Validate())
}
