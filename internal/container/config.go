// Package container wires the travel voucher service together and manages
// its startup and shutdown order.
package container

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Mileage  MileageConfig
	Lark     LarkConfig
	Export   ExportConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MileageConfig holds distance lookup and rate settings.
type MileageConfig struct {
	// GoogleMapsAPIKey enables live lookups when set
	GoogleMapsAPIKey string
	LookupTimeout    time.Duration
	DefaultRate      decimal.Decimal
}

// LarkConfig holds Lark messaging settings.
type LarkConfig struct {
	AppID      string
	AppSecret  string
	BaseURL    string
	APITimeout time.Duration
}

// ExportConfig holds voucher export settings.
type ExportConfig struct {
	Organization string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/vouchers.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Mileage: MileageConfig{
			LookupTimeout: 5 * time.Second,
			DefaultRate:   decimal.RequireFromString("0.655"),
		},
		Lark: LarkConfig{
			APITimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if !c.Mileage.DefaultRate.IsPositive() {
		return fmt.Errorf("mileage.default_rate must be positive")
	}
	return nil
}
