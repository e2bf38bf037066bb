package config

import (
	"github.com/garyjia/travel-voucher/internal/container"
)

// ToContainerConfig converts the file-based Config into the container's
// configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Mileage: container.MileageConfig{
			GoogleMapsAPIKey: c.Mileage.GoogleMapsAPIKey,
			LookupTimeout:    c.Mileage.LookupTimeout,
			DefaultRate:      c.DefaultMileageRate(),
		},
		Lark: container.LarkConfig{
			AppID:      c.Lark.AppID,
			AppSecret:  c.Lark.AppSecret,
			BaseURL:    c.Lark.BaseURL,
			APITimeout: c.Lark.APITimeout,
		},
		Export: container.ExportConfig{
			Organization: c.Export.Organization,
		},
	}
}
