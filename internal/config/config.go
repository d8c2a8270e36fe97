// Package config defines the inventory service configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer     config.HTTPConfig           `koanf:"server"`
	Log            config.LogConfig            `koanf:"log"`
	PProf          config.PProfConfig          `koanf:"pprof"`
	Shutdown       config.ShutdownConfig       `koanf:"shutdown"`
	Storage        config.StorageConfig        `koanf:"storage"`
	Database       config.DatabaseConfig       `koanf:"database"`
	NATS           config.NATSConfig           `koanf:"nats"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
	Telemetry      config.TelemetryConfig      `koanf:"telemetry"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Storage.String())
	if c.Storage.UsesPostgres() {
		b.WriteString(c.Database.String())
	}
	if c.NATS.Enabled() {
		b.WriteString(c.NATS.String())
		b.WriteString(c.CircuitBreaker.String())
	}
	if c.Telemetry.Enabled() {
		b.WriteString(c.Telemetry.String())
	}
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks every section. The database section is only required by the postgres store.
func (c *Config) Validate() error {
	validators := []struct {
		section string
		v       configloader.Validator
	}{
		{"server", &c.HTTPServer},
		{"log", &c.Log},
		{"pprof", &c.PProf},
		{"shutdown", &c.Shutdown},
		{"storage", &c.Storage},
		{"nats", &c.NATS},
		{"circuitbreaker", &c.CircuitBreaker},
		{"telemetry", &c.Telemetry},
	}
	for _, s := range validators {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("invalid %s configuration: %w", s.section, err)
		}
	}
	if c.Storage.UsesPostgres() {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
	}
	return nil
}
