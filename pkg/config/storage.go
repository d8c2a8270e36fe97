package config

import (
	"fmt"
	"strings"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig selects the product store backend.
type StorageConfig struct {
	Driver      string `koanf:"driver"`
	AutoMigrate bool   `koanf:"automigrate"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  automigrate: %t\n", c.AutoMigrate))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StorageMemory
	}
	if c.Driver != StorageMemory && c.Driver != StoragePostgres {
		return fmt.Errorf("unsupported storage driver: %q", c.Driver)
	}
	return nil
}

// UsesPostgres reports whether products are kept in PostgreSQL.
func (c *StorageConfig) UsesPostgres() bool {
	return c.Driver == StoragePostgres
}
