package catalog

import (
	"fmt"
	"path/filepath"
)

// Type selects a catalog backend.
type Type string

const (
	TypeMemory   Type = "memory"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
	TypeBadger   Type = "badger"
)

// Config configures the catalog backend and candidate selection.
type Config struct {
	// Type is memory, sqlite, postgres or badger
	Type Type `mapstructure:"type" validate:"required,oneof=memory sqlite postgres badger" yaml:"type"`

	// BatchSize is the number of candidates fetched per purge pass
	BatchSize int `mapstructure:"batch_size" validate:"gte=1,lte=10000" yaml:"batch_size"`

	// KeepLatest preserves the newest completed run of every pipeline/stage
	KeepLatest bool `mapstructure:"keep_latest" yaml:"keep_latest"`

	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Badger   BadgerConfig   `mapstructure:"badger" yaml:"badger"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host,omitempty"`
	Port         int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database,omitempty"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode      string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full" yaml:"sslmode,omitempty"`
	SSLRootCert  string `mapstructure:"sslrootcert" yaml:"sslrootcert,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
}

// DSN returns the PostgreSQL connection string.
func (c PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += " sslmode=" + c.SSLMode
	}
	if c.SSLRootCert != "" {
		dsn += " sslrootcert=" + c.SSLRootCert
	}
	return dsn
}

// BadgerConfig contains BadgerDB-specific configuration.
type BadgerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ApplyDefaults fills missing values. Local database files default to
// stateDir.
func (c *Config) ApplyDefaults(stateDir string) {
	if c.Type == "" {
		c.Type = TypeSQLite
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}

	switch c.Type {
	case TypeSQLite:
		if c.SQLite.Path == "" {
			c.SQLite.Path = filepath.Join(stateDir, "catalog.db")
		}
	case TypeBadger:
		if c.Badger.Path == "" {
			c.Badger.Path = filepath.Join(stateDir, "catalog.badger")
		}
	case TypePostgres:
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
	}
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeMemory:
	case TypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case TypeBadger:
		if c.Badger.Path == "" {
			return fmt.Errorf("badger path is required")
		}
	case TypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported catalog type: %s", c.Type)
	}
	return nil
}
