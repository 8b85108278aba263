package storage

import (
	"fmt"
	"strings"
)

const (
	// DriverFile keeps the document in a local JSON file.
	DriverFile = "file"
	// DriverPostgres keeps the document in a single jsonb row.
	DriverPostgres = "postgres"
	// DriverRedis keeps the document under a single redis key.
	DriverRedis = "redis"
)

// Config selects and configures the document backend.
type Config struct {
	Driver   string         `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	Path     string         `yaml:"path" envconfig:"STORAGE_PATH"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved against the working directory when relative.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
	// Document names the row holding the bot document.
	Document string `yaml:"document" envconfig:"DB_DOCUMENT"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	URL string `yaml:"url" envconfig:"REDIS_URL"`
	Key string `yaml:"key" envconfig:"REDIS_KEY"`
}

// DefaultPath is the document file used when the file driver has no path.
const DefaultPath = "data.json"

// Normalize lowercases the driver, fills defaults and checks that the
// selected driver's block is usable.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverFile
	}
	switch c.Driver {
	case DriverFile:
		if strings.TrimSpace(c.Path) == "" {
			c.Path = DefaultPath
		}
	case DriverPostgres:
		pg := c.Postgres
		if pg.Host == "" || pg.Port == "" || pg.User == "" || pg.Name == "" {
			return fmt.Errorf("storage.postgres requires host, port, user and name")
		}
		if pg.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
	case DriverRedis:
		if strings.TrimSpace(c.Redis.URL) == "" {
			return fmt.Errorf("storage.redis.url is required")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, postgres, redis", c.Driver)
	}
	return nil
}
