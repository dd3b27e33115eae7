package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for opsgraph-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3470"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Engine configuration
	Engine EngineConfig `yaml:"engine"`

	// Watcher configuration
	Watcher WatcherConfig `yaml:"watcher"`

	// Snapshot persistence (PostgreSQL). Optional: when Host is empty the
	// engine runs fully in-memory.
	Database DatabaseConfig `yaml:"database"`

	// Graph cache (Redis). Optional: when Host is empty the cache is skipped.
	Redis RedisConfig `yaml:"redis"`
}

// EngineConfig holds knowledge-graph engine knobs.
type EngineConfig struct {
	// DataDir is the directory holding the source tables watched for change.
	DataDir string `yaml:"data_dir" env:"ENGINE_DATA_DIR" env-default:"./data"`

	// MappingFile is the legacy relation-mapping YAML file (lower precedence
	// than the registry).
	MappingFile string `yaml:"mapping_file" env:"ENGINE_MAPPING_FILE" env-default:""`

	// VirtualEntities enables placeholder synthesis for unresolved foreign
	// keys.
	VirtualEntities bool `yaml:"virtual_entities" env:"ENGINE_VIRTUAL_ENTITIES" env-default:"true"`

	// MaxChainDepth is the hop ceiling for relationship-chain search.
	MaxChainDepth int `yaml:"max_chain_depth" env:"ENGINE_MAX_CHAIN_DEPTH" env-default:"4"`

	// MaxChains is the result ceiling for relationship-chain search.
	MaxChains int `yaml:"max_chains" env:"ENGINE_MAX_CHAINS" env-default:"20"`

	// TopK is the default fusion result count.
	TopK int `yaml:"top_k" env:"ENGINE_TOP_K" env-default:"10"`
}

// WatcherConfig holds the background file poller settings.
type WatcherConfig struct {
	Enabled         bool `yaml:"enabled" env:"WATCHER_ENABLED" env-default:"true"`
	IntervalSeconds int  `yaml:"interval_seconds" env:"WATCHER_INTERVAL_SECONDS" env-default:"30"`
}

// Interval returns the poll interval as a duration.
func (w *WatcherConfig) Interval() time.Duration {
	if w.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(w.IntervalSeconds) * time.Second
}

// DatabaseConfig holds PostgreSQL configuration for snapshot persistence.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:""`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"opsgraph"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"opsgraph_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"./migrations"`
}

// IsConfigured reports whether snapshot persistence is enabled.
func (c *DatabaseConfig) IsConfigured() bool {
	return c.Host != ""
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration for the serialized-graph cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.MaxChainDepth <= 0 {
		return fmt.Errorf("engine.max_chain_depth must be positive, got %d", c.Engine.MaxChainDepth)
	}
	if c.Engine.MaxChains <= 0 {
		return fmt.Errorf("engine.max_chains must be positive, got %d", c.Engine.MaxChains)
	}
	if c.Engine.TopK <= 0 {
		return fmt.Errorf("engine.top_k must be positive, got %d", c.Engine.TopK)
	}
	return nil
}
