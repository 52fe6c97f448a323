package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/chameleon-db/chameleondb/integrity/pkg/engine"
)

// FileName is the project configuration file looked up in the work dir
const FileName = ".integrity.yml"

// ErrNotFound is returned by Load when the work dir has no config file
var ErrNotFound = errors.New("config file not found")

// Config is the content of .integrity.yml
type Config struct {
	Version  string         `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type DatabaseConfig struct {
	Driver            string `yaml:"driver"`
	ConnectionString  string `yaml:"connection_string"`
	MaxConnections    int32  `yaml:"max_connections"`
	MinConnections    int32  `yaml:"min_connections"`
	ConnectionTimeout int    `yaml:"connection_timeout"` // seconds
	// Namespace is the PostgreSQL schema holding the tables
	Namespace string `yaml:"namespace"`
}

type SchemaConfig struct {
	// Path is the JSON or YAML entity schema, relative to the work dir
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the configuration used when no file exists
func Defaults() *Config {
	return &Config{
		Version: "1",
		Database: DatabaseConfig{
			Driver:            "postgresql",
			ConnectionString:  "postgresql://postgres@localhost:5432/postgres?sslmode=disable",
			MaxConnections:    10,
			MinConnections:    2,
			ConnectionTimeout: 30,
			Namespace:         "public",
		},
		Schema: SchemaConfig{
			Path: "schema.yml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Loader reads .integrity.yml and .env from a work dir
type Loader struct {
	workDir  string
	filePath string
}

func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir:  workDir,
		filePath: filepath.Join(workDir, FileName),
	}
}

// WithFile makes the loader read path instead of <workDir>/.integrity.yml
func (l *Loader) WithFile(path string) *Loader {
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.workDir, path)
		}
		l.filePath = path
	}
	return l
}

// Load reads the config file. Variables from <workDir>/.env are loaded
// first without overriding the environment, ${VAR} references in the file
// are expanded, and DATABASE_URL, when set, replaces the connection string.
func (l *Loader) Load() (*Config, error) {
	l.loadDotEnv()

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, l.filePath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", l.filePath, err)
	}

	l.finish(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to Defaults when the file is missing
func (l *Loader) LoadOrDefault() (*Config, error) {
	cfg, err := l.Load()
	if errors.Is(err, ErrNotFound) {
		cfg = Defaults()
		l.finish(cfg)
		return cfg, nil
	}
	return cfg, err
}

func (l *Loader) loadDotEnv() {
	envPath := filepath.Join(l.workDir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		engine.Logger().Warn().Err(err).Str("path", envPath).Msg("failed to load .env")
	}
}

// finish applies the environment override and resolves relative paths
func (l *Loader) finish(cfg *Config) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.ConnectionString = url
	}
	if cfg.Schema.Path != "" && !filepath.IsAbs(cfg.Schema.Path) {
		cfg.Schema.Path = filepath.Join(l.workDir, cfg.Schema.Path)
	}
}

// Validate checks the fields a command needs before it can run
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "postgresql", "postgres", "":
	default:
		return fmt.Errorf("unsupported database driver '%s': only postgresql is supported", c.Database.Driver)
	}
	if c.Database.MaxConnections < 0 || c.Database.MinConnections < 0 {
		return fmt.Errorf("connection limits must not be negative")
	}
	if c.Database.MaxConnections > 0 && c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("min_connections (%d) exceeds max_connections (%d)", c.Database.MinConnections, c.Database.MaxConnections)
	}
	return nil
}

// ConnectorConfig converts the database section into engine settings
func (c *Config) ConnectorConfig() (engine.ConnectorConfig, error) {
	conn, err := engine.ParseConnectionString(c.Database.ConnectionString)
	if err != nil {
		return engine.ConnectorConfig{}, fmt.Errorf("invalid connection_string: %w", err)
	}
	if c.Database.MaxConnections > 0 {
		conn.MaxConns = c.Database.MaxConnections
	}
	if c.Database.MinConnections > 0 {
		conn.MinConns = c.Database.MinConnections
	}
	return conn, nil
}

// Timeout returns the connection timeout, defaulting to 30 seconds
func (c *Config) Timeout() time.Duration {
	if c.Database.ConnectionTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Database.ConnectionTimeout) * time.Second
}
