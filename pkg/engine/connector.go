package engine

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectorConfig holds PostgreSQL connection settings
type ConnectorConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	// Pool settings
	MaxConns    int32
	MinConns    int32
	MaxIdleTime time.Duration
	// DSN is the string the config was parsed from. When set it is used as
	// is, so settings without a field here (sslrootcert, options...) survive.
	DSN string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() ConnectorConfig {
	return ConnectorConfig{
		Host:        "localhost",
		Port:        5432,
		Database:    "postgres",
		User:        "postgres",
		Password:    "",
		SSLMode:     "disable",
		MaxConns:    10,
		MinConns:    2,
		MaxIdleTime: 5 * time.Minute,
	}
}

// ConnectionString returns DSN when set, otherwise a key/value string
// built from the fields
func (c ConnectorConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		dsnValue(c.Host), c.Port, dsnValue(c.Database), dsnValue(c.User), dsnValue(c.Password), dsnValue(sslMode),
	)
}

// dsnValue quotes a key/value DSN value when it is empty or contains
// spaces, quotes or backslashes
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n'\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

var sslModeSetting = regexp.MustCompile(`(?:^|\s)sslmode\s*=\s*'?([a-z-]+)`)

// ParseConnectionString reads a URL or key/value DSN (DATABASE_URL style)
// into a ConnectorConfig with default pool settings. The original string is
// kept in DSN.
func ParseConnectionString(connStr string) (ConnectorConfig, error) {
	parsed, err := pgconn.ParseConfig(connStr)
	if err != nil {
		return ConnectorConfig{}, err
	}

	config := DefaultConfig()
	config.DSN = connStr
	config.Host = parsed.Host
	config.Port = int(parsed.Port)
	config.Database = parsed.Database
	config.User = parsed.User
	config.Password = parsed.Password
	config.SSLMode = sslModeOf(connStr)
	if config.SSLMode == "" {
		switch {
		case parsed.TLSConfig == nil:
			config.SSLMode = "disable"
		case len(parsed.Fallbacks) > 0:
			config.SSLMode = "prefer"
		default:
			config.SSLMode = "require"
		}
	}
	return config, nil
}

// sslModeOf returns the sslmode written in connStr, or "" when it only
// comes from the environment or the default
func sslModeOf(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return ""
		}
		return u.Query().Get("sslmode")
	}
	if m := sslModeSetting.FindStringSubmatch(connStr); m != nil {
		return m[1]
	}
	return ""
}

// Connector manages the PostgreSQL connection pool
type Connector struct {
	pool   *pgxpool.Pool
	config ConnectorConfig
}

// NewConnector creates a new connector (does not connect yet)
func NewConnector(config ConnectorConfig) *Connector {
	return &Connector{config: config}
}

// Connect establishes the connection pool
func (c *Connector) Connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(c.config.ConnectionString())
	if err != nil {
		return fmt.Errorf("invalid connection config: %w", err)
	}

	if c.config.MaxConns > 0 {
		poolConfig.MaxConns = c.config.MaxConns
	}
	poolConfig.MinConns = c.config.MinConns
	poolConfig.MaxConnIdleTime = c.config.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	c.pool = pool
	Logger().Debug().Str("host", c.config.Host).Int("port", c.config.Port).Str("database", c.config.Database).Msg("connection pool ready")
	return nil
}

// Pool returns the underlying connection pool
// Returns nil if not connected
func (c *Connector) Pool() *pgxpool.Pool {
	return c.pool
}

// IsConnected returns true if the pool is active
func (c *Connector) IsConnected() bool {
	return c.pool != nil
}

// Ping verifies the connection is alive
func (c *Connector) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected")
	}
	return c.pool.Ping(ctx)
}

// Begin starts a transaction on a pooled connection
func (c *Connector) Begin(ctx context.Context) (pgx.Tx, error) {
	if !c.IsConnected() {
		return nil, fmt.Errorf("not connected")
	}
	return c.pool.Begin(ctx)
}

// Close closes the connection pool
func (c *Connector) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}
