// Package config handles configuration for the sync server, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Engine names accepted in DatabaseEngine.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// Config holds runtime settings for the sync server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - DatabaseEngine: "postgres" or "sqlite".
//   - DatabaseDSN: pgx DSN or SQLite path/URI, depending on the engine.
//   - MaxOpenConns: connection pool cap.
//   - OpenRegistration: whether POST /register accepts new users.
//   - MaxPageSize: hard cap on history/record page sizes requested by clients.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
type Config struct {
	EndpointAddr     string
	DatabaseEngine   string
	DatabaseDSN      string
	MaxOpenConns     int
	OpenRegistration bool
	MaxPageSize      int
	ShutdownTimeout  time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8888"
	c.DatabaseEngine = EngineSQLite
	c.DatabaseDSN = "syncd.db"
	c.MaxOpenConns = 100
	c.OpenRegistration = true
	c.MaxPageSize = 1100
	c.ShutdownTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
