package config

import (
	"encoding/json"
	"os"

	"github.com/shellhist/syncd/internal/flagx"
	"github.com/shellhist/syncd/internal/timex"
)

// JsonConfig is the DTO for reading JSON configuration files. It uses
// timex.Duration for interval fields, which allows parsing both string
// values such as "5s" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr     string         `json:"endpoint_addr"`
	DatabaseEngine   string         `json:"database_engine"`
	DatabaseDSN      string         `json:"database_dsn"`
	MaxOpenConns     int            `json:"max_open_conns"`
	OpenRegistration bool           `json:"open_registration"`
	MaxPageSize      int            `json:"max_page_size"`
	ShutdownTimeout  timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics — a broken config file
// is a fatal startup condition.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseEngine = c.DatabaseEngine
	config.DatabaseDSN = c.DatabaseDSN
	config.MaxOpenConns = c.MaxOpenConns
	config.OpenRegistration = c.OpenRegistration
	config.MaxPageSize = c.MaxPageSize
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
}
