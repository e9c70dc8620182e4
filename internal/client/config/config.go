// Package config assembles the storefront client's runtime settings from
// layered sources: built-in defaults, an optional JSON file, environment
// variables, and command-line flags. Later sources win.
package config

import "time"

// Config holds runtime settings for the storefront client.
//
// RequestTimeout applies to individual backend requests; the boot-time
// session restore is issued without one and must be allowed to resolve.
type Config struct {
	BackendAddr    string        `env:"GAMESHELF_BACKEND_ADDR"`
	APIKey         string        `env:"GAMESHELF_API_KEY"`
	DatabasePath   string        `env:"GAMESHELF_DB_PATH"`
	LogFile        string        `env:"GAMESHELF_LOG_FILE"`
	RequestTimeout time.Duration `env:"GAMESHELF_REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendAddr = "http://127.0.0.1:54321"
	c.APIKey = ""
	c.DatabasePath = "gameshelf.db"
	c.LogFile = "gameshelf.log"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config: defaults, then JSON file (if given), then
// environment, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
