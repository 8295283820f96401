package config

import "time"

// Config holds runtime settings for the steamhub desktop CLI.
//
// Fields:
//   - ServerURL: base URL of the storefront REST API.
//   - StateFile: path of the local SQLite file holding the device id and app token.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	StateFile      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.StateFile = "steamhub.db"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
