// Package config handles configuration for the device CLI, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the CENKeeper device CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the disclosure server.
//   - DatabasePath: device-local SQLite database file.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - MatchLookback: how far back a disclosed key may explain observations.
//   - KeyRotationInterval: how often the device's rolling key is rotated.
//   - OwnKeyCount: how many recent own keys accompany an outbound report.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	MatchLookback       time.Duration
	KeyRotationInterval time.Duration
	OwnKeyCount         int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "cenkeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.MatchLookback = 14 * 24 * time.Hour
	c.KeyRotationInterval = 24 * time.Hour
	c.OwnKeyCount = 3
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
