package config

import "time"

// Config holds runtime settings for the chat client.
//
// Fields:
//   - ServerBaseURL: base URL of the remote message store.
//   - Username: account used for login and message attribution.
//   - PollInterval: cadence of the message sync loop.
//   - IdentityRefreshInterval: how often friends and groups are re-fetched.
//   - WebListenAddr: loopback address of the render bridge.
//
// Units: intervals are time.Duration values (e.g., 2*time.Second).
type Config struct {
	ServerBaseURL           string
	Username                string
	PollInterval            time.Duration
	IdentityRefreshInterval time.Duration
	WebListenAddr           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:3000"
	c.PollInterval = 2 * time.Second
	c.IdentityRefreshInterval = 5 * time.Second
	c.WebListenAddr = "127.0.0.1:8080"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
