package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the environment, loading a local
// .env file first when one exists. Unset variables leave the current value
// untouched.
//
// Supported variables:
//
//	POLLCHAT_SERVER_URL      base URL of the remote message store
//	POLLCHAT_USERNAME        account name
//	POLLCHAT_POLL_INTERVAL   sync cadence, e.g. "2s"
//	POLLCHAT_WEB_ADDR        render bridge listen address
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("POLLCHAT_SERVER_URL"); v != "" {
		cfg.ServerBaseURL = v
	}
	if v := os.Getenv("POLLCHAT_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("POLLCHAT_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("POLLCHAT_WEB_ADDR"); v != "" {
		cfg.WebListenAddr = v
	}
}
