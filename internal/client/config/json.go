package config

import (
	"encoding/json"
	"os"
	"time"

	"pollchat/internal/flagx"
	"pollchat/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "2s" or
// as integer nanoseconds. After parsing, values are copied into the runtime
// Config (which uses time.Duration).
type JsonConfig struct {
	ServerBaseURL           string         `json:"server_base_url"`
	Username                string         `json:"username"`
	PollInterval            timex.Duration `json:"poll_interval"`
	IdentityRefreshInterval timex.Duration `json:"identity_refresh_interval"`
	WebListenAddr           string         `json:"web_listen_addr"`
}

// parseJson overlays Config with values loaded from a JSON file. The file path
// comes from the -c or -config flags; when neither is set, nothing is loaded.
// Only fields present in the file override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.Username != "" {
		cfg.Username = jc.Username
	}
	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = time.Duration(jc.PollInterval.Duration)
	}
	if jc.IdentityRefreshInterval.Duration != 0 {
		cfg.IdentityRefreshInterval = time.Duration(jc.IdentityRefreshInterval.Duration)
	}
	if jc.WebListenAddr != "" {
		cfg.WebListenAddr = jc.WebListenAddr
	}
}
