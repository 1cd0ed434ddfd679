// Package config loads runtime configuration for the chat client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables (see parseEnv), optionally from a .env file.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   base URL of the remote message store
//	-u string   username
//	-i int      poll interval (seconds)
//	-w string   render bridge listen address
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "2s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://localhost:3000",
//	  "username": "alice",
//	  "poll_interval": "2s",
//	  "identity_refresh_interval": "5s",
//	  "web_listen_addr": "127.0.0.1:8080"
//	}
package config
