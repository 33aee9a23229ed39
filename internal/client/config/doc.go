// Package config loads runtime configuration for the contacts CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-mode string  local or remote
//	-d string     SQLite file used in local mode
//	-a string     address:port of the gRPC endpoint used in remote mode
//	-n int        prefix query limit per key
//	-v string     log level
//	-f string     federation secret
//	-s string     local token secret
//	-t int        request timeout (seconds)
//
// # JSON schema
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "mode": "remote",
//	  "database_dsn": "contacts.db",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "prefix_limit": 10,
//	  "log_level": "info",
//	  "federation_secret": "federationSecret",
//	  "token_secret": "localSecret",
//	  "access_token_validity_duration": "24h",
//	  "request_timeout": "12s"
//	}
package config
