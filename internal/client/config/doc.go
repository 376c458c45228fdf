// Package config loads runtime configuration for the uploader CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds. Keys that are absent keep their default:
//
//	{
//	  "database_path": "uploader.db",
//	  "transport": "s3",
//	  "s3_bucket": "permaweb",
//	  "s3_base_endpoint": "http://127.0.0.1:9000/",
//	  "federated_login": true,
//	  "passphrase_mode": "identity",
//	  "connect_timeout": "10s"
//	}
//
// The package does not read environment variables.
package config
