// Package config provides user configuration management for dctdash.
//
// One YAML file holds the known OpenDCT servers and the persisted defaults
// for every command-line setting. The Registry type reads and writes it with
// gopkg.in/yaml.v3; LoadSettings reads the same file through viper and layers
// environment variables and flags on top.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/dctdash/config.yaml or $HOME/.config/dctdash/config.yaml
//   - macOS: $HOME/.config/dctdash/config.yaml
//   - Windows: %LOCALAPPDATA%\dctdash\config.yaml
//
// DCTDASH_CONFIG_DIR overrides the directory, and --config names a file.
//
// # Example
//
//	version: 1
//	server: basement
//	sort: name
//	lock-policy: first-arrival
//	refresh: 30s
//	servers:
//	  basement:
//	    url: http://192.168.1.20:9091/opendct
//	    source: manual
//
// # Precedence
//
// Settings resolve as flag, then DCTDASH_* environment variable (dashes
// become underscores, e.g. DCTDASH_LOCK_POLICY), then config file, then the
// built-in default.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
