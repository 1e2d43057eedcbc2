// Package config handles configuration loading for reelsync.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults; a missing file is
// fine, Default() covers every field.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from REELSYNC_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/reelsync/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	backend:
//	  base_url: "${REELSYNC_BACKEND_URL}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	backend:
//	  request_timeout: "30s"
//	jobs:
//	  poll_interval: "10s"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Backend API:
//
//	backend:
//	  base_url: "http://localhost:3000"
//	  request_timeout: "30s"
//
// Local cache database:
//
//	database:
//	  path: "~/.local/share/reelsync/reelsync.db"
//
// Job polling:
//
//	jobs:
//	  poll_interval: "10s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
