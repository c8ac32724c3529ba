// Package config handles configuration loading and management for decorest.
//
// It provides functionality for:
//   - Loading configuration from .decorest.config.json or .decorestrc files
//   - Default configuration values and validation
//   - Mapping settings onto transport client options
package config
