// Package config loads, normalizes, and validates pageforge configuration
// from TOML with sensible defaults for every field.
package config
