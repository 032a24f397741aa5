// Package config loads, normalizes, and validates shelver configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SHELVER_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need, so download clients, remote path mappings, matching thresholds
// and notification settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
