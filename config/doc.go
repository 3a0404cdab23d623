// Package config loads and validates the veriseal configuration from
// defaults, config files, environment variables, and CLI flags.
package config
