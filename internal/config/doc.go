// Package config loads and validates application settings from defaults, an
// optional YAML file, an optional .env file and VERBDRILL_* environment
// variables.
package config
