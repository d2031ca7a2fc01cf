// Package config provides configuration management for spotidown.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - SPOTIDOWN_* environment overrides
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Polls archive jobs every 2 seconds
//	// Keeps the 50 most recent history entries
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/settings.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//	if err := settings.ApplyEnv(); err != nil {
//	    ...
//	}
//
// Timing fields are seconds, as float64. Use the *Duration accessors to get
// time.Duration values.
package config
