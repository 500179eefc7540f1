// Package config provides user configuration management for growdeck.
//
// This package manages a YAML-based configuration file that stores the
// Home Assistant instances the user has connected to, including their
// access tokens, plus application preferences. The configuration follows
// OS-specific conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/growdeck/config.yaml or $HOME/.config/growdeck/config.yaml
//   - macOS: $HOME/.config/growdeck/config.yaml
//   - Windows: %LOCALAPPDATA%\growdeck\config.yaml
//
// # Security
//
// The file holds long-lived Home Assistant access tokens, so it is
// written with 0600 permissions inside a 0700 directory. Tokens are
// never logged.
//
// # Usage Example
//
//	// Load the registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store a verified token; the first one becomes the default
//	registry.SetToken("http://homeassistant.local:8123", token)
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
