// Package logging provides structured logging for growdeck.
//
// This package wraps zap with convenience functions for the logging
// patterns used throughout the panel and CLI. Logging is silent by
// default so it never corrupts the terminal UI; it is enabled through
// environment variables.
//
// # Configuration
//
// Set GROWDECK_LOG_LEVEL (debug, info, warn, error) to enable logging
// and GROWDECK_LOG_FILE to redirect output to a file instead of stderr.
// Redirecting to a file is the usual setup while the panel is running:
//
//	GROWDECK_LOG_LEVEL=debug GROWDECK_LOG_FILE=/tmp/growdeck.log growdeck
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Authenticated with Home Assistant",
//	    zap.String("version", "2026.8.1"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogCommand(id, "config/device_registry/list", elapsed, err)
//	logging.LogRefresh(seq, chamberCount, elapsed)
//	logging.LogConfigPatch(entryID, keyCount)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
