// Package logging provides structured logging for medrecord-core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Redaction of credential and clinical attributes (password, token, diagnosis, ...)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8443)
//	logger.Error("failed to open database", "error", err)
//
// # Security
//
// Never log secrets, session tokens, passwords or clinical content. Redaction
// is a backstop, not a licence: log identifiers and action codes only.
package logging
