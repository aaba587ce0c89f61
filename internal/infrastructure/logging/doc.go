// Package logging provides the structured diagnostic stream for sqlitelib.
//
// It wraps log/slog with the fields every entry carries (service and
// version) and the handler choice made in configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard or a file path
//
// Batch statement dumps are emitted at debug level; statement failures and
// rolled-back batches at error level.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	defer logger.Close()
//	logger.Info("executor ready", "path", cfg.Database.Path)
//
// This is separate from package taglog, which is the human-readable,
// tag-prefixed log file shared by the process.
package logging
