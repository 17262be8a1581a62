// Package logging provides structured logging using uber/zap.
//
// This package offers two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// All output goes to stderr. The supervisor's stdout is the tail of the
// relayed stream and must never carry anything else.
//
// Log Levels:
//   - Debug: Per-iteration relay progress, interrupted waits
//   - Info: Stage spawn and retirement
//   - Warn: Default; a successful run prints nothing
//   - Error: Fatal pipeline failures
//
// Example Usage:
//
//	logger := logging.NewDefault().Run(runID)
//	logger.Stage(2).Info("stage retired", zap.Int64("bytes", n))
//	logger.Error("pipeline failed", zap.Error(err))
package logging
