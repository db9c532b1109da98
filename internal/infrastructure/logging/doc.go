// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every long-lived component takes a named sub-logger (Named) so poller
// ticks, screen transitions, and backend calls are attributable in logs.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Client starting", zap.String("backend", url))
//	camLog := logger.Named("camera")
package logging
