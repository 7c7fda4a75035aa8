// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a plain *zap.Logger, usually from Logger.Component,
// and tests pass zap.NewNop().
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Info("Server starting", zap.String("port", "8000"))
//	hub := workspace.NewHub(workspace.Options{Logger: logger.Component("hub")})
package logging
