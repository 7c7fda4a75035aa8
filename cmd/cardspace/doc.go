// Package main is the entry point for the cardspace service and its tooling.
//
// Commands:
//   - serve: Run the HTTP and WebSocket service
//   - catalog: Print the effective card catalog as YAML
//   - record get|put|list: Inspect and replace stored layout records
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	cardspace serve --port 8000 --storage sqlite
//
//	# Development mode (colored logs, debug level)
//	cardspace serve --dev
//
//	# Copy a layout between servers
//	cardspace record get --remote http://a:8000 --user alice | cardspace record put --remote http://b:8000 --user alice
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
