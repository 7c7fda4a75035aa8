// Package config provides 12-factor configuration management for the cardspace server.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Storage: Layout record backend (memory, sqlite, redis, remote)
//   - Workspace: Save debounce, catalog overrides, default viewport
//   - Providers: Card content webhook
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - STORAGE_DRIVER, SQLITE_PATH, REDIS_ADDR, REMOTE_URL, STORAGE_TIMEOUT
//   - SAVE_DEBOUNCE, CATALOG_FILE, DEFAULT_WIDTH, DEFAULT_HEIGHT, REDUCED_MOTION
//   - PROVIDER_WEBHOOK_URL, PROVIDER_WEBHOOK_TIMEOUT
package config
