// Package middleware provides the HTTP middleware of the cardspace server.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting with idle eviction
//   - RequestID: Request correlation id, echoed in X-Request-ID
//   - Identity: X-User-ID / X-Device-ID extraction for workspace routes
//
// Example Usage:
//
//	router.Use(middleware.RequestID())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	ws := router.Group("/workspace", middleware.Identity())
package middleware
