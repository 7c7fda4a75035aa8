/*
Package monitoring provides Prometheus metrics for the cardspace server.

# Overview

Every Metrics value owns a private registry, so tests can build as many
servers as they like without duplicate registration panics.

Tracked:

  - HTTP requests by route template
  - card store mutations by change kind
  - open workspaces and cards
  - layout saves, save latency and pulls
  - WebSocket connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
