// Package server assembles the cardspace HTTP service: storage backend,
// catalog, workspace hub, middleware and routes.
//
// Lifecycle:
//   - NewServer opens storage and loads catalog overrides
//   - Run serves until its context is cancelled, watching the catalog file
//     and backend change notices in the background
//   - Close flushes every open workspace before releasing storage
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.Run(ctx)
package server
