// Package ws pushes live workspace state to clients over WebSocket.
//
// A connection is bound to one device workspace, identified by the
// X-User-ID / X-Device-ID headers or the user and device query parameters.
// Every store change schedules a snapshot; bursts of changes coalesce into
// a single push.
//
// Message Types (Client → Server):
//   - visible: The client regained visibility; pull the user's record
//   - snapshot: Request the current snapshot
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Welcome message with the connection id
//   - snapshot: Full workspace snapshot
//   - sync: Result of a pull
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(hub, metrics, logger.Component("ws"))
//	router.GET("/stream", middleware.Identity(), handler.HandleConnection)
package ws
