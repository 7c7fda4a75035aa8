// Package types provides shared data structures for the cardspace backend.
//
// Core Types:
//   - Card: A movable, resizable panel with geometry and state flags
//   - CardType: Closed set of card kinds (chat, settings, studios, ...)
//   - LayoutMode: Arrangement strategy (freeform, tile, sidebyside, stack, focus)
//   - Rect, Geometry, Bounds, Size: Workspace coordinates
//   - LayoutRecord: Persisted layout of a user's workspace
//
// Request Types:
//   - AddCardRequest, PointRequest, SizeRequest: Card mutations over HTTP
//   - DragBeginRequest, TouchRequest: Pointer and touch input
//   - WSMessage: WebSocket communication
//
// Example Usage:
//
//	card := &types.Card{
//	    ID:    string(id.NewCardID()),
//	    Type:  types.CardChat,
//	    Title: "Conversation",
//	}
package types
