package types

// AddCardRequest creates a card
type AddCardRequest struct {
	Type    string                 `json:"type" binding:"required"`
	Title   string                 `json:"title"`
	DataRef string                 `json:"data_ref"`
	Meta    map[string]interface{} `json:"meta"`
}

// PointRequest carries a pointer or card position
type PointRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SizeRequest carries a requested card size or viewport size
type SizeRequest struct {
	Width  int `json:"width" binding:"required"`
	Height int `json:"height" binding:"required"`
}

// ModeRequest switches the layout mode
type ModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// TitleRequest renames a card
type TitleRequest struct {
	Title string `json:"title"`
}

// MetaRequest merges card metadata
type MetaRequest struct {
	Meta map[string]interface{} `json:"meta" binding:"required"`
}

// ReorderRequest moves a card to a collection index
type ReorderRequest struct {
	Index int `json:"index"`
}

// DragBeginRequest starts a pointer drag on a card
type DragBeginRequest struct {
	CardID string `json:"card_id" binding:"required"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

// TouchRequest is a single touch sample; T is in milliseconds
type TouchRequest struct {
	X float64 `json:"x"`
	T float64 `json:"t"`
}

// JumpRequest selects a mobile index directly
type JumpRequest struct {
	Index int `json:"index"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}
