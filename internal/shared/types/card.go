package types

import (
	"fmt"
	"strings"
	"time"
)

// CardType is the closed set of card kinds the engine knows how to host
type CardType uint8

const (
	CardChat CardType = iota + 1
	CardSettings
	CardProfileManager
	CardProjectManager
	CardSubagentManager
	CardImageStudio
	CardVideoStudio
	CardModelStudio
	CardSpeechStudio
	CardTerminal
	CardFileBrowser
	CardPluginManager
	CardGit
)

var cardTypeNames = map[CardType]string{
	CardChat:            "chat",
	CardSettings:        "settings",
	CardProfileManager:  "profile_manager",
	CardProjectManager:  "project_manager",
	CardSubagentManager: "subagent_manager",
	CardImageStudio:     "image_studio",
	CardVideoStudio:     "video_studio",
	CardModelStudio:     "model_studio",
	CardSpeechStudio:    "speech_studio",
	CardTerminal:        "terminal",
	CardFileBrowser:     "file_browser",
	CardPluginManager:   "plugin_manager",
	CardGit:             "git",
}

// AllCardTypes returns every card kind in declaration order
func AllCardTypes() []CardType {
	all := make([]CardType, 0, len(cardTypeNames))
	for t := CardChat; t <= CardGit; t++ {
		all = append(all, t)
	}
	return all
}

// String returns the wire name of the card type
func (t CardType) String() string {
	if name, ok := cardTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("card_type(%d)", uint8(t))
}

// Valid reports whether t is one of the declared kinds
func (t CardType) Valid() bool {
	_, ok := cardTypeNames[t]
	return ok
}

// ParseCardType converts a wire name into a CardType.
// "conversation" is accepted as an alias for chat.
func ParseCardType(s string) (CardType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "conversation" {
		return CardChat, nil
	}
	for t, n := range cardTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown card type %q", s)
}

// MarshalText encodes the card type as its wire name
func (t CardType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid card type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a wire name
func (t *CardType) UnmarshalText(text []byte) error {
	parsed, err := ParseCardType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// LayoutMode selects the arrangement strategy of the workspace
type LayoutMode string

const (
	ModeFreeform   LayoutMode = "freeform"
	ModeTile       LayoutMode = "tile"
	ModeSideBySide LayoutMode = "sidebyside"
	ModeStack      LayoutMode = "stack"
	ModeFocus      LayoutMode = "focus"
)

// ParseLayoutMode validates a layout mode string
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch m := LayoutMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeFreeform, ModeTile, ModeSideBySide, ModeStack, ModeFocus:
		return m, nil
	default:
		return "", fmt.Errorf("unknown layout mode %q", s)
	}
}

// IsGrid reports whether the mode orders cards into slots
func (m LayoutMode) IsGrid() bool {
	return m == ModeTile || m == ModeSideBySide || m == ModeStack
}

// Bounds is the size of the workspace viewport
type Bounds struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect returns the bounds as a rectangle anchored at the origin
func (b Bounds) Rect() Rect {
	return Rect{Width: b.Width, Height: b.Height}
}

// Valid reports whether both dimensions are positive
func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0
}

// Size is a width/height pair
type Size struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// Rect is a position and size in workspace coordinates
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

// Contains reports whether the point lies inside the rectangle
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Within reports whether the rectangle lies fully inside b
func (r Rect) Within(b Bounds) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= b.Width && r.Y+r.Height <= b.Height
}

// Geometry is a card rectangle plus its stacking order
type Geometry struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	ZIndex uint64 `json:"z_index"`
}

// Rect drops the stacking order
func (g Geometry) Rect() Rect {
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

// WithRect replaces position and size, keeping the z-index
func (g Geometry) WithRect(r Rect) Geometry {
	return Geometry{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height, ZIndex: g.ZIndex}
}

// Card is a movable, resizable panel in the workspace
type Card struct {
	ID              string                 `json:"id"`
	Type            CardType               `json:"type"`
	Title           string                 `json:"title"`
	Geometry        Geometry               `json:"geometry"`
	Minimized       bool                   `json:"minimized"`
	Maximized       bool                   `json:"maximized"`
	Focused         bool                   `json:"focused"`
	RestoreGeometry *Rect                  `json:"restore_geometry,omitempty"`
	DataRef         string                 `json:"data_ref,omitempty"`
	Meta            map[string]interface{} `json:"meta"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Clone returns a deep copy so callers cannot mutate store state
func (c *Card) Clone() *Card {
	cp := *c
	if c.RestoreGeometry != nil {
		r := *c.RestoreGeometry
		cp.RestoreGeometry = &r
	}
	cp.Meta = make(map[string]interface{}, len(c.Meta))
	for k, v := range c.Meta {
		cp.Meta[k] = v
	}
	return &cp
}

// Visible reports whether the card takes part in layout
func (c *Card) Visible() bool {
	return !c.Minimized
}
