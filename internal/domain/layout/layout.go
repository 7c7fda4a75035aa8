// Package layout computes where every card is drawn for a given layout mode.
//
// Compute is pure: the same mode, card order, bounds and focused card always
// produce the same placements, so switching modes back and forth is stable.
package layout

import (
	"math"

	"github.com/GriffinCanCode/cardspace/internal/domain/geometry"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// Role describes how a card takes part in the current layout
type Role string

const (
	RoleWindow    Role = "window"    // freeform, explicit geometry
	RoleCell      Role = "cell"      // tile / sidebyside slot
	RolePrimary   Role = "primary"   // full-size card in stack and focus modes
	RolePreview   Role = "preview"   // compact stack strip entry
	RoleHidden    Role = "hidden"    // minimized, or not the focused card in focus mode
	RoleMaximized Role = "maximized" // covers the workspace in every mode
)

// Placement is the rendered geometry of one card
type Placement struct {
	ID          string     `json:"id"`
	Index       int        `json:"index"` // position in the card collection
	Rect        types.Rect `json:"rect"`
	Role        Role       `json:"role"`
	Interactive bool       `json:"interactive"`
	Slot        int        `json:"slot"` // grid slot number, -1 when not slotted
}

// Options tunes spacing of the grid modes
type Options struct {
	Gap         int // space between and around cells
	StripHeight int // height of the stack preview strip
}

// DefaultOptions returns the spacing used by the service
func DefaultOptions() Options {
	return Options{Gap: 8, StripHeight: 120}
}

// Engine computes placements
type Engine struct {
	opts Options
}

// New creates an engine
func New(opts Options) *Engine {
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	return &Engine{opts: opts}
}

// Compute returns one placement per card, in collection order
func (e *Engine) Compute(mode types.LayoutMode, cards []*types.Card, bounds types.Bounds, focusedID string) []Placement {
	out := make([]Placement, len(cards))
	var grid []int // indices of cards that take a grid slot

	for i, c := range cards {
		p := Placement{ID: c.ID, Index: i, Slot: -1}
		switch {
		case c.Minimized:
			p.Role = RoleHidden
			p.Rect = c.Geometry.Rect()
		case c.Maximized:
			p.Role = RoleMaximized
			p.Rect = geometry.Full(bounds)
			p.Interactive = true
		case mode == types.ModeFreeform:
			g := c.Geometry
			x, y := geometry.ClampToBounds(g.X, g.Y, g.Width, g.Height, bounds)
			p.Role = RoleWindow
			p.Rect = types.Rect{X: x, Y: y, Width: g.Width, Height: g.Height}
			p.Interactive = true
		default:
			grid = append(grid, i)
		}
		out[i] = p
	}

	if len(grid) == 0 {
		return out
	}

	switch mode {
	case types.ModeTile:
		e.tile(out, grid, bounds)
	case types.ModeSideBySide:
		e.sideBySide(out, grid, bounds)
	case types.ModeStack:
		e.stack(out, grid, bounds, primaryIndex(cards, grid, focusedID))
	case types.ModeFocus:
		e.focus(out, grid, bounds, primaryIndex(cards, grid, focusedID))
	default:
		// Unknown modes degrade to tile so every card stays reachable
		e.tile(out, grid, bounds)
	}
	return out
}

// GridSize returns the columns and rows tile mode uses for n cards
func GridSize(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

func (e *Engine) tile(out []Placement, grid []int, bounds types.Bounds) {
	cols, rows := GridSize(len(grid))
	ys := split(bounds.Height, rows, e.opts.Gap)

	slot := 0
	for r := 0; r < rows; r++ {
		inRow := cols
		if r == rows-1 {
			inRow = len(grid) - cols*(rows-1)
		}
		xs := split(bounds.Width, inRow, e.opts.Gap)
		for c := 0; c < inRow; c++ {
			p := &out[grid[slot]]
			p.Role = RoleCell
			p.Interactive = true
			p.Slot = slot
			p.Rect = types.Rect{X: xs[c].start, Y: ys[r].start, Width: xs[c].size, Height: ys[r].size}
			slot++
		}
	}
}

func (e *Engine) sideBySide(out []Placement, grid []int, bounds types.Bounds) {
	horizontal := bounds.Width >= bounds.Height
	total := bounds.Height
	if horizontal {
		total = bounds.Width
	}
	spans := split(total, len(grid), e.opts.Gap)
	cross := split(boundsCross(bounds, horizontal), 1, e.opts.Gap)[0]

	for slot, idx := range grid {
		p := &out[idx]
		p.Role = RoleCell
		p.Interactive = true
		p.Slot = slot
		if horizontal {
			p.Rect = types.Rect{X: spans[slot].start, Y: cross.start, Width: spans[slot].size, Height: cross.size}
		} else {
			p.Rect = types.Rect{X: cross.start, Y: spans[slot].start, Width: cross.size, Height: spans[slot].size}
		}
	}
}

func boundsCross(b types.Bounds, horizontal bool) int {
	if horizontal {
		return b.Height
	}
	return b.Width
}

func (e *Engine) stack(out []Placement, grid []int, bounds types.Bounds, primary int) {
	if len(grid) == 1 {
		out[primary].Role = RolePrimary
		out[primary].Interactive = true
		out[primary].Rect = geometry.Full(bounds)
		return
	}

	strip := e.opts.StripHeight
	if limit := bounds.Height / 4; strip > limit {
		strip = limit
	}
	out[primary].Role = RolePrimary
	out[primary].Interactive = true
	out[primary].Rect = types.Rect{Width: bounds.Width, Height: bounds.Height - strip}

	previews := make([]int, 0, len(grid)-1)
	for _, idx := range grid {
		if idx != primary {
			previews = append(previews, idx)
		}
	}
	xs := split(bounds.Width, len(previews), e.opts.Gap)
	y := split(strip, 1, e.opts.Gap)[0]
	for slot, idx := range previews {
		p := &out[idx]
		p.Role = RolePreview
		p.Interactive = false
		p.Slot = slot
		p.Rect = types.Rect{X: xs[slot].start, Y: bounds.Height - strip + y.start, Width: xs[slot].size, Height: y.size}
	}
}

func (e *Engine) focus(out []Placement, grid []int, bounds types.Bounds, primary int) {
	for _, idx := range grid {
		p := &out[idx]
		if idx == primary {
			p.Role = RolePrimary
			p.Interactive = true
			p.Rect = geometry.Full(bounds)
			continue
		}
		p.Role = RoleHidden
		p.Rect = types.Rect{}
	}
}

// primaryIndex picks the focused card if it takes part in the grid, else the first one
func primaryIndex(cards []*types.Card, grid []int, focusedID string) int {
	for _, idx := range grid {
		if cards[idx].ID == focusedID {
			return idx
		}
	}
	return grid[0]
}

type span struct {
	start int
	size  int
}

// split divides total into count spans separated and surrounded by gap.
// Leftover pixels go to the first spans so the result is deterministic.
func split(total, count, gap int) []span {
	if count <= 0 {
		return nil
	}
	avail := total - gap*(count+1)
	if avail < count {
		gap = 0
		avail = total
	}
	base, rem := avail/count, avail%count

	spans := make([]span, count)
	pos := gap
	for i := range spans {
		size := base
		if i < rem {
			size++
		}
		spans[i] = span{start: pos, size: size}
		pos += size + gap
	}
	return spans
}

// Slot is a grid position a dragged card can be dropped into
type Slot struct {
	CardID  string
	Index   int // collection index of the card currently in the slot
	CenterX float64
	CenterY float64
}

// Slots extracts the droppable slots from placements, ordered by slot number
func Slots(placements []Placement) []Slot {
	var slots []Slot
	for _, p := range placements {
		if p.Slot < 0 {
			continue
		}
		cx, cy := p.Rect.Center()
		slots = append(slots, Slot{CardID: p.ID, Index: p.Index, CenterX: cx, CenterY: cy})
	}
	return slots
}

// Find returns the placement of id
func Find(placements []Placement, id string) (Placement, bool) {
	for _, p := range placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}
