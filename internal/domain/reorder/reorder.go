// Package reorder maps a dragged pointer to a grid slot and commits the
// resulting collection reorder.
//
// A drag moves through idle → dragging → committing → idle. Pointer moves are
// ignored while a requested reorder has not been applied yet, so a burst of
// move events produces at most one reorder per slot change.
package reorder

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/GriffinCanCode/cardspace/internal/domain/layout"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// State of the coordinator
type State int

const (
	StateIdle State = iota
	StateDragging
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

var (
	ErrFreeform   = errors.New("reorder: freeform mode has no slots")
	ErrPrimary    = errors.New("reorder: the primary stack card cannot be dragged")
	ErrNotSlotted = errors.New("reorder: card does not occupy a slot")
	ErrBusy       = errors.New("reorder: a drag is already active")
)

// Coordinator is not safe for concurrent use; the card store serializes calls.
type Coordinator struct {
	state    State
	cardID   string
	slots    []layout.Slot
	origin   int
	target   int
	inFlight bool
}

// New creates an idle coordinator
func New() *Coordinator {
	return &Coordinator{}
}

// State returns the current state
func (c *Coordinator) State() State {
	return c.state
}

// CardID returns the dragged card, empty when idle
func (c *Coordinator) CardID() string {
	return c.cardID
}

// Begin starts dragging cardID over slots
func (c *Coordinator) Begin(cardID string, mode types.LayoutMode, focusedID string, slots []layout.Slot) error {
	if c.state != StateIdle {
		return ErrBusy
	}
	if mode == types.ModeFreeform {
		return ErrFreeform
	}
	if mode == types.ModeStack && cardID == focusedID {
		return ErrPrimary
	}

	origin := -1
	for _, s := range slots {
		if s.CardID == cardID {
			origin = s.Index
			break
		}
	}
	if origin < 0 {
		return ErrNotSlotted
	}

	c.state = StateDragging
	c.cardID = cardID
	c.slots = slots
	c.origin = origin
	c.target = origin
	c.inFlight = false
	return nil
}

// Move maps the pointer to the nearest slot. ok is true when the caller
// should reorder the dragged card to target; it must then report the new
// slots through Applied before another target is produced.
func (c *Coordinator) Move(px, py float64) (target int, ok bool) {
	if c.state != StateDragging || c.inFlight || len(c.slots) == 0 {
		return 0, false
	}

	nearest := Nearest(c.slots, px, py)
	if nearest < 0 {
		return 0, false
	}
	target = c.slots[nearest].Index
	if target == c.target {
		return 0, false
	}

	c.target = target
	c.inFlight = true
	return target, true
}

// Applied records that the requested reorder happened and the slots it produced
func (c *Coordinator) Applied(slots []layout.Slot) {
	if c.state != StateDragging {
		return
	}
	c.slots = slots
	c.inFlight = false
}

// End finishes the drag. committed is false when the card ends where it started.
func (c *Coordinator) End() (cardID string, target int, committed bool) {
	if c.state != StateDragging {
		return "", 0, false
	}
	c.state = StateCommitting
	cardID, target, committed = c.cardID, c.target, c.target != c.origin
	c.reset()
	return cardID, target, committed
}

// Cancel abandons the drag and returns the card's original index
func (c *Coordinator) Cancel() (cardID string, origin int) {
	if c.state == StateIdle {
		return "", 0
	}
	cardID, origin = c.cardID, c.origin
	c.reset()
	return cardID, origin
}

func (c *Coordinator) reset() {
	c.state = StateIdle
	c.cardID = ""
	c.slots = nil
	c.origin = 0
	c.target = 0
	c.inFlight = false
}

// Nearest returns the position in slots whose center is closest to the point,
// or -1 for no slots. Ties go to the earlier slot.
func Nearest(slots []layout.Slot, px, py float64) int {
	best, bestDist := -1, 0.0
	p := []float64{px, py}
	for i, s := range slots {
		d := floats.Distance(p, []float64{s.CenterX, s.CenterY}, 2)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
