package card

import (
	"math"

	"github.com/GriffinCanCode/cardspace/internal/domain/layout"
	"github.com/GriffinCanCode/cardspace/internal/domain/reorder"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// freeDrag tracks a pointer drag in freeform mode
type freeDrag struct {
	id     string
	px, py float64
	origin types.Rect
}

// DragResult describes a finished drag
type DragResult struct {
	CardID    string `json:"card_id"`
	Committed bool   `json:"committed"`
	Index     int    `json:"index"`
}

// BeginDrag starts dragging a card from pointer position (px, py).
// In freeform mode the card follows the pointer; in grid modes it snaps
// between slots and the collection is reordered as it crosses them.
func (s *Store) BeginDrag(id string, px, py float64) error {
	s.mu.Lock()
	c := s.find(id)
	if c == nil {
		s.mu.Unlock()
		return ErrUnknownCard
	}
	if c.Minimized || c.Maximized {
		s.mu.Unlock()
		return ErrNotDraggable
	}
	if s.drag != nil || s.coord.State() != reorder.StateIdle {
		s.mu.Unlock()
		return ErrDragActive
	}

	if s.mode != types.ModeFreeform {
		err := s.coord.Begin(id, s.mode, s.focusedID(), layout.Slots(s.placements()))
		s.mu.Unlock()
		return err
	}

	s.drag = &freeDrag{id: id, px: px, py: py, origin: c.Geometry.Rect()}
	var ch Change
	raised := c.Geometry.ZIndex+1 != s.z.Peek() || !c.Focused
	if raised {
		s.z.Focus(s.cards, id)
		ch = s.commit(ChangeFocused, id, s.indexOf(id), SourceLocal)
	}
	s.mu.Unlock()

	if raised {
		s.emit(ch)
	}
	return nil
}

// DragMove feeds a pointer position. Returns true when the store changed.
func (s *Store) DragMove(px, py float64) bool {
	s.mu.Lock()

	if d := s.drag; d != nil {
		c := s.find(d.id)
		if c == nil {
			s.drag = nil
			s.mu.Unlock()
			return false
		}
		x := d.origin.X + int(math.Round(px-d.px))
		y := d.origin.Y + int(math.Round(py-d.py))
		if !s.place(c, x, y) {
			s.mu.Unlock()
			return false
		}
		ch := s.commit(ChangeMoved, c.ID, s.indexOf(c.ID), SourceLocal)
		s.mu.Unlock()
		s.emit(ch)
		return true
	}

	target, ok := s.coord.Move(px, py)
	if !ok {
		s.mu.Unlock()
		return false
	}
	id := s.coord.CardID()
	from := s.indexOf(id)
	if from < 0 {
		s.coord.Cancel()
		s.mu.Unlock()
		return false
	}
	to := clampIndex(target, len(s.cards))
	s.move(from, to)
	s.coord.Applied(layout.Slots(s.placements()))
	ch := s.commit(ChangeReordered, id, to, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return true
}

// EndDrag finishes the active drag
func (s *Store) EndDrag() (DragResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d := s.drag; d != nil {
		s.drag = nil
		res := DragResult{CardID: d.id, Index: s.indexOf(d.id)}
		if c := s.find(d.id); c != nil {
			res.Committed = c.Geometry.Rect() != d.origin
		}
		return res, true
	}

	if s.coord.State() == reorder.StateIdle {
		return DragResult{}, false
	}
	id, target, committed := s.coord.End()
	return DragResult{CardID: id, Committed: committed, Index: target}, true
}

// CancelDrag abandons the active drag and puts the card back
func (s *Store) CancelDrag() bool {
	s.mu.Lock()

	var ch Change
	changed := false
	switch {
	case s.drag != nil:
		d := s.drag
		s.drag = nil
		if c := s.find(d.id); c != nil && c.Geometry.Rect() != d.origin {
			c.Geometry = c.Geometry.WithRect(d.origin)
			ch = s.commit(ChangeMoved, d.id, s.indexOf(d.id), SourceLocal)
			changed = true
		}
	case s.coord.State() != reorder.StateIdle:
		id, origin := s.coord.Cancel()
		if from := s.indexOf(id); from >= 0 {
			to := clampIndex(origin, len(s.cards))
			if from != to {
				s.move(from, to)
				ch = s.commit(ChangeReordered, id, to, SourceLocal)
				changed = true
			}
		}
	default:
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if changed {
		s.emit(ch)
	}
	return true
}

// Dragging returns the dragged card id, empty when no drag is active
func (s *Store) Dragging() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.drag != nil {
		return s.drag.id
	}
	return s.coord.CardID()
}

// dragging is called with mu held
func (s *Store) dragging(id string) bool {
	if s.drag != nil {
		return s.drag.id == id
	}
	return s.coord.CardID() == id
}

// cancelDrag drops drag state without restoring anything. Caller holds mu.
func (s *Store) cancelDrag() {
	s.drag = nil
	s.coord.Cancel()
}

// Shuffle promotes a stack preview to the primary card. The focus swap and
// the exchange of collection positions happen at once; the returned
// transitions only describe how to animate it.
func (s *Store) Shuffle(id string) ([]layout.Transition, error) {
	s.mu.Lock()
	if s.mode != types.ModeStack {
		s.mu.Unlock()
		return nil, ErrNotStack
	}
	c := s.find(id)
	if c == nil {
		s.mu.Unlock()
		return nil, ErrUnknownCard
	}
	if c.Minimized || c.Maximized {
		s.mu.Unlock()
		return nil, ErrNotDraggable
	}

	before := s.placements()
	p, _ := layout.Find(before, id)
	if p.Role == layout.RolePrimary {
		s.mu.Unlock()
		return nil, ErrPrimaryCard
	}
	primary := ""
	for _, q := range before {
		if q.Role == layout.RolePrimary {
			primary = q.ID
			break
		}
	}

	s.cancelDrag()
	s.z.Focus(s.cards, id)
	if i, j := s.indexOf(id), s.indexOf(primary); i >= 0 && j >= 0 {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
	after := s.placements()
	transitions := layout.Shuffle(before, after, s.motion)
	ch := s.commit(ChangeShuffled, id, s.indexOf(id), SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return transitions, nil
}
