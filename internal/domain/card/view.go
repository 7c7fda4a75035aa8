package card

import (
	"github.com/GriffinCanCode/cardspace/internal/domain/layout"
	"github.com/GriffinCanCode/cardspace/internal/domain/zorder"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// View pairs a card with where it is drawn
type View struct {
	Card      *types.Card      `json:"card"`
	Placement layout.Placement `json:"placement"`
}

// Snapshot is a consistent read of the whole workspace
type Snapshot struct {
	Revision  uint64           `json:"revision"`
	Mode      types.LayoutMode `json:"layout_mode"`
	Bounds    types.Bounds     `json:"bounds"`
	FocusedID string           `json:"focused_id,omitempty"`
	Dragging  string           `json:"dragging,omitempty"`
	Cards     []View           `json:"cards"`
}

// Snapshot returns copies of every card with its placement, in collection order
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	placements := s.placements()
	views := make([]View, len(s.cards))
	for i, c := range s.cards {
		views[i] = View{Card: c.Clone(), Placement: placements[i]}
	}

	snap := Snapshot{
		Revision:  s.revision,
		Mode:      s.mode,
		Bounds:    s.bounds,
		FocusedID: s.focusedID(),
		Cards:     views,
	}
	if s.drag != nil {
		snap.Dragging = s.drag.id
	} else {
		snap.Dragging = s.coord.CardID()
	}
	return snap
}

// Placements returns the current layout
func (s *Store) Placements() []layout.Placement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.placements()
}

// Get returns a copy of a card
func (s *Store) Get(id string) (*types.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.find(id)
	if c == nil {
		return nil, false
	}
	return c.Clone(), true
}

// Minimized returns the docked cards in collection order
func (s *Store) Minimized() []*types.Card {
	return s.filter(func(c *types.Card) bool { return c.Minimized })
}

// OfType returns the open cards of type t
func (s *Store) OfType(t types.CardType) []*types.Card {
	return s.filter(func(c *types.Card) bool { return c.Type == t })
}

// Cards returns copies of every card in collection order
func (s *Store) Cards() []*types.Card {
	return s.filter(func(*types.Card) bool { return true })
}

func (s *Store) filter(keep func(*types.Card) bool) []*types.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// Focused returns a copy of the focused card
func (s *Store) Focused() (*types.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := zorder.Focused(s.cards)
	if c == nil {
		return nil, false
	}
	return c.Clone(), true
}

// IndexOf returns the collection index of a card, -1 if unknown
func (s *Store) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

// Len returns the number of open cards
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Revision returns the mutation counter
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Bounds returns the workspace size
func (s *Store) Bounds() types.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// Mode returns the layout mode
func (s *Store) Mode() types.LayoutMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}
