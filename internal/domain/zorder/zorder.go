// Package zorder assigns stacking indices and tracks the single focused card.
//
// The counter only moves forward for the lifetime of a workspace, so the card
// with the highest z-index is always the one focused most recently, even after
// other cards were removed.
package zorder

import "github.com/GriffinCanCode/cardspace/internal/shared/types"

// Manager hands out stacking indices. It is not safe for concurrent use;
// the owning store serializes access.
type Manager struct {
	next uint64
}

// New creates a manager whose first index is 1
func New() *Manager {
	return &Manager{next: 1}
}

// Next returns a fresh index, strictly greater than every index returned before
func (m *Manager) Next() uint64 {
	z := m.next
	m.next++
	return z
}

// Peek returns the index the next call to Next will return
func (m *Manager) Peek() uint64 {
	return m.next
}

// Seed moves the counter to at least next. It never moves backwards.
func (m *Manager) Seed(next uint64) {
	if next > m.next {
		m.next = next
	}
}

// Focus marks id as the only focused card and raises it to the top.
// Returns false if id is not in cards.
func (m *Manager) Focus(cards []*types.Card, id string) bool {
	var target *types.Card
	for _, c := range cards {
		if c.ID == id {
			target = c
			break
		}
	}
	if target == nil {
		return false
	}

	for _, c := range cards {
		c.Focused = false
	}
	target.Focused = true
	target.Geometry.ZIndex = m.Next()
	return true
}

// Top returns the visible card with the highest z-index, skipping skipID.
// Returns nil when no visible card remains.
func Top(cards []*types.Card, skipID string) *types.Card {
	return highestCard(cards, skipID, false)
}

// TopAny is Top including minimized cards. Returns nil only when no other card exists.
func TopAny(cards []*types.Card, skipID string) *types.Card {
	return highestCard(cards, skipID, true)
}

func highestCard(cards []*types.Card, skipID string, minimized bool) *types.Card {
	var top *types.Card
	for _, c := range cards {
		if c.ID == skipID || (c.Minimized && !minimized) {
			continue
		}
		if top == nil || c.Geometry.ZIndex > top.Geometry.ZIndex {
			top = c
		}
	}
	return top
}

// Focused returns the focused card or nil
func Focused(cards []*types.Card) *types.Card {
	for _, c := range cards {
		if c.Focused {
			return c
		}
	}
	return nil
}

// Highest returns the largest z-index among cards, or 0
func Highest(cards []*types.Card) uint64 {
	var z uint64
	for _, c := range cards {
		if c.Geometry.ZIndex > z {
			z = c.Geometry.ZIndex
		}
	}
	return z
}
