package card

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/domain/geometry"
	"github.com/GriffinCanCode/cardspace/internal/domain/zorder"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// ImportResult reports how a record was applied
type ImportResult struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Reasons []string `json:"reasons,omitempty"`
}

// Export captures the workspace as a persisted record with its content hash
func (s *Store) Export(userID, deviceID string) *types.LayoutRecord {
	s.mu.RLock()
	rec := &types.LayoutRecord{
		UserID:     userID,
		DeviceID:   deviceID,
		Version:    s.revision,
		UpdatedAt:  s.now().UTC(),
		LayoutMode: s.mode,
		Bounds:     s.bounds,
		NextZ:      s.z.Peek(),
		Cards:      make([]types.CardRecord, len(s.cards)),
	}
	if id := s.focusedID(); id != "" {
		rec.FocusedID = &id
	}
	for i, c := range s.cards {
		cp := c.Clone()
		rec.Cards[i] = types.CardRecord{
			ID:              cp.ID,
			Type:            cp.Type.String(),
			Title:           cp.Title,
			Geometry:        cp.Geometry,
			State:           types.CardStateRecord{Minimized: cp.Minimized, Maximized: cp.Maximized},
			RestoreGeometry: cp.RestoreGeometry,
			DataRef:         cp.DataRef,
			Meta:            cp.Meta,
			CreatedAt:       cp.CreatedAt,
		}
	}
	s.mu.RUnlock()

	if hash, err := s.hasher.HashRecord(rec); err == nil {
		rec.Hash = hash
	} else {
		s.logger.Warn("Failed to hash layout record", zap.Error(err))
	}
	return rec
}

// Import replaces the workspace with the cards of rec. Malformed entries are
// skipped one by one; geometry is refitted to this device's bounds, which
// never change. Subscribers see a single change with SourceSync.
func (s *Store) Import(ctx context.Context, rec *types.LayoutRecord) ImportResult {
	var res ImportResult
	skip := func(i int, reason string) {
		res.Skipped++
		res.Reasons = append(res.Reasons, fmt.Sprintf("card %d: %s", i, reason))
	}

	s.mu.Lock()
	prev := make(map[string]*types.Card, len(s.cards))
	for _, c := range s.cards {
		prev[c.ID] = c
	}

	seen := make(map[string]bool, len(rec.Cards))
	singletons := make(map[types.CardType]bool)
	cards := make([]*types.Card, 0, len(rec.Cards))

	for i, cr := range rec.Cards {
		if err := utils.ValidateID(cr.ID, "id", true); err != nil {
			skip(i, err.Error())
			continue
		}
		if seen[cr.ID] {
			skip(i, "duplicate id "+cr.ID)
			continue
		}
		t, err := types.ParseCardType(cr.Type)
		if err != nil {
			skip(i, err.Error())
			continue
		}
		spec, err := s.catalog.Spec(t)
		if err != nil {
			skip(i, err.Error())
			continue
		}
		if spec.Singleton && singletons[t] {
			skip(i, "second instance of singleton "+t.String())
			continue
		}
		seen[cr.ID] = true
		if spec.Singleton {
			singletons[t] = true
		}

		cards = append(cards, s.fromRecord(cr, spec.DefaultTitle))
	}

	mode := s.mode
	if m, err := types.ParseLayoutMode(string(rec.LayoutMode)); err == nil {
		mode = m
	}

	s.restoreFocus(cards, rec.FocusedID)
	next := rec.NextZ
	if h := zorder.Highest(cards) + 1; h > next {
		next = h
	}
	s.z.Seed(next)

	s.cancelDrag()
	s.cards = cards
	s.mode = mode
	ch := s.commit(ChangeImported, "", -1, SourceSync)

	var added []*types.Card
	for _, c := range cards {
		if _, ok := prev[c.ID]; ok {
			delete(prev, c.ID)
			continue
		}
		added = append(added, c.Clone())
	}
	s.mu.Unlock()

	res.Applied = len(cards)
	if res.Skipped > 0 {
		s.logger.Warn("Skipped malformed card entries",
			zap.String("user_id", rec.UserID),
			zap.Int("skipped", res.Skipped),
			zap.Strings("reasons", res.Reasons))
	}
	if s.metrics != nil {
		s.metrics.AddImportSkipped(res.Skipped)
		s.metrics.AddCardsOpen(len(added) - len(prev))
	}

	s.emit(ch)
	for _, c := range prev {
		s.released(ctx, c)
	}
	for _, c := range added {
		s.opened(ctx, c.ID, c.Type)
	}
	return res
}

// fromRecord builds a card fitted to local bounds. Caller holds mu.
func (s *Store) fromRecord(cr types.CardRecord, defaultTitle string) *types.Card {
	t, _ := types.ParseCardType(cr.Type)
	limits := s.catalog.Limits(t)

	title := s.cleanTitle(cr.Title)
	if title == "" {
		title = defaultTitle
	}
	c := &types.Card{
		ID:        cr.ID,
		Type:      t,
		Title:     title,
		Minimized: cr.State.Minimized,
		Maximized: cr.State.Maximized,
		DataRef:   cr.DataRef,
		Meta:      copyMeta(cr.Meta),
		CreatedAt: cr.CreatedAt,
	}

	fitted := geometry.Fit(cr.Geometry.Rect(), limits, s.bounds)
	c.Geometry = cr.Geometry.WithRect(fitted)
	if c.Maximized {
		restore := fitted
		if cr.RestoreGeometry != nil {
			restore = geometry.Fit(*cr.RestoreGeometry, limits, s.bounds)
		}
		c.RestoreGeometry = &restore
		c.Geometry = c.Geometry.WithRect(geometry.Full(s.bounds))
	}
	return c
}

// restoreFocus marks exactly one card focused when any exist. The recorded
// card wins unless it is minimized while another card is visible.
func (s *Store) restoreFocus(cards []*types.Card, focusedID *string) {
	for _, c := range cards {
		c.Focused = false
	}
	visible := zorder.Top(cards, "")
	if focusedID != nil {
		for _, c := range cards {
			if c.ID == *focusedID && (!c.Minimized || visible == nil) {
				c.Focused = true
				return
			}
		}
	}
	top := visible
	if top == nil {
		top = zorder.TopAny(cards, "")
	}
	if top != nil {
		top.Focused = true
	}
}
