// Package card holds the authoritative card collection of one workspace.
//
// Every mutation goes through the Store, bumps its revision and is announced
// to subscribers after the lock is released. Mutators are permissive: unknown
// ids return false, geometry is clamped instead of rejected, and adding a
// second singleton focuses the existing card.
package card

import (
	"context"
	"errors"
	"html"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/domain/catalog"
	"github.com/GriffinCanCode/cardspace/internal/domain/geometry"
	"github.com/GriffinCanCode/cardspace/internal/domain/layout"
	"github.com/GriffinCanCode/cardspace/internal/domain/reorder"
	"github.com/GriffinCanCode/cardspace/internal/domain/zorder"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/shared/id"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
	"github.com/GriffinCanCode/cardspace/internal/shared/utils"
)

// New cards cascade from the top-left corner so they do not stack exactly
const (
	cascadeOrigin = 48
	cascadeStep   = 32
	cascadeWrap   = 10
)

var (
	ErrUnknownCard  = errors.New("unknown card")
	ErrNotDraggable = errors.New("card cannot be dragged while minimized or maximized")
	ErrDragActive   = errors.New("a drag is already in progress")
	ErrNotStack     = errors.New("shuffle requires stack mode")
	ErrPrimaryCard  = errors.New("card is already the primary card")
)

// ChangeKind names a store mutation
type ChangeKind string

const (
	ChangeAdded       ChangeKind = "added"
	ChangeRemoved     ChangeKind = "removed"
	ChangeMoved       ChangeKind = "moved"
	ChangeResized     ChangeKind = "resized"
	ChangeMinimized   ChangeKind = "minimized"
	ChangeRestored    ChangeKind = "restored"
	ChangeMaximized   ChangeKind = "maximized"
	ChangeUnmaximized ChangeKind = "unmaximized"
	ChangeFocused     ChangeKind = "focused"
	ChangeTitle       ChangeKind = "title"
	ChangeMeta        ChangeKind = "meta"
	ChangeBounds      ChangeKind = "bounds"
	ChangeMode        ChangeKind = "mode"
	ChangeReordered   ChangeKind = "reordered"
	ChangeShuffled    ChangeKind = "shuffled"
	ChangeImported    ChangeKind = "imported"
)

// Source tells subscribers where a change came from
type Source string

const (
	SourceLocal Source = "local" // user action on this device
	SourceSync  Source = "sync"  // applying a record pulled from storage
)

// Change is delivered to subscribers after every mutation
type Change struct {
	Revision uint64     `json:"revision"`
	Kind     ChangeKind `json:"kind"`
	CardID   string     `json:"card_id,omitempty"`
	Index    int        `json:"index"` // collection index of CardID at the time of the change, -1 if none
	Source   Source     `json:"source"`
}

// Payload carries the optional fields of a new card
type Payload struct {
	Title   string                 `json:"title,omitempty"`
	DataRef string                 `json:"data_ref,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// Store is the card collection of one workspace
type Store struct {
	mu       sync.RWMutex
	cards    []*types.Card // Protected by mu, collection order
	bounds   types.Bounds  // Protected by mu
	mode     types.LayoutMode
	revision uint64
	z        *zorder.Manager
	coord    *reorder.Coordinator
	drag     *freeDrag

	catalog   *catalog.Catalog
	engine    *layout.Engine
	providers *Registry
	sanitizer *bluemonday.Policy
	hasher    *utils.Hasher
	motion    layout.TransitionOptions
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	subMu   sync.RWMutex
	subs    map[uint64]func(Change)
	nextSub uint64
}

// NewStore creates an empty freeform workspace
func NewStore(cat *catalog.Catalog, bounds types.Bounds, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		bounds:    bounds,
		mode:      types.ModeFreeform,
		z:         zorder.New(),
		coord:     reorder.New(),
		catalog:   cat,
		engine:    layout.New(layout.DefaultOptions()),
		providers: NewRegistry(),
		sanitizer: bluemonday.StrictPolicy(),
		hasher:    utils.DefaultHasher(),
		motion:    layout.DefaultTransitionOptions(),
		now:       time.Now,
		newID:     func() string { return id.NewCardID().String() },
		logger:    logger,
		subs:      make(map[uint64]func(Change)),
	}
}

// WithProviders sets the content provider registry
func (s *Store) WithProviders(r *Registry) *Store {
	s.providers = r
	return s
}

// WithMetrics adds metrics tracking to the store
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// WithClock overrides the creation timestamp source
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// WithIDs overrides card id generation
func (s *Store) WithIDs(next func() string) *Store {
	s.newID = next
	return s
}

// WithLayout overrides layout spacing
func (s *Store) WithLayout(opts layout.Options) *Store {
	s.engine = layout.New(opts)
	return s
}

// WithTransitions overrides shuffle animation sampling
func (s *Store) WithTransitions(opts layout.TransitionOptions) *Store {
	s.motion = opts
	return s
}

// Subscribe registers fn for every change. The returned func unsubscribes.
// fn runs outside the store lock and may read from the store.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, key)
		s.subMu.Unlock()
	}
}

// AddCard opens a card of type t and focuses it. For singleton types with an
// open instance the existing card is focused and its id returned.
func (s *Store) AddCard(ctx context.Context, t types.CardType, p Payload) (string, error) {
	spec, err := s.catalog.Spec(t)
	if err != nil {
		return "", err
	}
	if err := utils.ValidateDataRef(p.DataRef); err != nil {
		return "", err
	}
	if err := utils.ValidateMeta(p.Meta); err != nil {
		return "", err
	}

	s.mu.Lock()
	if spec.Singleton {
		for i, c := range s.cards {
			if c.Type != t {
				continue
			}
			c.Minimized = false
			s.z.Focus(s.cards, c.ID)
			ch := s.commit(ChangeFocused, c.ID, i, SourceLocal)
			s.mu.Unlock()
			s.emit(ch)
			return c.ID, nil
		}
	}

	title := s.cleanTitle(p.Title)
	if title == "" {
		title = spec.DefaultTitle
	}
	c := &types.Card{
		ID:        s.newID(),
		Type:      t,
		Title:     title,
		Geometry:  types.Geometry{}.WithRect(s.defaultRect(spec)),
		DataRef:   p.DataRef,
		Meta:      copyMeta(p.Meta),
		CreatedAt: s.now(),
	}
	s.cancelDrag()
	s.cards = append(s.cards, c)
	s.z.Focus(s.cards, c.ID)
	ch := s.commit(ChangeAdded, c.ID, len(s.cards)-1, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	if s.metrics != nil {
		s.metrics.AddCardsOpen(1)
	}
	s.opened(ctx, c.ID, t)
	return c.ID, nil
}

// defaultRect cascades new cards and fits them to bounds. Caller holds mu.
func (s *Store) defaultRect(spec catalog.TypeSpec) types.Rect {
	visible := 0
	for _, c := range s.cards {
		if !c.Minimized {
			visible++
		}
	}
	offset := cascadeOrigin + cascadeStep*(visible%cascadeWrap)
	r := types.Rect{X: offset, Y: offset, Width: spec.Default.Width, Height: spec.Default.Height}
	return geometry.Fit(r, spec.Limits(), s.bounds)
}

// RemoveCard closes a card. Focus moves to the highest visible card, or to
// the highest minimized one when nothing is visible.
func (s *Store) RemoveCard(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	c := s.cards[i]
	s.cancelDrag()
	s.cards = slices.Delete(s.cards, i, i+1)
	if c.Focused {
		c.Focused = false
		top := zorder.Top(s.cards, "")
		if top == nil {
			top = zorder.TopAny(s.cards, "")
		}
		if top != nil {
			s.z.Focus(s.cards, top.ID)
		}
	}
	ch := s.commit(ChangeRemoved, id, i, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	if s.metrics != nil {
		s.metrics.AddCardsOpen(-1)
	}
	s.released(ctx, c)
	return true
}

// MoveCard moves a card, keeping it inside bounds. Ignored while maximized.
func (s *Store) MoveCard(id string, x, y int) bool {
	return s.apply(ChangeMoved, id, func(c *types.Card) (bool, bool) {
		if c.Maximized {
			return false, false
		}
		return true, s.place(c, x, y)
	})
}

// place clamps and sets the position, reporting whether it changed. Caller holds mu.
func (s *Store) place(c *types.Card, x, y int) bool {
	x, y = geometry.ClampToBounds(x, y, c.Geometry.Width, c.Geometry.Height, s.bounds)
	if x == c.Geometry.X && y == c.Geometry.Y {
		return false
	}
	c.Geometry.X, c.Geometry.Y = x, y
	return true
}

// ResizeCard resizes within the type limits and bounds. Ignored while maximized.
func (s *Store) ResizeCard(id string, width, height int) bool {
	return s.apply(ChangeResized, id, func(c *types.Card) (bool, bool) {
		if c.Maximized {
			return false, false
		}
		r := types.Rect{X: c.Geometry.X, Y: c.Geometry.Y, Width: width, Height: height}
		r = geometry.Fit(r, s.catalog.Limits(c.Type), s.bounds)
		if r == c.Geometry.Rect() {
			return true, false
		}
		c.Geometry = c.Geometry.WithRect(r)
		return true, true
	})
}

// MinimizeCard sends a card to the dock. A focused card hands focus to the
// highest visible card, and keeps it only when no other card is visible.
func (s *Store) MinimizeCard(id string) bool {
	return s.apply(ChangeMinimized, id, func(c *types.Card) (bool, bool) {
		if c.Minimized {
			return true, false
		}
		if s.dragging(id) {
			s.cancelDrag()
		}
		c.Minimized = true
		if c.Focused {
			if top := zorder.Top(s.cards, id); top != nil {
				s.z.Focus(s.cards, top.ID)
			}
		}
		return true, true
	})
}

// RestoreCard brings a minimized card back and focuses it
func (s *Store) RestoreCard(id string) bool {
	return s.apply(ChangeRestored, id, func(c *types.Card) (bool, bool) {
		if !c.Minimized {
			return true, false
		}
		c.Minimized = false
		s.z.Focus(s.cards, id)
		return true, true
	})
}

// MaximizeCard fills the workspace with a card, remembering its geometry
func (s *Store) MaximizeCard(id string) bool {
	return s.apply(ChangeMaximized, id, func(c *types.Card) (bool, bool) {
		if c.Maximized {
			return true, false
		}
		if s.dragging(id) {
			s.cancelDrag()
		}
		restore := c.Geometry.Rect()
		c.RestoreGeometry = &restore
		c.Geometry = c.Geometry.WithRect(geometry.Full(s.bounds))
		c.Maximized = true
		c.Minimized = false
		s.z.Focus(s.cards, id)
		return true, true
	})
}

// UnmaximizeCard returns a card to its remembered geometry, refitted to bounds
func (s *Store) UnmaximizeCard(id string) bool {
	return s.apply(ChangeUnmaximized, id, func(c *types.Card) (bool, bool) {
		if !c.Maximized {
			return true, false
		}
		s.unmaximize(c)
		return true, true
	})
}

// unmaximize is called with mu held
func (s *Store) unmaximize(c *types.Card) {
	r := c.Geometry.Rect()
	if c.RestoreGeometry != nil {
		r = *c.RestoreGeometry
	}
	c.Geometry = c.Geometry.WithRect(geometry.Fit(r, s.catalog.Limits(c.Type), s.bounds))
	c.RestoreGeometry = nil
	c.Maximized = false
}

// ToggleMaximize maximizes or unmaximizes
func (s *Store) ToggleMaximize(id string) bool {
	s.mu.RLock()
	c := s.find(id)
	maximized := c != nil && c.Maximized
	s.mu.RUnlock()

	if c == nil {
		return false
	}
	if maximized {
		return s.UnmaximizeCard(id)
	}
	return s.MaximizeCard(id)
}

// FocusCard focuses a card and raises it. A minimized card is restored first.
func (s *Store) FocusCard(id string) bool {
	return s.apply(ChangeFocused, id, func(c *types.Card) (bool, bool) {
		if c.Focused && !c.Minimized && c.Geometry.ZIndex+1 == s.z.Peek() {
			return true, false
		}
		c.Minimized = false
		s.z.Focus(s.cards, id)
		return true, true
	})
}

// FocusNext focuses the next visible card in collection order, wrapping around
func (s *Store) FocusNext() (string, bool) {
	return s.cycleFocus(1)
}

// FocusPrev focuses the previous visible card in collection order, wrapping around
func (s *Store) FocusPrev() (string, bool) {
	return s.cycleFocus(-1)
}

func (s *Store) cycleFocus(step int) (string, bool) {
	s.mu.Lock()
	var visible []int
	current := -1
	for i, c := range s.cards {
		if c.Minimized {
			continue
		}
		if c.Focused {
			current = len(visible)
		}
		visible = append(visible, i)
	}
	if len(visible) == 0 {
		s.mu.Unlock()
		return "", false
	}

	var next int
	switch {
	case current < 0 && step > 0:
		next = 0
	case current < 0:
		next = len(visible) - 1
	default:
		next = (current + step + len(visible)) % len(visible)
	}

	idx := visible[next]
	target := s.cards[idx].ID
	s.z.Focus(s.cards, target)
	ch := s.commit(ChangeFocused, target, idx, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return target, true
}

// SetCardTitle sets a plain-text title. Markup is stripped; an empty
// result falls back to the type's default title.
func (s *Store) SetCardTitle(id, title string) bool {
	return s.apply(ChangeTitle, id, func(c *types.Card) (bool, bool) {
		clean := s.cleanTitle(title)
		if clean == "" {
			spec, err := s.catalog.Spec(c.Type)
			if err == nil {
				clean = spec.DefaultTitle
			}
		}
		if clean == c.Title {
			return true, false
		}
		c.Title = clean
		return true, true
	})
}

// maxTitlePasses bounds cleanTitle on pathologically nested entity encodings
const maxTitlePasses = 8

// cleanTitle strips markup and decodes entities until the result is stable,
// so a cleaned title survives another clean unchanged.
func (s *Store) cleanTitle(title string) string {
	clean := title
	for i := 0; i < maxTitlePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(clean)))
		if utf8.RuneCountInString(next) > utils.MaxTitleLength {
			next = string([]rune(next)[:utils.MaxTitleLength])
		}
		if next == clean {
			break
		}
		clean = next
	}
	return clean
}

// SetCardMeta merges patch into the card's meta. A nil value deletes the key.
func (s *Store) SetCardMeta(id string, patch map[string]interface{}) bool {
	if err := utils.ValidateMeta(patch); err != nil {
		return false
	}
	return s.apply(ChangeMeta, id, func(c *types.Card) (bool, bool) {
		if len(patch) == 0 {
			return true, false
		}
		if c.Meta == nil {
			c.Meta = make(map[string]interface{}, len(patch))
		}
		for k, v := range patch {
			if v == nil {
				delete(c.Meta, k)
				continue
			}
			c.Meta[k] = v
		}
		return true, true
	})
}

// SetBounds resizes the workspace and refits every card
func (s *Store) SetBounds(bounds types.Bounds) error {
	if err := utils.ValidateBounds(bounds.Width, bounds.Height); err != nil {
		return err
	}

	s.mu.Lock()
	if bounds == s.bounds {
		s.mu.Unlock()
		return nil
	}
	s.bounds = bounds
	s.cancelDrag()
	for _, c := range s.cards {
		limits := s.catalog.Limits(c.Type)
		if c.Maximized {
			c.Geometry = c.Geometry.WithRect(geometry.Full(bounds))
			if c.RestoreGeometry != nil {
				r := geometry.Fit(*c.RestoreGeometry, limits, bounds)
				c.RestoreGeometry = &r
			}
			continue
		}
		c.Geometry = c.Geometry.WithRect(geometry.Fit(c.Geometry.Rect(), limits, bounds))
	}
	ch := s.commit(ChangeBounds, "", -1, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return nil
}

// SetLayoutMode switches the layout strategy. Explicit geometry is kept,
// so returning to a mode reproduces its previous arrangement.
func (s *Store) SetLayoutMode(mode types.LayoutMode) error {
	mode, err := types.ParseLayoutMode(string(mode))
	if err != nil {
		return err
	}

	s.mu.Lock()
	if mode == s.mode {
		s.mu.Unlock()
		return nil
	}
	s.cancelDrag()
	s.mode = mode
	ch := s.commit(ChangeMode, "", -1, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return nil
}

// ReorderCard moves a card to index in the collection, clamped to range.
// Reordering to the current index changes nothing.
func (s *Store) ReorderCard(id string, index int) bool {
	s.mu.Lock()
	from := s.indexOf(id)
	if from < 0 {
		s.mu.Unlock()
		return false
	}
	to := clampIndex(index, len(s.cards))
	if to == from {
		s.mu.Unlock()
		return true
	}
	s.cancelDrag()
	s.move(from, to)
	ch := s.commit(ChangeReordered, id, to, SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return true
}

// move relocates the card at from to index to. Caller holds mu.
func (s *Store) move(from, to int) {
	c := s.cards[from]
	s.cards = slices.Delete(s.cards, from, from+1)
	s.cards = slices.Insert(s.cards, to, c)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// apply runs fn on the card under the write lock. fn reports whether the
// operation applies and whether it changed anything; only changes are committed.
func (s *Store) apply(kind ChangeKind, id string, fn func(c *types.Card) (ok, changed bool)) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	ok, changed := fn(s.cards[i])
	if !changed {
		s.mu.Unlock()
		return ok
	}
	ch := s.commit(kind, id, s.indexOf(id), SourceLocal)
	s.mu.Unlock()

	s.emit(ch)
	return ok
}

// commit bumps the revision. Caller holds mu.
func (s *Store) commit(kind ChangeKind, id string, index int, source Source) Change {
	s.revision++
	return Change{Revision: s.revision, Kind: kind, CardID: id, Index: index, Source: source}
}

// emit notifies subscribers. Must be called without mu held.
func (s *Store) emit(ch Change) {
	if s.metrics != nil {
		s.metrics.RecordCardChange(string(ch.Kind))
	}

	s.subMu.RLock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(ch)
	}
}

func (s *Store) opened(ctx context.Context, id string, t types.CardType) {
	h := &Handle{store: s, id: id, typ: t}
	if err := s.providers.Lookup(t).Opened(ctx, h); err != nil {
		s.logger.Warn("Content provider failed on open",
			zap.String("card_id", id), zap.String("type", t.String()), zap.Error(err))
	}
}

func (s *Store) released(ctx context.Context, c *types.Card) {
	if err := s.providers.Lookup(c.Type).Released(ctx, c); err != nil {
		s.logger.Warn("Content provider failed on release",
			zap.String("card_id", c.ID), zap.String("type", c.Type.String()), zap.Error(err))
	}
}

// indexOf is called with mu held
func (s *Store) indexOf(id string) int {
	for i, c := range s.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// find is called with mu held
func (s *Store) find(id string) *types.Card {
	if i := s.indexOf(id); i >= 0 {
		return s.cards[i]
	}
	return nil
}

// focusedID is called with mu held
func (s *Store) focusedID() string {
	if c := zorder.Focused(s.cards); c != nil {
		return c.ID
	}
	return ""
}

// placements is called with mu held
func (s *Store) placements() []layout.Placement {
	return s.engine.Compute(s.mode, s.cards, s.bounds, s.focusedID())
}

func copyMeta(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
