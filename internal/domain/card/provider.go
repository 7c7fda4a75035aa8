package card

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// Provider renders the content of a card type. The store only tells it when
// a card opens and when it goes away; everything else is the provider's business.
type Provider interface {
	// Opened is called after a card of the provider's type was created.
	// The handle stays valid until Released.
	Opened(ctx context.Context, h *Handle) error
	// Released is called after the card was removed
	Released(ctx context.Context, card *types.Card) error
}

// Handle lets a provider act on its own card and nothing else
type Handle struct {
	store *Store
	id    string
	typ   types.CardType
}

// ID returns the card id
func (h *Handle) ID() string {
	return h.id
}

// Type returns the card type
func (h *Handle) Type() types.CardType {
	return h.typ
}

// Card returns a copy of the card, false once it was removed
func (h *Handle) Card() (*types.Card, bool) {
	return h.store.Get(h.id)
}

// Close removes the card
func (h *Handle) Close(ctx context.Context) bool {
	return h.store.RemoveCard(ctx, h.id)
}

// Focus focuses the card, restoring it if minimized
func (h *Handle) Focus() bool {
	return h.store.FocusCard(h.id)
}

// Resize resizes the card within its type limits
func (h *Handle) Resize(width, height int) bool {
	return h.store.ResizeCard(h.id, width, height)
}

// SetTitle updates the card title
func (h *Handle) SetTitle(title string) bool {
	return h.store.SetCardTitle(h.id, title)
}

// NopProvider ignores every notification
type NopProvider struct{}

func (NopProvider) Opened(context.Context, *Handle) error        { return nil }
func (NopProvider) Released(context.Context, *types.Card) error { return nil }

// Registry maps card types to providers. Types without a provider get the fallback.
type Registry struct {
	mu        sync.RWMutex
	providers map[types.CardType]Provider
	fallback  Provider
}

// NewRegistry creates a registry whose fallback is NopProvider
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[types.CardType]Provider),
		fallback:  NopProvider{},
	}
}

// Register sets the provider for t
func (r *Registry) Register(t types.CardType, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[t] = p
}

// SetFallback sets the provider used for unregistered types
func (r *Registry) SetFallback(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// Lookup returns the provider for t
func (r *Registry) Lookup(t types.CardType) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[t]; ok {
		return p
	}
	return r.fallback
}
