package card

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Opened(ctx context.Context, h *Handle) error {
	return m.Called(ctx, h).Error(0)
}

func (m *mockProvider) Released(ctx context.Context, c *types.Card) error {
	return m.Called(ctx, c).Error(0)
}

func TestProviderNotifications(t *testing.T) {
	p := new(mockProvider)
	p.On("Opened", mock.Anything, mock.MatchedBy(func(h *Handle) bool {
		return h.Type() == types.CardTerminal
	})).Return(nil).Once()
	p.On("Released", mock.Anything, mock.MatchedBy(func(c *types.Card) bool {
		return c.Type == types.CardTerminal
	})).Return(errors.New("pty already gone")).Once()

	reg := NewRegistry()
	reg.Register(types.CardTerminal, p)
	s := newStore(t).WithProviders(reg)

	id := add(t, s, types.CardTerminal)
	add(t, s, types.CardChat) // handled by the fallback

	assert.True(t, s.RemoveCard(context.Background(), id), "provider errors are not surfaced")
	p.AssertExpectations(t)
}

// resizingProvider grows its card as soon as it opens
type resizingProvider struct {
	handle *Handle
}

func (p *resizingProvider) Opened(_ context.Context, h *Handle) error {
	p.handle = h
	h.Resize(700, 500)
	return nil
}

func (p *resizingProvider) Released(context.Context, *types.Card) error { return nil }

func TestHandleIsScopedToItsCard(t *testing.T) {
	p := &resizingProvider{}
	reg := NewRegistry()
	reg.Register(types.CardImageStudio, p)
	s := newStore(t).WithProviders(reg)

	other := add(t, s, types.CardChat)
	id := add(t, s, types.CardImageStudio)
	require.NotNil(t, p.handle)
	assert.Equal(t, id, p.handle.ID())

	c, ok := p.handle.Card()
	require.True(t, ok)
	assert.Equal(t, 700, c.Geometry.Width)

	require.True(t, p.handle.SetTitle("Render queue"))
	s.FocusCard(other)
	require.True(t, p.handle.Focus())
	f, _ := s.Focused()
	assert.Equal(t, id, f.ID)

	require.True(t, p.handle.Close(context.Background()))
	assert.Equal(t, []string{other}, cardIDs(s))

	_, ok = p.handle.Card()
	assert.False(t, ok)
	assert.False(t, p.handle.Resize(400, 400), "a closed card cannot be touched")
}

func TestRegistryFallback(t *testing.T) {
	reg := NewRegistry()
	assert.IsType(t, NopProvider{}, reg.Lookup(types.CardGit))

	p := new(mockProvider)
	reg.SetFallback(p)
	assert.Same(t, p, reg.Lookup(types.CardGit))
}

func TestWebhookProvider(t *testing.T) {
	var mu sync.Mutex
	var events []WebhookEvent
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev WebhookEvent
		_ = json.NewDecoder(r.Body).Decode(&ev)
		mu.Lock()
		events = append(events, ev)
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	reg := NewRegistry()
	reg.SetFallback(NewWebhookProvider(srv.URL+"/", 2*time.Second))
	s := newStore(t).WithProviders(reg)

	id := add(t, s, types.CardGit)
	s.RemoveCard(context.Background(), id)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/opened", "/released"}, paths)
	require.Len(t, events, 2)
	assert.Equal(t, id, events[0].Card.ID)
	assert.Equal(t, "released", events[1].Event)
}

func TestWebhookProviderReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewWebhookProvider(srv.URL, time.Second)
	err := p.Released(context.Background(), &types.Card{ID: "card_1", Type: types.CardGit})
	assert.Error(t, err)
}
