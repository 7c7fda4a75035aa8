package workspace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cardspace/internal/domain/card"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/storage"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

func newHub(records storage.RecordStore) *Hub {
	return NewHub(Options{Records: records, Debounce: time.Hour, Metrics: monitoring.NewMetrics()})
}

func TestOpenValidatesKeys(t *testing.T) {
	h := newHub(nil)
	_, err := h.Open(context.Background(), "", "dev", types.Bounds{})
	assert.Error(t, err)
	_, err = h.Open(context.Background(), "user", "bad device!", types.Bounds{})
	assert.Error(t, err)
	assert.Zero(t, h.Stats().Workspaces)
}

func TestOpenReusesWorkspace(t *testing.T) {
	ctx := context.Background()
	h := newHub(nil)

	ws, err := h.Open(ctx, "user-1", "desk", types.Bounds{})
	require.NoError(t, err)
	assert.Equal(t, types.Bounds{Width: 1280, Height: 800}, ws.Store.Bounds(), "default bounds")

	again, err := h.Open(ctx, "user-1", "desk", types.Bounds{Width: 1024, Height: 768})
	require.NoError(t, err)
	assert.Same(t, ws, again)
	assert.Equal(t, types.Bounds{Width: 1024, Height: 768}, ws.Store.Bounds())

	got, ok := h.Get("user-1", "desk")
	require.True(t, ok)
	assert.Same(t, ws, got)

	_, ok = h.Get("user-1", "phone")
	assert.False(t, ok)
}

func TestOpenPullsAndCloseFlushes(t *testing.T) {
	ctx := context.Background()
	records := storage.NewMemoryStore()

	first := newHub(records)
	desk, err := first.Open(ctx, "user-1", "desk", types.Bounds{Width: 1920, Height: 1080})
	require.NoError(t, err)
	_, err = desk.Store.AddCard(ctx, types.CardTerminal, card.Payload{})
	require.NoError(t, err)
	_, err = desk.Store.AddCard(ctx, types.CardChat, card.Payload{})
	require.NoError(t, err)
	require.NoError(t, desk.Store.SetLayoutMode(types.ModeTile))

	closed, err := first.Close(ctx, "user-1", "desk")
	require.NoError(t, err)
	assert.True(t, closed)
	assert.Equal(t, 1, records.Len())

	closed, err = first.Close(ctx, "user-1", "desk")
	require.NoError(t, err)
	assert.False(t, closed)

	second := newHub(records)
	laptop, err := second.Open(ctx, "user-1", "laptop", types.Bounds{Width: 1280, Height: 800})
	require.NoError(t, err)
	assert.Equal(t, 2, laptop.Store.Len())
	assert.Equal(t, types.ModeTile, laptop.Store.Mode())
	assert.Equal(t, 2, laptop.Mobile.Count(), "mobile view follows the store")
	assert.False(t, laptop.Saver.Pending())
}

func TestMobileFollowsStore(t *testing.T) {
	ctx := context.Background()
	h := newHub(nil)
	ws, err := h.Open(ctx, "user-1", "phone", types.Bounds{Width: 390, Height: 844})
	require.NoError(t, err)

	var ids []string
	for _, ct := range []types.CardType{types.CardChat, types.CardTerminal, types.CardGit} {
		id, err := ws.Store.AddCard(ctx, ct, card.Payload{})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, 3, ws.Mobile.Count())

	ws.Mobile.JumpTo(2)
	ws.Store.RemoveCard(ctx, ids[0])
	assert.Equal(t, 2, ws.Mobile.Count())
	assert.Equal(t, 1, ws.Mobile.ActiveIndex(), "the same card stays active")
}

func TestNotifyPullsOtherDevices(t *testing.T) {
	ctx := context.Background()
	records := storage.NewMemoryStore()
	h := newHub(records)

	desk, err := h.Open(ctx, "user-1", "desk", types.Bounds{})
	require.NoError(t, err)
	phone, err := h.Open(ctx, "user-1", "phone", types.Bounds{})
	require.NoError(t, err)
	_, err = h.Open(ctx, "user-2", "desk", types.Bounds{})
	require.NoError(t, err)

	_, err = desk.Store.AddCard(ctx, types.CardGit, card.Payload{})
	require.NoError(t, err)
	require.NoError(t, desk.Saver.Flush(ctx))

	pulled := h.Notify(ctx, storage.Notice{UserID: "user-1", DeviceID: "desk", Hash: desk.Saver.Stats().LastHash})
	assert.Equal(t, 1, pulled)
	assert.Equal(t, 1, phone.Store.Len())

	u2, _ := h.Get("user-2", "desk")
	assert.Zero(t, u2.Store.Len())
}

func TestStatsAndCloseAll(t *testing.T) {
	ctx := context.Background()
	records := storage.NewMemoryStore()
	h := newHub(records)

	a, err := h.Open(ctx, "user-1", "desk", types.Bounds{})
	require.NoError(t, err)
	_, err = h.Open(ctx, "user-1", "phone", types.Bounds{})
	require.NoError(t, err)
	b, err := h.Open(ctx, "user-2", "desk", types.Bounds{})
	require.NoError(t, err)

	_, err = a.Store.AddCard(ctx, types.CardChat, card.Payload{})
	require.NoError(t, err)
	require.NoError(t, b.Store.SetLayoutMode(types.ModeStack))

	st := h.Stats()
	assert.Equal(t, 3, st.Workspaces)
	assert.Equal(t, 2, st.Users)
	assert.Equal(t, 1, st.Cards)
	assert.Equal(t, 2, st.PendingSaves)
	assert.Equal(t, 2, st.Modes["freeform"])
	assert.Equal(t, 1, st.Modes["stack"])

	require.NoError(t, h.CloseAll(ctx))
	assert.Zero(t, h.Stats().Workspaces)
	assert.Equal(t, 2, records.Len())
}

func TestWatchWithoutNotifierBlocksUntilDone(t *testing.T) {
	h := newHub(storage.NewMemoryStore())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, h.Watch(ctx))
}
