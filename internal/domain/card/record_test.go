package card

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := newStore(t)
	a := add(t, src, types.CardChat)
	b := add(t, src, types.CardTerminal)
	c := add(t, src, types.CardSettings)
	src.MoveCard(a, 20, 30)
	src.MinimizeCard(b)
	src.MaximizeCard(c)
	src.SetCardMeta(a, map[string]interface{}{"thread": "t-1"})
	require.NoError(t, src.SetLayoutMode(types.ModeStack))

	rec := src.Export("user-1", "dev-a")
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "dev-a", rec.DeviceID)
	assert.NotEmpty(t, rec.Hash)
	require.Len(t, rec.Cards, 3)

	dst := newStore(t)
	res := dst.Import(context.Background(), rec)
	assert.Equal(t, 3, res.Applied)
	assert.Zero(t, res.Skipped)

	assert.Equal(t, types.ModeStack, dst.Mode())
	want, got := src.Cards(), dst.Cards()
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.Equal(t, want[i].Geometry, got[i].Geometry)
		assert.Equal(t, want[i].Minimized, got[i].Minimized)
		assert.Equal(t, want[i].Maximized, got[i].Maximized)
		assert.Equal(t, want[i].Focused, got[i].Focused)
		assert.Equal(t, want[i].RestoreGeometry, got[i].RestoreGeometry)
		assert.Equal(t, want[i].Meta, got[i].Meta)
	}

	again := dst.Export("user-1", "dev-b")
	assert.Equal(t, rec.Hash, again.Hash, "same layout hashes equal regardless of writer")
}

func TestExportHashTracksContent(t *testing.T) {
	s := newStore(t)
	a := add(t, s, types.CardChat)

	first := s.Export("u", "d")
	assert.Equal(t, first.Hash, s.Export("u", "d").Hash)

	s.MoveCard(a, 200, 10)
	assert.NotEqual(t, first.Hash, s.Export("u", "d").Hash)
}

func TestImportSkipsMalformedEntries(t *testing.T) {
	s := newStore(t)
	good := types.CardRecord{ID: "card_a", Type: "chat", Geometry: types.Geometry{X: 10, Y: 10, Width: 400, Height: 400, ZIndex: 3}}

	rec := &types.LayoutRecord{
		UserID:     "u",
		LayoutMode: types.ModeTile,
		Cards: []types.CardRecord{
			good,
			{ID: "", Type: "chat"},
			{ID: "card_a", Type: "terminal"},
			{ID: "card_b", Type: "spreadsheet"},
			{ID: "card_c", Type: "settings"},
			{ID: "card_d", Type: "settings"},
			{ID: "bad id!", Type: "git"},
			{ID: "card_e", Type: "conversation"},
		},
	}

	res := s.Import(context.Background(), rec)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 5, res.Skipped)
	assert.Len(t, res.Reasons, 5)
	assert.Equal(t, []string{"card_a", "card_c", "card_e"}, cardIDs(s))
	assert.Equal(t, types.ModeTile, s.Mode())

	e := mustGet(t, s, "card_e")
	assert.Equal(t, types.CardChat, e.Type)
	assert.Equal(t, "Conversation", e.Title)
}

func TestImportRefitsToLocalBounds(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetBounds(types.Bounds{Width: 500, Height: 500}))

	rec := &types.LayoutRecord{
		Bounds: types.Bounds{Width: 1920, Height: 1080},
		Cards: []types.CardRecord{
			{ID: "card_a", Type: "terminal", Geometry: types.Geometry{X: 1400, Y: 700, Width: 600, Height: 300}},
			{ID: "card_b", Type: "git", Geometry: types.Geometry{X: 0, Y: 0, Width: 1920, Height: 1080},
				State: types.CardStateRecord{Maximized: true}, RestoreGeometry: &types.Rect{X: 1000, Y: 500, Width: 700, Height: 500}},
		},
	}
	s.Import(context.Background(), rec)

	local := types.Bounds{Width: 500, Height: 500}
	assert.Equal(t, local, s.Bounds(), "bounds stay local")
	assert.True(t, mustGet(t, s, "card_a").Geometry.Rect().Within(local))

	b := mustGet(t, s, "card_b")
	assert.Equal(t, local.Rect(), b.Geometry.Rect())
	require.NotNil(t, b.RestoreGeometry)
	assert.True(t, b.RestoreGeometry.Within(local))
}

func TestImportFocusAndZ(t *testing.T) {
	s := newStore(t)
	focused := "card_b"
	rec := &types.LayoutRecord{
		NextZ:     4,
		FocusedID: &focused,
		Cards: []types.CardRecord{
			{ID: "card_a", Type: "chat", Geometry: types.Geometry{Width: 400, Height: 400, ZIndex: 9}},
			{ID: "card_b", Type: "git", Geometry: types.Geometry{Width: 400, Height: 400, ZIndex: 2}},
		},
	}
	s.Import(context.Background(), rec)

	f, ok := s.Focused()
	require.True(t, ok)
	assert.Equal(t, "card_b", f.ID)
	assert.Equal(t, 1, focusedCount(s))

	require.True(t, s.FocusCard("card_a"))
	assert.Greater(t, mustGet(t, s, "card_a").Geometry.ZIndex, uint64(9), "counter is seeded past imported indices")
}

func TestImportMinimizedFocusHandsOff(t *testing.T) {
	s := newStore(t)
	focused := "card_a"
	rec := &types.LayoutRecord{
		FocusedID: &focused,
		Cards: []types.CardRecord{
			{ID: "card_a", Type: "chat", State: types.CardStateRecord{Minimized: true}},
			{ID: "card_b", Type: "git", Geometry: types.Geometry{ZIndex: 5}},
		},
	}
	s.Import(context.Background(), rec)

	f, ok := s.Focused()
	require.True(t, ok)
	assert.Equal(t, "card_b", f.ID)
}

func TestImportNotifiesAsSync(t *testing.T) {
	s := newStore(t)
	var got []Change
	s.Subscribe(func(ch Change) { got = append(got, ch) })

	s.Import(context.Background(), &types.LayoutRecord{})
	require.Len(t, got, 1)
	assert.Equal(t, ChangeImported, got[0].Kind)
	assert.Equal(t, SourceSync, got[0].Source)
}

func TestImportReplacesExistingCards(t *testing.T) {
	s := newStore(t)
	add(t, s, types.CardChat)
	add(t, s, types.CardTerminal)

	s.Import(context.Background(), &types.LayoutRecord{
		Cards: []types.CardRecord{{ID: "card_z", Type: "git"}},
	})
	assert.Equal(t, []string{"card_z"}, cardIDs(s))
}

func TestExportImportKeepsEncodedTitles(t *testing.T) {
	src := newStore(t)
	titles := []string{
		"&lt;b&gt;notes&lt;/b&gt;",
		"Tom &amp; Jerry",
		"<i>plan</i> &amp; more",
		"a < b",
	}
	for _, title := range titles {
		_, err := src.AddCard(context.Background(), types.CardChat, Payload{Title: title})
		require.NoError(t, err)
	}

	dst := newStore(t)
	res := dst.Import(context.Background(), src.Export("u", "d"))
	require.Equal(t, len(titles), res.Applied)

	want, got := src.Cards(), dst.Cards()
	for i := range want {
		assert.Equal(t, want[i].Title, got[i].Title)
	}
	assert.Equal(t, "notes", got[0].Title)
	assert.Equal(t, "Tom & Jerry", got[1].Title)
	assert.Equal(t, src.Export("u", "d").Hash, dst.Export("u", "d").Hash)
}

func TestImportFocusesMinimizedWhenNothingVisible(t *testing.T) {
	s := newStore(t)
	rec := &types.LayoutRecord{
		UserID:     "u",
		LayoutMode: types.ModeFreeform,
		Cards: []types.CardRecord{
			{ID: "card_a", Type: "chat", Geometry: types.Geometry{Width: 400, Height: 400, ZIndex: 2},
				State: types.CardStateRecord{Minimized: true}},
			{ID: "card_b", Type: "git", Geometry: types.Geometry{Width: 400, Height: 400, ZIndex: 5},
				State: types.CardStateRecord{Minimized: true}},
		},
	}

	res := s.Import(context.Background(), rec)
	require.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, focusedCount(s))
	b := mustGet(t, s, "card_b")
	assert.True(t, b.Focused)
	assert.True(t, b.Minimized)
}
