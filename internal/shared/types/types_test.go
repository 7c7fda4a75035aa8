package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCardType(t *testing.T) {
	for _, ct := range AllCardTypes() {
		parsed, err := ParseCardType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, parsed)
	}
	assert.Len(t, AllCardTypes(), 13)

	chat, err := ParseCardType(" Conversation ")
	require.NoError(t, err)
	assert.Equal(t, CardChat, chat)

	_, err = ParseCardType("spreadsheet")
	assert.Error(t, err)
	assert.False(t, CardType(0).Valid())
}

func TestCardTypeText(t *testing.T) {
	data, err := json.Marshal(map[string]CardType{"type": CardModelStudio})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"model_studio"}`, string(data))

	var out struct{ Type CardType }
	require.NoError(t, json.Unmarshal([]byte(`{"Type":"git"}`), &out))
	assert.Equal(t, CardGit, out.Type)
	assert.Error(t, json.Unmarshal([]byte(`{"Type":"nope"}`), &out))
}

func TestParseLayoutMode(t *testing.T) {
	for _, m := range []LayoutMode{ModeFreeform, ModeTile, ModeSideBySide, ModeStack, ModeFocus} {
		parsed, err := ParseLayoutMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseLayoutMode("grid")
	assert.Error(t, err)

	assert.True(t, ModeTile.IsGrid())
	assert.True(t, ModeStack.IsGrid())
	assert.False(t, ModeFreeform.IsGrid())
	assert.False(t, ModeFocus.IsGrid())
}

func TestRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}
	cx, cy := r.Center()
	assert.Equal(t, 60.0, cx)
	assert.Equal(t, 45.0, cy)
	assert.True(t, r.Contains(10, 20))
	assert.False(t, r.Contains(110, 20))

	assert.True(t, r.Within(Bounds{Width: 110, Height: 70}))
	assert.False(t, r.Within(Bounds{Width: 109, Height: 70}))
}

func TestRecordMetadata(t *testing.T) {
	rec := &LayoutRecord{UserID: "alice", DeviceID: "laptop", Version: 4, Hash: "h",
		Cards: []CardRecord{{ID: "a"}, {ID: "b"}}}
	m := rec.ToMetadata()
	assert.Equal(t, "alice", m.UserID)
	assert.Equal(t, 2, m.CardCount)
	assert.Equal(t, uint64(4), m.Version)
}
