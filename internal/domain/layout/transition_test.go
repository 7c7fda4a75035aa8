package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

func stackPair(t *testing.T) ([]Placement, []Placement) {
	t.Helper()
	e := New(DefaultOptions())
	cs := makeCards("a", "b", "c")
	return e.Compute(types.ModeStack, cs, desktop, "b"), e.Compute(types.ModeStack, cs, desktop, "a")
}

func TestShuffleAnimatesChangedCards(t *testing.T) {
	from, to := stackPair(t)
	trs := Shuffle(from, to, DefaultTransitionOptions())

	require.Len(t, trs, 2)
	for _, tr := range trs {
		assert.Contains(t, []string{"a", "b"}, tr.ID)
		assert.Equal(t, ShuffleDuration, tr.Duration)
		require.Len(t, tr.Frames, 18)
		assert.Equal(t, tr.To, tr.Frames[len(tr.Frames)-1])
	}
}

func TestShuffleFramesApproachTarget(t *testing.T) {
	from, to := stackPair(t)
	trs := Shuffle(from, to, DefaultTransitionOptions())

	for _, tr := range trs {
		start := abs(tr.From.Y - tr.To.Y)
		mid := abs(tr.Frames[len(tr.Frames)/2].Y - tr.To.Y)
		assert.Less(t, mid, start, tr.ID)
	}
}

func TestShuffleReducedMotion(t *testing.T) {
	from, to := stackPair(t)
	opts := DefaultTransitionOptions()
	opts.ReducedMotion = true

	trs := Shuffle(from, to, opts)
	require.Len(t, trs, 2)
	for _, tr := range trs {
		assert.Empty(t, tr.Frames)
		assert.NotEqual(t, tr.From, tr.To)
	}
}

func TestShuffleIdenticalPlacements(t *testing.T) {
	from, _ := stackPair(t)
	assert.Empty(t, Shuffle(from, from, DefaultTransitionOptions()))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
