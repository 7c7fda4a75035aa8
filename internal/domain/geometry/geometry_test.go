package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

var workspace = types.Bounds{Width: 800, Height: 600}

func TestClampToBounds(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		wantX      int
		wantY      int
	}{
		{"inside", 100, 100, 200, 200, 100, 100},
		{"negative", -50, -10, 200, 200, 0, 0},
		{"overflow right and bottom", 700, 500, 200, 200, 600, 400},
		{"exact fit", 0, 0, 800, 600, 0, 0},
		{"wider than bounds anchors to 0", 300, 100, 1000, 200, 0, 100},
		{"taller than bounds anchors to 0", 100, 300, 200, 900, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ClampToBounds(tt.x, tt.y, tt.w, tt.h, workspace)
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestClampSize(t *testing.T) {
	chat := Limits{Min: types.Size{Width: 360, Height: 400}}

	w, h := ClampSize(chat, 50, 50)
	assert.Equal(t, 360, w)
	assert.Equal(t, 400, h)

	w, h = ClampSize(chat, -1000, 500)
	assert.Equal(t, 360, w)
	assert.Equal(t, 500, h)

	capped := Limits{Min: types.Size{Width: 100, Height: 100}, Max: types.Size{Width: 300, Height: 200}}
	w, h = ClampSize(capped, 900, 900)
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)

	broken := Limits{Min: types.Size{Width: 400, Height: 400}, Max: types.Size{Width: 300, Height: 300}}
	w, h = ClampSize(broken, 350, 350)
	assert.Equal(t, 400, w, "minimum wins over a smaller maximum")
	assert.Equal(t, 400, h)
}

func TestFit(t *testing.T) {
	limits := Limits{Min: types.Size{Width: 200, Height: 150}}

	got := Fit(types.Rect{X: 700, Y: -20, Width: 1200, Height: 100}, limits, workspace)
	assert.Equal(t, types.Rect{X: 0, Y: 0, Width: 800, Height: 150}, got)
	assert.True(t, got.Within(workspace))

	got = Fit(types.Rect{X: 650, Y: 500, Width: 300, Height: 200}, limits, workspace)
	assert.Equal(t, types.Rect{X: 500, Y: 400, Width: 300, Height: 200}, got)

	tiny := types.Bounds{Width: 100, Height: 100}
	got = Fit(types.Rect{X: 10, Y: 10, Width: 50, Height: 50}, limits, tiny)
	assert.Equal(t, 200, got.Width, "minimum survives bounds smaller than it")
	assert.Equal(t, 0, got.X)
}

func TestFitKeepsEveryRectInside(t *testing.T) {
	limits := Limits{Min: types.Size{Width: 120, Height: 90}}
	for x := -400; x <= 1200; x += 97 {
		for w := -50; w <= 1000; w += 113 {
			r := Fit(types.Rect{X: x, Y: x / 2, Width: w, Height: w}, limits, workspace)
			assert.True(t, r.Within(workspace), "rect %+v escaped bounds", r)
		}
	}
}
