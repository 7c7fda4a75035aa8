// Package geometry provides pure functions for keeping card rectangles inside the workspace.
package geometry

import "github.com/GriffinCanCode/cardspace/internal/shared/types"

// Limits bounds a card's size. A zero Max dimension means unbounded.
type Limits struct {
	Min types.Size
	Max types.Size
}

// ClampToBounds returns a position that keeps the w×h rectangle inside bounds.
// A rectangle larger than bounds in a dimension is anchored to 0 on that axis.
func ClampToBounds(x, y, w, h int, bounds types.Bounds) (int, int) {
	return clampAxis(x, w, bounds.Width), clampAxis(y, h, bounds.Height)
}

func clampAxis(pos, size, limit int) int {
	if size >= limit {
		return 0
	}
	if pos < 0 {
		return 0
	}
	if pos+size > limit {
		return limit - size
	}
	return pos
}

// ClampSize enforces the size limits. The minimum always wins over the maximum.
func ClampSize(limits Limits, w, h int) (int, int) {
	return clampDim(w, limits.Min.Width, limits.Max.Width), clampDim(h, limits.Min.Height, limits.Max.Height)
}

func clampDim(v, lo, hi int) int {
	if hi > 0 && v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Fit clamps size to limits, shrinks it to bounds without going below the minimum,
// then clamps the position.
func Fit(r types.Rect, limits Limits, bounds types.Bounds) types.Rect {
	w, h := ClampSize(limits, r.Width, r.Height)
	if bounds.Width > 0 && w > bounds.Width {
		w = max(bounds.Width, limits.Min.Width)
	}
	if bounds.Height > 0 && h > bounds.Height {
		h = max(bounds.Height, limits.Min.Height)
	}
	x, y := ClampToBounds(r.X, r.Y, w, h, bounds)
	return types.Rect{X: x, Y: y, Width: w, Height: h}
}

// Full returns the rectangle covering the whole workspace
func Full(bounds types.Bounds) types.Rect {
	return bounds.Rect()
}
