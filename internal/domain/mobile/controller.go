// Package mobile drives the single-card view used on narrow screens.
//
// One card is shown at a time; horizontal swipes move the active index by
// one. Geometry is ignored entirely in this mode.
package mobile

import (
	"math"
	"sync"

	"github.com/charmbracelet/harmonica"
	"gonum.org/v1/gonum/stat"
)

const (
	// CommitFraction of the viewport width a swipe must travel to commit
	CommitFraction = 0.25
	// VelocityThreshold in px/ms that commits a swipe regardless of distance
	VelocityThreshold = 0.5
	// EdgeResistance scales the drag offset past the first and last card
	EdgeResistance = 0.35

	velocityWindow = 100.0 // ms of samples used for the release velocity
	snapFPS        = 60
	snapMaxFrames  = 30
	snapFrequency  = 14.0
	snapDamping    = 0.8
)

type sample struct {
	x, t float64
}

// Outcome describes what a finished swipe did
type Outcome struct {
	Committed   bool      `json:"committed"`
	ActiveIndex int       `json:"active_index"`
	Velocity    float64   `json:"velocity"` // px/ms, negative is leftwards
	Offset      float64   `json:"offset"`   // offset at release after resistance
	SnapBack    []float64 `json:"snap_back,omitempty"`
}

// Controller tracks the active card and the swipe in progress
type Controller struct {
	mu            sync.Mutex
	count         int
	active        int
	width         float64
	touching      bool
	startX        float64
	samples       []sample
	reducedMotion bool
}

// New creates a controller for count cards on a viewport width pixels wide
func New(width float64, count int) *Controller {
	c := &Controller{width: width}
	c.setCount(count)
	return c
}

// SetReducedMotion disables snap-back frames
func (c *Controller) SetReducedMotion(on bool) {
	c.mu.Lock()
	c.reducedMotion = on
	c.mu.Unlock()
}

// SetWidth updates the viewport width
func (c *Controller) SetWidth(width float64) {
	c.mu.Lock()
	c.width = width
	c.mu.Unlock()
}

// ActiveIndex returns the card being shown
func (c *Controller) ActiveIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Count returns the number of cards
func (c *Controller) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// SetCount changes the number of cards, clamping the active index
func (c *Controller) SetCount(n int) {
	c.mu.Lock()
	c.setCount(n)
	c.mu.Unlock()
}

func (c *Controller) setCount(n int) {
	if n < 0 {
		n = 0
	}
	c.count = n
	c.active = c.clamp(c.active)
}

// Removed adjusts for the card at index i leaving the collection
func (c *Controller) Removed(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= c.count {
		return
	}
	if i < c.active {
		c.active--
	}
	c.setCount(c.count - 1)
}

// JumpTo shows card i, clamped to the valid range
func (c *Controller) JumpTo(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = c.clamp(i)
	return c.active
}

func (c *Controller) clamp(i int) int {
	if c.count == 0 || i < 0 {
		return 0
	}
	if i >= c.count {
		return c.count - 1
	}
	return i
}

// TouchStart begins a swipe at x, time t in milliseconds
func (c *Controller) TouchStart(x, t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.touching = true
	c.startX = x
	c.samples = append(c.samples[:0], sample{x: x, t: t})
}

// TouchMove records a position and returns the offset to draw the card at
func (c *Controller) TouchMove(x, t float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.touching {
		return 0
	}
	c.record(x, t)
	return c.offset(x - c.startX)
}

// TouchEnd finishes the swipe. It commits when the finger travelled far
// enough or was moving fast enough at release; otherwise the card springs back.
func (c *Controller) TouchEnd(x, t float64) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.touching {
		return Outcome{ActiveIndex: c.active}
	}
	c.record(x, t)
	c.touching = false

	dx := x - c.startX
	v := c.velocity(t)
	out := Outcome{ActiveIndex: c.active, Velocity: v, Offset: c.offset(dx)}

	if math.Abs(dx) >= CommitFraction*c.width || math.Abs(v) >= VelocityThreshold {
		dir := direction(dx, v)
		next := c.clamp(c.active + dir)
		if next != c.active {
			c.active = next
			out.Committed = true
			out.ActiveIndex = next
			return out
		}
	}

	if !c.reducedMotion {
		out.SnapBack = snapBack(out.Offset)
	}
	return out
}

// direction maps a leftward swipe to the next card and a rightward one to the previous
func direction(dx, v float64) int {
	d := dx
	if d == 0 {
		d = v
	}
	if d < 0 {
		return 1
	}
	return -1
}

func (c *Controller) record(x, t float64) {
	c.samples = append(c.samples, sample{x: x, t: t})
}

// offset applies edge resistance when dragging past the first or last card
func (c *Controller) offset(dx float64) float64 {
	atStart := c.active == 0 && dx > 0
	atEnd := c.active >= c.count-1 && dx < 0
	if atStart || atEnd {
		return dx * EdgeResistance
	}
	return dx
}

// velocity is the least-squares slope of position over the last samples
func (c *Controller) velocity(now float64) float64 {
	var ts, xs []float64
	for _, s := range c.samples {
		if now-s.t <= velocityWindow {
			ts = append(ts, s.t)
			xs = append(xs, s.x)
		}
	}
	if len(ts) < 2 || stat.Variance(ts, nil) == 0 {
		return 0
	}
	_, slope := stat.LinearRegression(ts, xs, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}

// snapBack samples a spring from offset back to rest. The last frame is 0.
func snapBack(offset float64) []float64 {
	if offset == 0 {
		return nil
	}
	spring := harmonica.NewSpring(harmonica.FPS(snapFPS), snapFrequency, snapDamping)
	pos, vel := offset, 0.0

	frames := make([]float64, 0, snapMaxFrames)
	for i := 0; i < snapMaxFrames-1; i++ {
		pos, vel = spring.Update(pos, vel, 0)
		if math.Abs(pos) < 0.5 && math.Abs(vel) < 0.5 {
			break
		}
		frames = append(frames, pos)
	}
	return append(frames, 0)
}
