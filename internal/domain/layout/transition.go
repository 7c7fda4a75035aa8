package layout

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// ShuffleDuration is the fixed length of a stack shuffle animation
const ShuffleDuration = 300 * time.Millisecond

// Spring tuning for a critically damped move that settles within ShuffleDuration
const (
	springFrequency = 18.0
	springDamping   = 1.0
	defaultFPS      = 60
)

// TransitionOptions controls frame sampling
type TransitionOptions struct {
	Duration      time.Duration
	FPS           int
	ReducedMotion bool
}

// DefaultTransitionOptions returns 300ms at 60fps
func DefaultTransitionOptions() TransitionOptions {
	return TransitionOptions{Duration: ShuffleDuration, FPS: defaultFPS}
}

// Transition animates one card from its old placement to its new one.
// The last frame always equals To.
type Transition struct {
	ID       string        `json:"id"`
	From     types.Rect    `json:"from"`
	To       types.Rect    `json:"to"`
	Duration time.Duration `json:"duration"`
	Frames   []types.Rect  `json:"frames,omitempty"`
}

// Shuffle builds transitions for every card whose rectangle changed between
// two placement sets. Cards present in only one set are skipped.
func Shuffle(from, to []Placement, opts TransitionOptions) []Transition {
	if opts.Duration <= 0 {
		opts.Duration = ShuffleDuration
	}
	if opts.FPS <= 0 {
		opts.FPS = defaultFPS
	}

	before := make(map[string]types.Rect, len(from))
	for _, p := range from {
		before[p.ID] = p.Rect
	}

	var out []Transition
	for _, p := range to {
		old, ok := before[p.ID]
		if !ok || old == p.Rect {
			continue
		}
		tr := Transition{ID: p.ID, From: old, To: p.Rect, Duration: opts.Duration}
		if !opts.ReducedMotion {
			tr.Frames = frames(old, p.Rect, opts)
		}
		out = append(out, tr)
	}
	return out
}

// frames samples a spring per rectangle component
func frames(from, to types.Rect, opts TransitionOptions) []types.Rect {
	n := int(math.Round(opts.Duration.Seconds() * float64(opts.FPS)))
	if n < 1 {
		n = 1
	}
	spring := harmonica.NewSpring(harmonica.FPS(opts.FPS), springFrequency, springDamping)

	pos := [4]float64{float64(from.X), float64(from.Y), float64(from.Width), float64(from.Height)}
	target := [4]float64{float64(to.X), float64(to.Y), float64(to.Width), float64(to.Height)}
	var vel [4]float64

	out := make([]types.Rect, n)
	for i := 0; i < n; i++ {
		for k := range pos {
			pos[k], vel[k] = spring.Update(pos[k], vel[k], target[k])
		}
		out[i] = types.Rect{
			X:      int(math.Round(pos[0])),
			Y:      int(math.Round(pos[1])),
			Width:  int(math.Round(pos[2])),
			Height: int(math.Round(pos[3])),
		}
	}
	out[n-1] = to
	return out
}
