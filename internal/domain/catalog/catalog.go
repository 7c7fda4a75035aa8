// Package catalog describes the card kinds the workspace can host: their size
// limits, default size and whether only one instance may exist at a time.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/cardspace/internal/domain/geometry"
	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

var ErrUnknownType = errors.New("unknown card type")

// TypeSpec is the static description of one card kind
type TypeSpec struct {
	Type         types.CardType `json:"type"`
	Singleton    bool           `json:"singleton"`
	Min          types.Size     `json:"min"`
	Max          types.Size     `json:"max"`
	Default      types.Size     `json:"default"`
	DefaultTitle string         `json:"default_title"`
}

// Limits returns the size limits of the kind
func (s TypeSpec) Limits() geometry.Limits {
	return geometry.Limits{Min: s.Min, Max: s.Max}
}

// builtin returns the compiled-in spec of a card kind.
// Every declared kind must have a case here.
func builtin(t types.CardType) (TypeSpec, error) {
	spec := TypeSpec{Type: t}
	switch t {
	case types.CardChat:
		spec.Min, spec.Default, spec.DefaultTitle = size(360, 400), size(420, 520), "Conversation"
	case types.CardSettings:
		spec.Singleton = true
		spec.Min, spec.Max, spec.Default, spec.DefaultTitle = size(480, 400), size(960, 840), size(560, 480), "Settings"
	case types.CardProfileManager:
		spec.Singleton = true
		spec.Min, spec.Max, spec.Default, spec.DefaultTitle = size(400, 360), size(800, 800), size(480, 440), "Profiles"
	case types.CardProjectManager:
		spec.Singleton = true
		spec.Min, spec.Default, spec.DefaultTitle = size(420, 360), size(520, 460), "Projects"
	case types.CardSubagentManager:
		spec.Singleton = true
		spec.Min, spec.Default, spec.DefaultTitle = size(420, 360), size(520, 460), "Subagents"
	case types.CardImageStudio:
		spec.Min, spec.Default, spec.DefaultTitle = size(480, 420), size(640, 520), "Image Studio"
	case types.CardVideoStudio:
		spec.Min, spec.Default, spec.DefaultTitle = size(520, 420), size(720, 540), "Video Studio"
	case types.CardModelStudio:
		spec.Min, spec.Default, spec.DefaultTitle = size(520, 440), size(720, 560), "3D Studio"
	case types.CardSpeechStudio:
		spec.Min, spec.Default, spec.DefaultTitle = size(400, 320), size(520, 420), "Speech Studio"
	case types.CardTerminal:
		spec.Min, spec.Default, spec.DefaultTitle = size(320, 200), size(560, 360), "Terminal"
	case types.CardFileBrowser:
		spec.Min, spec.Default, spec.DefaultTitle = size(320, 300), size(480, 440), "Files"
	case types.CardPluginManager:
		spec.Singleton = true
		spec.Min, spec.Default, spec.DefaultTitle = size(420, 360), size(520, 460), "Plugins"
	case types.CardGit:
		spec.Min, spec.Default, spec.DefaultTitle = size(400, 320), size(560, 440), "Git"
	default:
		return TypeSpec{}, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return spec, nil
}

func size(w, h int) types.Size {
	return types.Size{Width: w, Height: h}
}

// Catalog holds the effective spec of every card kind
type Catalog struct {
	mu       sync.RWMutex
	specs    map[types.CardType]TypeSpec
	onReload func() // Called after Watch applies a changed file
}

// New creates a catalog with the compiled-in specs
func New() *Catalog {
	c := &Catalog{specs: make(map[types.CardType]TypeSpec)}
	for _, t := range types.AllCardTypes() {
		spec, err := builtin(t)
		if err != nil {
			panic(err) // a declared kind without a builtin spec is a programming error
		}
		c.specs[t] = spec
	}
	return c
}

// OnReload registers fn to run after each successful file reload
func (c *Catalog) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = fn
}

// Spec returns the spec of a card kind
func (c *Catalog) Spec(t types.CardType) (TypeSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	spec, ok := c.specs[t]
	if !ok {
		return TypeSpec{}, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return spec, nil
}

// Limits returns the size limits of a card kind; unknown kinds get no limits
func (c *Catalog) Limits(t types.CardType) geometry.Limits {
	spec, err := c.Spec(t)
	if err != nil {
		return geometry.Limits{}
	}
	return spec.Limits()
}

// Singleton reports whether at most one card of the kind may exist
func (c *Catalog) Singleton(t types.CardType) bool {
	spec, err := c.Spec(t)
	return err == nil && spec.Singleton
}

// All returns every spec ordered by card type
func (c *Catalog) All() []TypeSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]TypeSpec, 0, len(c.specs))
	for _, spec := range c.specs {
		all = append(all, spec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Type < all[j].Type })
	return all
}

// Override changes the sizes or title of one kind. Zero fields keep the current value.
type Override struct {
	Min     *types.Size `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max     *types.Size `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
	Default *types.Size `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Title   string      `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
}

// Apply validates and applies a set of overrides keyed by card type name.
// Either every override applies or none does.
func (c *Catalog) Apply(overrides map[string]Override) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[types.CardType]TypeSpec, len(c.specs))
	for t, spec := range c.specs {
		next[t] = spec
	}

	for name, o := range overrides {
		t, err := types.ParseCardType(name)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownType, name)
		}
		spec := next[t]
		if o.Min != nil {
			if o.Min.Width < 1 || o.Min.Height < 1 {
				return fmt.Errorf("%s: minimum size must be at least 1x1", name)
			}
			spec.Min = *o.Min
		}
		if o.Max != nil {
			if o.Max.Width < 0 || o.Max.Height < 0 {
				return fmt.Errorf("%s: maximum size must not be negative", name)
			}
			spec.Max = *o.Max
		}
		if o.Default != nil {
			spec.Default = *o.Default
		}
		if o.Title != "" {
			spec.DefaultTitle = o.Title
		}
		next[t] = spec
	}

	c.specs = next
	return nil
}

// Reset restores the compiled-in specs
func (c *Catalog) Reset() {
	fresh := New()
	c.mu.Lock()
	c.specs = fresh.specs
	c.mu.Unlock()
}
