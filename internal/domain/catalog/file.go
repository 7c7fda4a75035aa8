package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// File is the on-disk override format:
//
//	types:
//	  chat:
//	    min: {width: 320, height: 360}
//	    default: {width: 480, height: 560}
type File struct {
	Types map[string]Override `json:"types" yaml:"types" toml:"types"`
}

// ParseFile decodes an override file; the format is chosen by extension
func ParseFile(path string, data []byte) (*File, error) {
	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML catalog %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}
	return &f, nil
}

// LoadFile replaces the catalog with the builtin specs plus the overrides in path.
// On error the catalog is left unchanged.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	f, err := ParseFile(path, data)
	if err != nil {
		return err
	}

	fresh := New()
	if err := fresh.Apply(f.Types); err != nil {
		return fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	c.mu.Lock()
	c.specs = fresh.specs
	c.mu.Unlock()
	return nil
}

// EncodeYAML renders the effective catalog in the override file format
func (c *Catalog) EncodeYAML() ([]byte, error) {
	f := File{Types: make(map[string]Override)}
	for _, spec := range c.All() {
		spec := spec
		f.Types[spec.Type.String()] = Override{
			Min:     &spec.Min,
			Max:     &spec.Max,
			Default: &spec.Default,
			Title:   spec.DefaultTitle,
		}
	}
	return yaml.Marshal(f)
}
