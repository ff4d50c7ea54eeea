package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default_pipelines.toml
var defaultCatalog []byte

// Catalog indexes pipelines by name. Names match case-insensitively.
type Catalog struct {
	byName map[string]Pipeline
}

type catalogFile struct {
	Pipelines []Pipeline `toml:"pipeline"`
}

// ParseCatalog decodes and validates a TOML pipeline catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pipeline catalog: %w", err)
	}
	catalog := &Catalog{byName: make(map[string]Pipeline, len(file.Pipelines))}
	for _, p := range file.Pipelines {
		p = normalize(p)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToUpper(p.Name)
		if _, exists := catalog.byName[key]; exists {
			return nil, fmt.Errorf("%w: duplicate pipeline %q", ErrInvalidPipeline, p.Name)
		}
		catalog.byName[key] = p
	}
	return catalog, nil
}

// DefaultCatalog returns the built-in pipelines.
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in pipeline catalog: %v", err))
	}
	return catalog
}

// LoadCatalog reads a catalog file. An empty or missing path yields the
// built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pipeline catalog: %w", err)
	}
	return ParseCatalog(data)
}

// Lookup returns the named pipeline.
func (c *Catalog) Lookup(name string) (Pipeline, error) {
	p, ok := c.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Pipeline{}, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	return p, nil
}

// Pipelines returns every pipeline ordered by name.
func (c *Catalog) Pipelines() []Pipeline {
	out := make([]Pipeline, 0, len(c.byName))
	for _, p := range c.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(p Pipeline) Pipeline {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	for i := range p.Tasks {
		p.Tasks[i].Name = strings.TrimSpace(p.Tasks[i].Name)
		for j := range p.Tasks[i].Actions {
			a := &p.Tasks[i].Actions[j]
			a.Name = strings.TrimSpace(a.Name)
			a.Type = ActionType(strings.ToUpper(strings.TrimSpace(string(a.Type))))
			a.Algorithm = strings.ToUpper(strings.TrimSpace(a.Algorithm))
		}
	}
	return p
}
