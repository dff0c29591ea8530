// Package registry provides the package metadata the resolver consults:
// available versions, declared options with their defaults and the
// packages a package itself requires.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/goplus/llman/manifest"
)

// ErrNotFound is returned when a registry has no recipe for a package.
var ErrNotFound = errors.New("package not found")

// ErrNoRegistry is returned by Multi for requirements without an origin
// when it has no Default. Resolvers treat such requirements as if no
// registry were configured.
var ErrNoRegistry = errors.New("no default registry")

// AnyValue in a recipe's option choices accepts every value.
const AnyValue = "ANY"

// Recipe is the metadata a registry holds for one package.
type Recipe struct {
	Name     string
	Versions []string
	// Options maps each declared option to its allowed values. Options
	// missing from the map are not checked.
	Options  map[string][]string
	Defaults map[string]manifest.Value
	Requires []string // "name/version" references, informational
}

// Allows reports whether option may take value v.
func (r *Recipe) Allows(option string, v manifest.Value) bool {
	choices, ok := r.Options[option]
	if !ok {
		return true
	}
	return slices.Contains(choices, AnyValue) || slices.Contains(choices, v.String())
}

// DefaultNames returns the names of the default options in sorted order.
func (r *Recipe) DefaultNames() []string {
	return slices.Sorted(maps.Keys(r.Defaults))
}

// Registry looks up package recipes.
type Registry interface {
	Lookup(ctx context.Context, req manifest.Requirement) (*Recipe, error)
}

// Memory is a Registry backed by a map. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	recipes map[string]*Recipe
}

// NewMemory returns a Memory registry holding recipes.
func NewMemory(recipes ...*Recipe) *Memory {
	m := &Memory{recipes: make(map[string]*Recipe, len(recipes))}
	for _, r := range recipes {
		m.Add(r)
	}
	return m
}

// Add stores r, replacing any recipe of the same name.
func (m *Memory) Add(r *Recipe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[r.Name] = r
}

func (m *Memory) Lookup(ctx context.Context, req manifest.Requirement) (*Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[req.Name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.Name, ErrNotFound)
	}
	return r, nil
}

// Multi routes lookups by requirement origin. Requirements without an
// origin go to Default; an origin missing from Origins is ErrNotFound.
type Multi struct {
	Default Registry
	Origins map[string]Registry
}

func (m *Multi) Lookup(ctx context.Context, req manifest.Requirement) (*Recipe, error) {
	reg := m.Default
	if req.Origin == "" && reg == nil {
		return nil, ErrNoRegistry
	}
	if req.Origin != "" {
		reg = m.Origins[req.Origin]
	}
	if reg == nil {
		return nil, fmt.Errorf("%s: no registry for origin %q: %w", req.Name, req.Origin, ErrNotFound)
	}
	return reg.Lookup(ctx, req)
}
