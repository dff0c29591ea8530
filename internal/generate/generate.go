// Package generate turns resolved packages into integration artifacts:
// files a downstream build system reads to find and configure
// dependencies.
package generate

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/goplus/llman/internal/layout"
	"github.com/goplus/llman/internal/resolve"
	"github.com/goplus/llman/pkgs/buildsys"
	"github.com/goplus/llman/pkgs/mod/module"
	"github.com/goplus/llman/settings"
)

// Artifact kinds registered by NewPipeline.
const (
	CMakeDeps      = "CMakeDeps"
	CMakeToolchain = "CMakeToolchain"
	BuildEnv       = "BuildEnv"
	Lockfile       = "Lockfile"
)

// DefaultKinds are generated when a manifest requests none.
var DefaultKinds = []string{CMakeDeps, CMakeToolchain}

// Header is written on top of every generated script.
const Header = "Generated by llman. Do not edit."

// Artifact is one generated file. Name is relative to the generators
// directory.
type Artifact struct {
	Kind string
	Name string
	Body []byte
}

// Input is what every generator sees.
type Input struct {
	Packages []resolve.Package
	Plan     layout.Plan
	Settings settings.Settings
}

// Dep returns the build-system view of pkg: its install prefix inside the
// output root, slash separated.
func (in *Input) Dep(pkg resolve.Package) buildsys.Dep {
	dir := in.Plan.PackageDir(module.Version{Path: pkg.Name(), Version: pkg.Version})
	if pkg.Version == "" {
		dir = filepath.Join(in.Plan.Output, "packages", pkg.Name())
	}
	return buildsys.Dep{Name: pkg.Name(), Version: pkg.Version, Dir: filepath.ToSlash(dir)}
}

// Generator produces the artifact of one kind.
type Generator interface {
	Generate(in *Input) (Artifact, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(in *Input) (Artifact, error)

func (f GeneratorFunc) Generate(in *Input) (Artifact, error) { return f(in) }

// UnsupportedKindError reports a requested kind without a generator.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported generator %q", e.Kind)
}

// Pipeline maps artifact kinds to generators. Register is not safe to
// call concurrently with Generate; Generate itself may run concurrently.
type Pipeline struct {
	gens map[string]Generator
}

// NewPipeline returns a Pipeline with the built-in generators registered.
func NewPipeline() *Pipeline {
	p := &Pipeline{gens: make(map[string]Generator)}
	p.Register(CMakeDeps, GeneratorFunc(cmakeDeps))
	p.Register(CMakeToolchain, GeneratorFunc(cmakeToolchain))
	p.Register(BuildEnv, GeneratorFunc(buildEnv))
	p.Register(Lockfile, GeneratorFunc(lockfile))
	return p
}

// Register sets the generator of kind, replacing any earlier one.
func (p *Pipeline) Register(kind string, g Generator) {
	p.gens[kind] = g
}

// Kinds returns the registered kinds in sorted order.
func (p *Pipeline) Kinds() []string {
	return slices.Sorted(maps.Keys(p.gens))
}

// Generate produces one artifact per requested kind, in the order
// requested. Repeated kinds are generated once. Every kind is checked
// before anything is generated.
func (p *Pipeline) Generate(in *Input, kinds []string) ([]Artifact, error) {
	var unique []string
	for _, k := range kinds {
		if _, ok := p.gens[k]; !ok {
			return nil, &UnsupportedKindError{Kind: k}
		}
		if !slices.Contains(unique, k) {
			unique = append(unique, k)
		}
	}
	arts := make([]Artifact, 0, len(unique))
	for _, k := range unique {
		a, err := p.gens[k].Generate(in)
		if err != nil {
			return nil, fmt.Errorf("generate %s: %w", k, err)
		}
		a.Kind = k
		arts = append(arts, a)
	}
	return arts, nil
}
