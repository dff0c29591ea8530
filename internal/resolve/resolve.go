// Package resolve computes one concrete configuration per required
// package: the version to use, the merged option set and the settings in
// effect.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/goplus/llman/internal/registry"
	"github.com/goplus/llman/manifest"
	"github.com/goplus/llman/pkgs/mod/versions"
	"github.com/goplus/llman/settings"
)

// Tier is the precedence level an option value came from. Higher tiers
// win.
type Tier int

const (
	TierDefault  Tier = iota // recipe default
	TierWildcard             // "*" pattern
	TierExact                // "name" or "name/*" pattern
)

func (t Tier) String() string {
	switch t {
	case TierDefault:
		return "default"
	case TierWildcard:
		return "wildcard"
	case TierExact:
		return "exact"
	}
	return "unknown"
}

// Option is one resolved option of a package.
type Option struct {
	Name  string
	Value manifest.Value
	Tier  Tier
}

// Package is the resolution result for one requirement. Packages are
// values; resolving again builds new ones.
type Package struct {
	Requirement manifest.Requirement
	// Version is the registry-selected version or the pin of an exact
	// requirement. It is empty for a range resolved without a registry.
	Version  string
	Options  []Option // sorted by name
	Settings settings.Settings
	Requires []string
}

// Name returns the package name.
func (p Package) Name() string { return p.Requirement.Name }

// Option returns the value of the named option.
func (p Package) Option(name string) (manifest.Value, bool) {
	i, ok := slices.BinarySearchFunc(p.Options, name, func(o Option, name string) int {
		return strings.Compare(o.Name, name)
	})
	if !ok {
		return manifest.Value{}, false
	}
	return p.Options[i].Value, true
}

// Options configures Resolve.
type Options struct {
	// Registry supplies versions and default options. When nil, exact
	// requirements resolve to their pin and no defaults apply, and
	// requirements naming an origin fail to resolve.
	Registry registry.Registry
	Logger   *log.Logger
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Resolve merges the option declarations of m into one option set per
// requirement, in requirement declaration order. For each package, recipe
// defaults are applied first, then wildcard declarations, then exact ones,
// each tier in declaration order; the last value applied wins.
//
// Settings are restricted to the axes m declares, if it declares any.
// The result depends only on the inputs.
func Resolve(ctx context.Context, m *manifest.Manifest, s settings.Settings, opts *Options) ([]Package, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	o.setDefaults()

	reqs := slices.Collect(m.Requirements())
	decls := slices.Collect(m.Options())
	for _, k := range decls {
		if k.Pattern.IsWildcard() {
			continue
		}
		if !slices.ContainsFunc(reqs, func(r manifest.Requirement) bool { return r.Name == k.Pattern.Package() }) {
			return nil, &UnknownPackageError{Package: k.Pattern.Package(), Option: k.Name}
		}
	}

	s = s.Restrict(m.SettingsAxes())
	pkgs := make([]Package, 0, len(reqs))
	for _, req := range reqs {
		pkg, err := resolveOne(ctx, req, decls, s, &o)
		if err != nil {
			return nil, err
		}
		o.Logger.Debug("resolved", "package", req.Name, "version", pkg.Version, "options", len(pkg.Options))
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func resolveOne(ctx context.Context, req manifest.Requirement, decls []manifest.OptionKey, s settings.Settings, o *Options) (Package, error) {
	pkg := Package{Requirement: req, Settings: s}
	if c := req.Constraint(); c.IsExact() {
		pkg.Version = c.Exact()
	}

	recipe, err := lookup(ctx, o.Registry, req)
	if err != nil {
		return Package{}, &UnresolvedDependencyError{Package: req.Name, Version: req.Version, Err: err}
	}
	var opts []Option
	if recipe != nil {
		if len(recipe.Versions) > 0 || !req.Constraint().IsExact() {
			v, ok := versions.Best(req.Constraint(), recipe.Versions)
			if !ok {
				return Package{}, &UnresolvedDependencyError{Package: req.Name, Version: req.Version, Err: ErrNoMatchingVersion}
			}
			pkg.Version = v
		}
		pkg.Requires = slices.Clone(recipe.Requires)
		for _, name := range recipe.DefaultNames() {
			opts = set(opts, Option{Name: name, Value: recipe.Defaults[name], Tier: TierDefault})
		}
	}

	for _, tier := range []Tier{TierWildcard, TierExact} {
		for _, k := range decls {
			if tierOf(k.Pattern) != tier || !k.Pattern.Matches(req.Name) {
				continue
			}
			opts = set(opts, Option{Name: k.Name, Value: k.Value, Tier: tier})
		}
	}

	slices.SortFunc(opts, func(a, b Option) int { return strings.Compare(a.Name, b.Name) })
	if recipe != nil {
		for _, opt := range opts {
			if !recipe.Allows(opt.Name, opt.Value) {
				return Package{}, &InvalidOptionError{
					Package: req.Name,
					Option:  opt.Name,
					Value:   opt.Value,
					Choices: recipe.Options[opt.Name],
				}
			}
		}
	}
	pkg.Options = opts
	return pkg, nil
}

// lookup returns the recipe of req, or nil when no registry serves
// requirements without an origin. A requirement naming an origin always
// needs a registry for it.
func lookup(ctx context.Context, reg registry.Registry, req manifest.Requirement) (*registry.Recipe, error) {
	if reg == nil {
		if req.Origin != "" {
			return nil, fmt.Errorf("no registry for origin %q: %w", req.Origin, registry.ErrNotFound)
		}
		return nil, nil
	}
	recipe, err := reg.Lookup(ctx, req)
	if req.Origin == "" && errors.Is(err, registry.ErrNoRegistry) {
		return nil, nil
	}
	return recipe, err
}

func tierOf(p manifest.Pattern) Tier {
	if p.IsWildcard() {
		return TierWildcard
	}
	return TierExact
}

// set replaces the option of the same name in opts, or appends o.
func set(opts []Option, o Option) []Option {
	if i := slices.IndexFunc(opts, func(x Option) bool { return x.Name == o.Name }); i >= 0 {
		opts[i] = o
		return opts
	}
	return append(opts, o)
}
