package internal

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/goplus/llman/internal/env"
	"github.com/goplus/llman/internal/profile"
	"github.com/goplus/llman/internal/registry"
	"github.com/goplus/llman/manifest"
)

// workspace is everything a command needs to run against one project.
type workspace struct {
	Root     string
	Manifest *manifest.Manifest
	Profile  *profile.Profile
	Registry registry.Registry // nil when no recipes are available
}

// projectDir returns the project directory named by args, or the current
// directory.
func projectDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	return filepath.Abs(dir)
}

// loadWorkspace loads the manifest in dir and layers the profile options
// and then the -o options over it, each in a pass of its own so that a
// later layer may override an exact option of an earlier one.
func loadWorkspace(ctx context.Context, dir string) (*workspace, error) {
	logger := loggerFromContext(ctx)

	path, err := manifest.Find(dir)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded manifest", "path", path)

	prof, err := profile.Load(profile.LoadOptions{Name: profileName, Overrides: settingFlags})
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded profile", "name", prof.Name, "path", prof.Path, "settings", prof.Settings.String())

	var profOpts []string
	for _, key := range prof.OptionKeys() {
		profOpts = append(profOpts, key+"="+prof.Options[key])
	}
	if err := applyOptions(m, profOpts); err != nil {
		return nil, fmt.Errorf("profile %s: %w", prof.Name, err)
	}
	if err := applyOptions(m, optionFlags); err != nil {
		return nil, err
	}

	reg, err := openRegistry(prof)
	if err != nil {
		return nil, err
	}
	switch reg := reg.(type) {
	case *registry.Store:
		logger.Debug("using recipes", "dir", reg.Dir())
	case *registry.Multi:
		logger.Debug("using recipes", "origins", len(reg.Origins))
	}
	return &workspace{Root: dir, Manifest: m, Profile: prof, Registry: reg}, nil
}

// applyOptions declares "pattern:name=value" options in a new pass of m.
func applyOptions(m *manifest.Manifest, opts []string) error {
	if len(opts) == 0 {
		return nil
	}
	m.BeginPass()
	for _, s := range opts {
		pattern, name, v, err := manifest.ParseOption(s)
		if err != nil {
			return err
		}
		if err := m.DeclareOption(pattern, name, v); err != nil {
			return err
		}
	}
	return nil
}

// openRegistry picks the recipe store for requirements without an origin
// (--registry, then the profile, then the default recipe directory when it
// holds any recipe) and adds one store per [conf.registries] origin.
func openRegistry(prof *profile.Profile) (registry.Registry, error) {
	def, err := defaultStore(prof)
	if err != nil {
		return nil, err
	}
	if len(prof.Registries) == 0 {
		if def == nil {
			return nil, nil
		}
		return def, nil
	}
	multi := &registry.Multi{Origins: make(map[string]registry.Registry, len(prof.Registries))}
	if def != nil {
		multi.Default = def
	}
	for _, origin := range slices.Sorted(maps.Keys(prof.Registries)) {
		s, err := openStore(prof.Registries[origin])
		if err != nil {
			return nil, fmt.Errorf("registry %s: %w", origin, err)
		}
		multi.Origins[origin] = s
	}
	return multi, nil
}

func defaultStore(prof *profile.Profile) (*registry.Store, error) {
	dir := registryDir
	if dir == "" {
		dir = prof.Registry
	}
	if dir != "" {
		s, err := openStore(dir)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		return s, nil
	}
	dir, err := env.RecipeDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return registry.NewStore(dir), nil
}

// openStore returns the store rooted at dir, which must exist.
func openStore(dir string) (*registry.Store, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return registry.NewStore(dir), nil
}
