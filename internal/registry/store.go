// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/goplus/llman/manifest"
	"github.com/goplus/llman/pkgs/mod/module"
	"gopkg.in/yaml.v3"
)

// Recipe file names looked up in a package directory, in order.
const (
	RecipeTOML = "recipe.toml"
	RecipeYAML = "recipe.yaml"
)

// Store is a Registry reading recipes from a local directory:
//
//	dir/
//	  <escaped name>/
//	    recipe.toml        (or recipe.yaml)
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory of s.
func (s *Store) Dir() string { return s.dir }

// Lookup reads the recipe of req.Name.
func (s *Store) Lookup(ctx context.Context, req manifest.Requirement) (*Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pkgDir, err := s.packageDirOf(req.Name)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{RecipeTOML, RecipeYAML} {
		data, err := os.ReadFile(filepath.Join(pkgDir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		r, err := parseRecipe(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(pkgDir, name), err)
		}
		if r.Name == "" {
			r.Name = req.Name
		}
		return r, nil
	}
	return nil, fmt.Errorf("%s: %w", req.Name, ErrNotFound)
}

// packageDirOf returns the directory of a package within the store.
func (s *Store) packageDirOf(name string) (string, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, escaped), nil
}

// recipeFile is the on-disk form of a Recipe:
//
//	versions = ["1.86.0", "1.88.0"]
//	requires = ["zlib/1.3.1"]
//
//	[options]
//	shared = [true, false]
//
//	[default_options]
//	shared = false
type recipeFile struct {
	Name     string           `toml:"name" yaml:"name"`
	Versions []string         `toml:"versions" yaml:"versions"`
	Requires []string         `toml:"requires" yaml:"requires"`
	Options  map[string][]any `toml:"options" yaml:"options"`
	Defaults map[string]any   `toml:"default_options" yaml:"default_options"`
}

func parseRecipe(name string, data []byte) (*Recipe, error) {
	var rf recipeFile
	switch filepath.Ext(name) {
	case ".toml":
		if _, err := toml.Decode(string(data), &rf); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, err
		}
	}

	r := &Recipe{
		Name:     rf.Name,
		Versions: rf.Versions,
		Requires: rf.Requires,
	}
	if len(rf.Options) > 0 {
		r.Options = make(map[string][]string, len(rf.Options))
		for opt, choices := range rf.Options {
			for _, c := range choices {
				v, err := manifest.ValueOf(c)
				if err != nil {
					return nil, fmt.Errorf("option %s: %w", opt, err)
				}
				r.Options[opt] = append(r.Options[opt], v.String())
			}
		}
	}
	if len(rf.Defaults) > 0 {
		r.Defaults = make(map[string]manifest.Value, len(rf.Defaults))
		for opt, raw := range rf.Defaults {
			v, err := manifest.ValueOf(raw)
			if err != nil {
				return nil, fmt.Errorf("default option %s: %w", opt, err)
			}
			r.Defaults[opt] = v
		}
	}
	return r, nil
}
