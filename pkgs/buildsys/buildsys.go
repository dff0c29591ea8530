// Package buildsys models what a downstream build system needs to find
// installed dependencies. Writers in the subpackages (cmake, autotools)
// collect that information through chainable calls and render it as a
// script; rendering is deterministic.
package buildsys

import (
	"path"
	"slices"
	"strings"
)

// Dep is an installed dependency as seen by a build system.
type Dep struct {
	Name    string
	Version string
	Dir     string // install prefix, slash separated
}

// IncludeDir returns the header directory of d.
func (d Dep) IncludeDir() string { return path.Join(d.Dir, "include") }

// LibDir returns the library directory of d.
func (d Dep) LibDir() string { return path.Join(d.Dir, "lib") }

// PkgConfigDir returns the pkg-config directory of d.
func (d Dep) PkgConfigDir() string { return path.Join(d.Dir, "lib", "pkgconfig") }

// Script captures shared capabilities of integration script writers.
type Script interface {
	// Use makes an installed dependency visible to the build.
	Use(dep Dep)

	// Render returns the script body.
	Render() []byte
}

// VarKind tells how the values of an environment variable are joined and
// combined with the value already present in the environment.
type VarKind int

const (
	Plain VarKind = iota // replaces the existing value
	PathList             // prepended to the existing value, list separated
	Flags                // appended to the existing value, space separated
)

// Var is one environment variable of an Environment.
type Var struct {
	Name   string
	Kind   VarKind
	Values []string
}

// Environment is an ordered set of environment variable edits for one
// target platform.
type Environment struct {
	windows bool
	vars    []*Var
}

// NewEnvironment returns an empty Environment for Windows or for unix
// style targets.
func NewEnvironment(windows bool) *Environment {
	return &Environment{windows: windows}
}

// Windows reports whether e targets Windows.
func (e *Environment) Windows() bool { return e.windows }

// Separator returns the path list separator of the target platform.
func (e *Environment) Separator() string {
	if e.windows {
		return ";"
	}
	return ":"
}

func (e *Environment) lookup(name string, kind VarKind) *Var {
	for _, v := range e.vars {
		if v.Name == name {
			return v
		}
	}
	v := &Var{Name: name, Kind: kind}
	e.vars = append(e.vars, v)
	return v
}

// Set sets name to val, dropping earlier values.
func (e *Environment) Set(name, val string) {
	v := e.lookup(name, Plain)
	v.Kind, v.Values = Plain, []string{val}
}

// AddPath adds dir to the path list name. Duplicates are ignored.
func (e *Environment) AddPath(name, dir string) {
	v := e.lookup(name, PathList)
	if !slices.Contains(v.Values, dir) {
		v.Values = append(v.Values, dir)
	}
}

// AddFlag appends flag to the flags variable name.
func (e *Environment) AddFlag(name, flag string) {
	v := e.lookup(name, Flags)
	if !slices.Contains(v.Values, flag) {
		v.Values = append(v.Values, flag)
	}
}

// Use adds the search paths of dep: pkg-config and CMake paths on every
// platform, INCLUDE and LIB on Windows, CPPFLAGS and LDFLAGS elsewhere.
func (e *Environment) Use(dep Dep) {
	e.AddPath("PKG_CONFIG_PATH", e.native(dep.PkgConfigDir()))
	e.AddPath("CMAKE_PREFIX_PATH", e.native(dep.Dir))
	e.AddPath("CMAKE_INCLUDE_PATH", e.native(dep.IncludeDir()))
	e.AddPath("CMAKE_LIBRARY_PATH", e.native(dep.LibDir()))

	if e.windows {
		e.AddPath("INCLUDE", e.native(dep.IncludeDir()))
		e.AddPath("LIB", e.native(dep.LibDir()))
	} else {
		e.AddFlag("CPPFLAGS", "-I"+dep.IncludeDir())
		e.AddFlag("LDFLAGS", "-L"+dep.LibDir())
	}
}

// native converts a slash separated path to the target's separator.
func (e *Environment) native(p string) string {
	if e.windows {
		return strings.ReplaceAll(p, "/", `\`)
	}
	return p
}

// Vars returns the variables of e in the order they were first touched.
func (e *Environment) Vars() []Var {
	out := make([]Var, len(e.vars))
	for i, v := range e.vars {
		out[i] = Var{Name: v.Name, Kind: v.Kind, Values: slices.Clone(v.Values)}
	}
	return out
}

// Value returns the joined value of name, not including what the
// environment already holds.
func (e *Environment) Value(name string) string {
	for _, v := range e.vars {
		if v.Name != name {
			continue
		}
		switch v.Kind {
		case PathList:
			return strings.Join(v.Values, e.Separator())
		case Flags:
			return strings.Join(v.Values, " ")
		}
		return strings.Join(v.Values, "")
	}
	return ""
}
