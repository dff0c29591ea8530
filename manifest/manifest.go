// Package manifest holds the declarations of a consuming project: the
// packages it requires, the options it sets on them, the settings axes it
// depends on and the integration files it wants generated.
//
// A Manifest is written by a single goroutine and then frozen; after Freeze
// it is read-only and may be shared.
package manifest

import (
	"fmt"
	"iter"
	"regexp"
	"slices"

	"github.com/goplus/llman/pkgs/mod/module"
	"github.com/goplus/llman/pkgs/mod/versions"
)

// Requirement is a declared dependency.
type Requirement struct {
	Name    string
	Version string // exact version or range, as written
	Origin  string // registry name, "" for the default registry

	constraint versions.Constraint
}

// Constraint returns the parsed form of Version.
func (r Requirement) Constraint() versions.Constraint { return r.constraint }

// Ref returns r as a package reference.
func (r Requirement) Ref() module.Ref {
	return module.Ref{Name: r.Name, Version: r.Version, Origin: r.Origin}
}

func (r Requirement) String() string { return r.Ref().String() }

// OptionKey is a declared option: a pattern, an option name and a value.
type OptionKey struct {
	Pattern Pattern
	Name    string
	Value   Value

	pass int
}

// Pass returns the authoring pass the option was declared in.
func (k OptionKey) Pass() int { return k.pass }

func (k OptionKey) String() string {
	return k.Pattern.String() + ":" + k.Name + "=" + k.Value.String()
}

// Manifest is the in-memory form of a project's dependency declarations.
type Manifest struct {
	Name    string
	Version string

	reqs       []Requirement
	opts       []OptionKey
	generators []string
	axes       []string
	pass       int
	frozen     bool
}

// New returns an empty manifest in pass 0.
func New() *Manifest {
	return &Manifest{}
}

// DeclareRequirement adds the requirement name, or replaces it in place if
// name was declared before.
func (m *Manifest) DeclareRequirement(name, version, origin string) error {
	if m.frozen {
		return ErrFrozen
	}
	if err := module.CheckName(name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	c, err := versions.Parse(version)
	if err != nil {
		return &InvalidVersionError{Package: name, Version: version, Err: err}
	}
	req := Requirement{Name: name, Version: c.String(), Origin: origin, constraint: c}
	if i := m.indexOf(name); i >= 0 {
		m.reqs[i] = req
		return nil
	}
	m.reqs = append(m.reqs, req)
	return nil
}

func (m *Manifest) indexOf(name string) int {
	return slices.IndexFunc(m.reqs, func(r Requirement) bool { return r.Name == name })
}

var optionRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// DeclareOption sets option name to value on the packages matched by
// pattern. A redeclaration replaces the earlier entry and becomes the most
// recent one. Two exact declarations of the same option with different
// values in the same pass fail with ConflictingOptionError.
func (m *Manifest) DeclareOption(pattern, name string, value Value) error {
	if m.frozen {
		return ErrFrozen
	}
	p, err := ParsePattern(pattern)
	if err != nil {
		return err
	}
	if !optionRegexp.MatchString(name) {
		return fmt.Errorf("%w: option %q", ErrInvalidName, name)
	}
	i := slices.IndexFunc(m.opts, func(k OptionKey) bool {
		return k.Pattern == p && k.Name == name
	})
	if i >= 0 {
		prev := m.opts[i]
		if !p.IsWildcard() && prev.pass == m.pass && !prev.Value.Equal(value) {
			return &ConflictingOptionError{Package: p.Package(), Option: name, Prev: prev.Value, Value: value}
		}
		m.opts = slices.Delete(m.opts, i, i+1)
	}
	m.opts = append(m.opts, OptionKey{Pattern: p, Name: name, Value: value, pass: m.pass})
	return nil
}

// BeginPass starts a new authoring pass. Declarations made in a later pass
// override earlier ones without conflict.
func (m *Manifest) BeginPass() {
	m.pass++
}

// Freeze makes m read-only. Further declarations fail with ErrFrozen.
func (m *Manifest) Freeze() {
	m.frozen = true
}

// Frozen reports whether Freeze was called.
func (m *Manifest) Frozen() bool { return m.frozen }

// Requirements yields the requirements in declaration order.
func (m *Manifest) Requirements() iter.Seq[Requirement] {
	return func(yield func(Requirement) bool) {
		for _, r := range m.reqs {
			if !yield(r) {
				return
			}
		}
	}
}

// Requirement returns the requirement called name.
func (m *Manifest) Requirement(name string) (Requirement, bool) {
	if i := m.indexOf(name); i >= 0 {
		return m.reqs[i], true
	}
	return Requirement{}, false
}

// Options yields the option declarations, oldest first.
func (m *Manifest) Options() iter.Seq[OptionKey] {
	return func(yield func(OptionKey) bool) {
		for _, k := range m.opts {
			if !yield(k) {
				return
			}
		}
	}
}

var kindRegexp = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// AddGenerator requests the integration artifact kind. Duplicates are
// ignored.
func (m *Manifest) AddGenerator(kind string) error {
	if m.frozen {
		return ErrFrozen
	}
	if !kindRegexp.MatchString(kind) {
		return fmt.Errorf("%w: generator %q", ErrInvalidName, kind)
	}
	if !slices.Contains(m.generators, kind) {
		m.generators = append(m.generators, kind)
	}
	return nil
}

// Generators returns the requested artifact kinds in declaration order.
func (m *Manifest) Generators() []string { return slices.Clone(m.generators) }

// DeclareSettings records the settings axes the project depends on.
func (m *Manifest) DeclareSettings(axes ...string) error {
	if m.frozen {
		return ErrFrozen
	}
	for _, a := range axes {
		if !optionRegexp.MatchString(a) {
			return fmt.Errorf("%w: setting %q", ErrInvalidName, a)
		}
		if !slices.Contains(m.axes, a) {
			m.axes = append(m.axes, a)
		}
	}
	return nil
}

// SettingsAxes returns the declared settings axes.
func (m *Manifest) SettingsAxes() []string { return slices.Clone(m.axes) }
