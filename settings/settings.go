// Package settings models the project-wide configuration axes (operating
// system, compiler, build type, CPU architecture) whose values are supplied
// when a manifest is resolved, not when it is written.
package settings

import (
	"fmt"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Well-known axes.
const (
	OS        = "os"
	Compiler  = "compiler"
	BuildType = "build_type"
	Arch      = "arch"
)

// matrixAxes are the axes that always occupy a slot in Matrix, in order.
var matrixAxes = []string{Arch, Compiler, OS}

// unsetValue fills the Matrix slot of an unset axis.
const unsetValue = "any"

// Settings is an immutable set of axis values. Axis names may be dotted to
// express sub-settings of an axis, e.g. "compiler.cppstd".
//
// The zero value is an empty set and ready to use.
type Settings struct {
	values map[string]string
}

// New returns Settings holding a copy of kv.
func New(kv map[string]string) Settings {
	if len(kv) == 0 {
		return Settings{}
	}
	return Settings{values: maps.Clone(kv)}
}

// Parse builds Settings from "key=value" pairs. Later pairs override
// earlier ones.
func Parse(pairs []string) (Settings, error) {
	kv := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" {
			return Settings{}, fmt.Errorf("invalid setting %q: want key=value", p)
		}
		kv[k] = v
	}
	return New(kv), nil
}

// Get returns the value of axis key.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Value returns the value of axis key, or "" when unset.
func (s Settings) Value(key string) string {
	return s.values[key]
}

// Len returns the number of axes set.
func (s Settings) Len() int { return len(s.values) }

// Keys returns the axis names in sorted order.
func (s Settings) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// All iterates over the axes in sorted key order.
func (s Settings) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range s.Keys() {
			if !yield(k, s.values[k]) {
				return
			}
		}
	}
}

// With returns a copy of s with key set to value.
func (s Settings) With(key, value string) Settings {
	kv := make(map[string]string, len(s.values)+1)
	maps.Copy(kv, s.values)
	kv[key] = value
	return Settings{values: kv}
}

// Merge returns a copy of s overlaid with every axis of over.
func (s Settings) Merge(over Settings) Settings {
	if over.Len() == 0 {
		return s
	}
	kv := make(map[string]string, len(s.values)+len(over.values))
	maps.Copy(kv, s.values)
	maps.Copy(kv, over.values)
	return Settings{values: kv}
}

// Restrict returns the subset of s that belongs to axes. Sub-settings
// follow their parent: restricting to "compiler" keeps "compiler.cppstd".
// An empty axes list keeps everything.
func (s Settings) Restrict(axes []string) Settings {
	if len(axes) == 0 {
		return s
	}
	kv := make(map[string]string)
	for k, v := range s.values {
		root, _, _ := strings.Cut(k, ".")
		if slices.Contains(axes, root) {
			kv[k] = v
		}
	}
	return Settings{values: kv}
}

// Equal reports whether s and o hold the same axes and values.
func (s Settings) Equal(o Settings) bool {
	return maps.Equal(s.values, o.values)
}

// Map returns a copy of the underlying key/value pairs.
func (s Settings) Map() map[string]string {
	return maps.Clone(s.values)
}

var valueRegexp = regexp.MustCompile(`^[A-Za-z0-9_.+]+$`)

var keyRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// Validate checks that every axis name is a lowercase dotted identifier
// and every value is a non-empty token of letters, digits, '_', '.' or '+'
// other than "any", which Matrix uses for unset axes. Valid settings
// always render to a single, unambiguous path element.
func (s Settings) Validate() error {
	for _, k := range s.Keys() {
		if !keyRegexp.MatchString(k) {
			return fmt.Errorf("invalid setting name %q", k)
		}
		v := s.values[k]
		if !valueRegexp.MatchString(v) {
			return fmt.Errorf("invalid value %q for setting %s", v, k)
		}
		if v == unsetValue {
			return fmt.Errorf("setting %s: %q is reserved for unset axes", k, v)
		}
	}
	return nil
}

// Matrix returns the configuration key of s. Arch, compiler and os always
// take a slot (in that order, "any" when unset), followed by every other
// axis except build_type as key=value, sorted by key:
//
//	x86_64-gcc-Linux
//	armv8-clang-Macos-compiler.cppstd=17
//
// Build type is left out because layouts key on it separately.
func (s Settings) Matrix() string {
	parts := make([]string, 0, len(s.values)+len(matrixAxes))
	for _, axis := range matrixAxes {
		v, ok := s.values[axis]
		if !ok || v == "" {
			v = unsetValue
		}
		parts = append(parts, v)
	}
	for _, k := range s.Keys() {
		if k == BuildType || slices.Contains(matrixAxes, k) {
			continue
		}
		parts = append(parts, k+"="+s.values[k])
	}
	return strings.Join(parts, "-")
}

// String returns the settings as space separated key=value pairs in key
// order.
func (s Settings) String() string {
	var b strings.Builder
	for k, v := range s.All() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}
