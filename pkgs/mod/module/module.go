// Package module defines the module.Version and module.Ref types along with
// support code for package names.
package module

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// A Version represents a specific version of a package identified by its path.
type Version struct {
	Path    string // Package name, e.g. "boost"
	Version string // Version string, e.g. "1.88.0"
}

// String returns the "path/version" form of v.
func (v Version) String() string {
	if v.Version == "" {
		return v.Path
	}
	return v.Path + "/" + v.Version
}

// A Ref is a package reference as written in a manifest:
//
//	name/version[@origin]
//
// Origin names the registry the package comes from; it is empty for the
// default registry.
type Ref struct {
	Name    string
	Version string
	Origin  string
}

// String formats r back into its textual form.
func (r Ref) String() string {
	s := r.Name + "/" + r.Version
	if r.Origin != "" {
		s += "@" + r.Origin
	}
	return s
}

// ErrInvalidRef is returned by ParseRef for malformed references.
var ErrInvalidRef = errors.New("invalid package reference")

// ParseRef parses a reference in the form "name/version[@origin]".
// The version part is returned verbatim; validating it is up to the caller.
func ParseRef(s string) (Ref, error) {
	var r Ref
	rest := strings.TrimSpace(s)
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		rest, r.Origin = rest[:i], rest[i+1:]
		if r.Origin == "" {
			return Ref{}, fmt.Errorf("%w: %q: empty origin", ErrInvalidRef, s)
		}
	}
	name, version, ok := strings.Cut(rest, "/")
	if !ok || version == "" {
		return Ref{}, fmt.Errorf("%w: %q: want name/version", ErrInvalidRef, s)
	}
	if err := CheckName(name); err != nil {
		return Ref{}, fmt.Errorf("%w: %q: %v", ErrInvalidRef, s, err)
	}
	r.Name, r.Version = name, version
	return r, nil
}

var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_+.-]*$`)

const maxNameLen = 101

// CheckName reports whether name is a valid package name. Names start with
// a letter, digit or underscore and may contain '+', '.', '-' afterwards.
// They never contain path separators, so a valid name is always a single
// path element.
func CheckName(name string) error {
	switch {
	case name == "":
		return errors.New("package name cannot be empty")
	case len(name) > maxNameLen:
		return fmt.Errorf("package name too long (max %d characters)", maxNameLen)
	case strings.Contains(name, ".."):
		return fmt.Errorf("package name %q contains \"..\"", name)
	case !nameRegexp.MatchString(name):
		return fmt.Errorf("package name %q contains invalid characters", name)
	}
	return nil
}

// EscapePath returns the escaped form of the given package path as a valid
// file system path. It fails if the path is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}
