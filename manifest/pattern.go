package manifest

import (
	"fmt"
	"strings"

	"github.com/goplus/llman/pkgs/mod/module"
)

// Wildcard is the pattern matching every package.
const Wildcard = "*"

// Pattern selects the packages an option applies to. It is either the
// wildcard or a single package, written "name" or "name/*".
// The zero value is the wildcard.
type Pattern struct {
	pkg string
}

// ParsePattern parses the pattern part of an option declaration.
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == Wildcard {
		return Pattern{}, nil
	}
	name := strings.TrimSuffix(s, "/*")
	if err := module.CheckName(name); err != nil {
		return Pattern{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, s, err)
	}
	return Pattern{pkg: name}, nil
}

// ExactPattern returns the pattern that matches only the named package.
func ExactPattern(name string) Pattern { return Pattern{pkg: name} }

// IsWildcard reports whether p matches every package.
func (p Pattern) IsWildcard() bool { return p.pkg == "" }

// Package returns the package p names, or "" for the wildcard.
func (p Pattern) Package() string { return p.pkg }

// Matches reports whether p applies to the package name.
func (p Pattern) Matches(name string) bool {
	return p.pkg == "" || p.pkg == name
}

func (p Pattern) String() string {
	if p.pkg == "" {
		return Wildcard
	}
	return p.pkg + "/*"
}
