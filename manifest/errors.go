package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned for declarations made after Freeze.
	ErrFrozen = errors.New("manifest is frozen")
	// ErrInvalidPattern is returned for option patterns other than "*",
	// "name" or "name/*".
	ErrInvalidPattern = errors.New("invalid option pattern")
	// ErrInvalidName is returned for malformed package, option or
	// generator names.
	ErrInvalidName = errors.New("invalid name")
)

// InvalidVersionError reports a requirement whose version does not parse.
type InvalidVersionError struct {
	Package string
	Version string
	Err     error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("requirement %s: invalid version %q: %v", e.Package, e.Version, e.Err)
}

func (e *InvalidVersionError) Unwrap() error { return e.Err }

// ConflictingOptionError reports two exact declarations of the same option
// for the same package that disagree within one authoring pass.
type ConflictingOptionError struct {
	Package string
	Option  string
	Prev    Value
	Value   Value
}

func (e *ConflictingOptionError) Error() string {
	return fmt.Sprintf("option %s:%s declared as %s and %s", e.Package, e.Option, e.Prev, e.Value)
}
