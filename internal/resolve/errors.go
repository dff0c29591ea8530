package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goplus/llman/manifest"
)

// ErrNoMatchingVersion is wrapped by UnresolvedDependencyError when the
// registry knows a package but none of its versions satisfies the
// requirement.
var ErrNoMatchingVersion = errors.New("no matching version")

// UnknownPackageError reports an exact option pattern naming a package
// that is not required by the manifest.
type UnknownPackageError struct {
	Package string
	Option  string
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("option %s/*:%s: package %s is not required", e.Package, e.Option, e.Package)
}

// UnresolvedDependencyError reports a requirement the registry could not
// satisfy.
type UnresolvedDependencyError struct {
	Package string
	Version string
	Err     error
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("cannot resolve %s/%s: %v", e.Package, e.Version, e.Err)
}

func (e *UnresolvedDependencyError) Unwrap() error { return e.Err }

// InvalidOptionError reports a resolved option value the package's recipe
// does not allow.
type InvalidOptionError struct {
	Package string
	Option  string
	Value   manifest.Value
	Choices []string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("option %s:%s=%s not in [%s]", e.Package, e.Option, e.Value, strings.Join(e.Choices, ", "))
}
