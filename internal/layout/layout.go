// Package layout computes where generated files and build outputs go.
//
// Directory layout:
//
//	<root>/
//	  build/
//	    <build_type>/
//	      <matrix>/               # settings.Settings.Matrix()
//	        generators/           # integration artifacts
//	        output/               # compiled outputs
//	          packages/<name>@<version>/
//
// Nothing here touches the filesystem.
package layout

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/goplus/llman/pkgs/mod/module"
	"github.com/goplus/llman/settings"
)

// ErrInvalidLayout is returned for build types or settings that cannot
// name a directory inside the build tree.
var ErrInvalidLayout = errors.New("invalid layout")

// Plan holds the directories of one configuration.
type Plan struct {
	Root       string // the project root
	BuildType  string
	Matrix     string
	Generators string
	Output     string
}

// BuildRoot returns the configuration's directory, the parent of
// Generators and Output.
func (p Plan) BuildRoot() string { return filepath.Dir(p.Generators) }

// PackageDir returns the install prefix of a package inside Output.
func (p Plan) PackageDir(v module.Version) string {
	return filepath.Join(p.Output, "packages", v.Path+"@"+v.Version)
}

var buildTypeRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.+]*$`)

// New plans the directories for projectRoot, buildType and s. Different
// build types or different settings always give disjoint directories.
func New(projectRoot, buildType string, s settings.Settings) (Plan, error) {
	if !buildTypeRegexp.MatchString(buildType) {
		return Plan{}, fmt.Errorf("%w: build type %q", ErrInvalidLayout, buildType)
	}
	if err := s.Validate(); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	root := filepath.Clean(projectRoot)
	matrix := s.Matrix()
	buildRoot := filepath.Join(root, "build", buildType, matrix)
	return Plan{
		Root:       root,
		BuildType:  buildType,
		Matrix:     matrix,
		Generators: filepath.Join(buildRoot, "generators"),
		Output:     filepath.Join(buildRoot, "output"),
	}, nil
}
