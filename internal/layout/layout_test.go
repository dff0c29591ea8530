package layout

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/llman/pkgs/mod/module"
	"github.com/goplus/llman/settings"
)

var linux = settings.New(map[string]string{
	settings.OS:       "Linux",
	settings.Arch:     "x86_64",
	settings.Compiler: "gcc",
})

func TestNew(t *testing.T) {
	root := filepath.Join("proj", "app")
	p, err := New(root, "Release", linux)
	if err != nil {
		t.Fatal(err)
	}
	buildRoot := filepath.Join(root, "build", "Release", "x86_64-gcc-Linux")
	if p.Generators != filepath.Join(buildRoot, "generators") {
		t.Errorf("Generators = %q", p.Generators)
	}
	if p.Output != filepath.Join(buildRoot, "output") {
		t.Errorf("Output = %q", p.Output)
	}
	if p.BuildRoot() != buildRoot {
		t.Errorf("BuildRoot() = %q", p.BuildRoot())
	}
	if p.Matrix != "x86_64-gcc-Linux" || p.BuildType != "Release" {
		t.Errorf("plan = %+v", p)
	}
	want := filepath.Join(buildRoot, "output", "packages", "boost@1.88.0")
	if got := p.PackageDir(module.Version{Path: "boost", Version: "1.88.0"}); got != want {
		t.Errorf("PackageDir = %q, want %q", got, want)
	}
}

func TestNewPure(t *testing.T) {
	a, _ := New("/p", "Debug", linux)
	b, _ := New("/p", "Debug", linux)
	if a != b {
		t.Errorf("plans differ: %+v vs %+v", a, b)
	}
}

func within(dir, parent string) bool {
	rel, err := filepath.Rel(parent, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func disjoint(a, b Plan) bool {
	for _, x := range []string{a.Generators, a.Output} {
		for _, y := range []string{b.Generators, b.Output} {
			if within(x, y) || within(y, x) {
				return false
			}
		}
	}
	return true
}

func TestDisjoint(t *testing.T) {
	debug, err := New("/p", "Debug", linux)
	if err != nil {
		t.Fatal(err)
	}
	release, err := New("/p", "Release", linux)
	if err != nil {
		t.Fatal(err)
	}
	if !disjoint(debug, release) {
		t.Errorf("debug and release overlap: %+v %+v", debug, release)
	}

	arm, err := New("/p", "Debug", linux.With(settings.Arch, "armv8"))
	if err != nil {
		t.Fatal(err)
	}
	if !disjoint(debug, arm) {
		t.Errorf("x86_64 and armv8 overlap: %+v %+v", debug, arm)
	}
	if within(debug.Output, debug.Generators) || within(debug.Generators, debug.Output) {
		t.Error("generators and output roots overlap")
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name      string
		buildType string
		s         settings.Settings
	}{
		{"empty build type", "", linux},
		{"dot build type", "..", linux},
		{"separator build type", "Debug/../x", linux},
		{"escaping setting", "Debug", linux.With(settings.OS, "../../etc")},
		{"empty setting", "Debug", linux.With(settings.Arch, "")},
		{"setting spelled like an unset axis", "Release", settings.New(map[string]string{settings.Arch: "any", settings.OS: "any", settings.Compiler: "any"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("/p", tt.buildType, tt.s); !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("got %v, want ErrInvalidLayout", err)
			}
		})
	}
}
