package generate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goplus/llman/pkgs/buildsys/cmake"
	"github.com/goplus/llman/settings"
)

// Generated file names.
const (
	DepsFile      = "llman-deps.cmake"
	ToolchainFile = "llman-toolchain.cmake"
)

func cmakeDeps(in *Input) (Artifact, error) {
	c := cmake.New(Header)
	for _, pkg := range in.Packages {
		dep := in.Dep(pkg)
		name := pkg.Name()
		c.Set(name+"_FOUND", "TRUE")
		if dep.Version != "" {
			c.Set(name+"_VERSION", dep.Version)
		}
		c.Set(name+"_ROOT_DIR", dep.Dir)
		c.Set(name+"_INCLUDE_DIRS", dep.IncludeDir())
		c.Set(name+"_LIB_DIRS", dep.LibDir())
		c.Use(dep)
	}
	return Artifact{Name: DepsFile, Body: c.Render()}, nil
}

func cmakeToolchain(in *Input) (Artifact, error) {
	c := cmake.New(Header)
	c.BuildType(in.Plan.BuildType)
	s := in.Settings
	if p, ok := processors[s.Value(settings.Arch)]; ok {
		c.Set("CMAKE_SYSTEM_PROCESSOR", p)
	}
	if cc, ok := compilers[s.Value(settings.Compiler)]; ok {
		c.Set("CMAKE_C_COMPILER", cc[0])
		c.Set("CMAKE_CXX_COMPILER", cc[1])
	}
	if std, ok := s.Get("compiler.cppstd"); ok {
		ext := "OFF"
		if strings.HasPrefix(std, "gnu") {
			ext = "ON"
		}
		c.Set("CMAKE_CXX_STANDARD", strings.TrimPrefix(std, "gnu"))
		c.Set("CMAKE_CXX_STANDARD_REQUIRED", "ON")
		c.Set("CMAKE_CXX_EXTENSIONS", ext)
	}
	owners := make(map[string]string)
	for _, pkg := range in.Packages {
		for _, opt := range pkg.Options {
			key := OptionVar(pkg.Name(), opt.Name)
			owner := pkg.Name() + ":" + opt.Name
			if prev, ok := owners[key]; ok {
				return Artifact{}, fmt.Errorf("options %s and %s both map to CMake variable %s", prev, owner, key)
			}
			owners[key] = owner
			if b, ok := opt.Value.Bool(); ok {
				c.DefineBool(key, b)
				continue
			}
			c.Define(key, opt.Value.String())
		}
	}
	c.Include(filepath.ToSlash(filepath.Join(in.Plan.Generators, DepsFile)))
	return Artifact{Name: ToolchainFile, Body: c.Render()}, nil
}

// processors maps arch settings to CMAKE_SYSTEM_PROCESSOR.
var processors = map[string]string{
	"x86":     "x86",
	"x86_64":  "x86_64",
	"armv7":   "armv7",
	"armv8":   "aarch64",
	"riscv64": "riscv64",
}

// compilers maps compiler settings to C and C++ compiler names.
var compilers = map[string][2]string{
	"gcc":   {"gcc", "g++"},
	"clang": {"clang", "clang++"},
	"msvc":  {"cl", "cl"},
}

// OptionVar returns the CMake cache variable carrying option of pkg:
// LLMAN_<PKG>_<OPTION>, upper case, with characters CMake does not allow in
// a plain variable name replaced by '_'.
func OptionVar(pkg, option string) string {
	return "LLMAN_" + cmakeIdent(pkg) + "_" + cmakeIdent(option)
}

func cmakeIdent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
