package generate

import (
	"strings"

	"github.com/goplus/llman/pkgs/buildsys/autotools"
	"github.com/goplus/llman/settings"
)

// Environment script names.
const (
	BuildEnvFile    = "llman-buildenv.sh"
	BuildEnvFileBat = "llman-buildenv.bat"
)

// PrefixVar is set by the environment script to the output root, the
// install prefix for builds run inside that environment.
const PrefixVar = "LLMAN_PREFIX"

func buildEnv(in *Input) (Artifact, error) {
	windows := in.Settings.Value(settings.OS) == "Windows"
	a := autotools.New(Header, windows)
	a.Env(PrefixVar, in.Plan.Output)
	for _, pkg := range in.Packages {
		a.Use(in.Dep(pkg))
	}
	if std, ok := in.Settings.Get("compiler.cppstd"); ok && !windows {
		a.Flag("CXXFLAGS", "-std="+cppStd(std))
	}
	name := BuildEnvFile
	if windows {
		name = BuildEnvFileBat
	}
	return Artifact{Name: name, Body: a.Render()}, nil
}

// cppStd turns a cppstd setting ("17", "gnu20") into a -std value.
func cppStd(std string) string {
	if rest, ok := strings.CutPrefix(std, "gnu"); ok {
		return "gnu++" + rest
	}
	return "c++" + std
}
