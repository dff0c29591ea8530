package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/goplus/llman/internal/layout"
	"github.com/goplus/llman/internal/registry"
	"github.com/goplus/llman/internal/resolve"
	"github.com/goplus/llman/manifest"
	"github.com/goplus/llman/settings"
)

var linux = settings.New(map[string]string{
	settings.OS:        "Linux",
	settings.Arch:      "armv8",
	settings.Compiler:  "gcc",
	"compiler.cppstd":  "gnu17",
	settings.BuildType: "Release",
})

func testInput(t *testing.T, s settings.Settings) *Input {
	t.Helper()
	m := manifest.New()
	err := errors.Join(
		m.DeclareRequirement("boost", ">=1.88", ""),
		m.DeclareRequirement("nlohmann_json", "3.12.0", ""),
		m.DeclareOption("*", "without_test", manifest.BoolValue(true)),
		m.DeclareOption("boost", "without_math", manifest.BoolValue(true)),
		m.DeclareOption("boost", "namespace", manifest.EnumValue("myboost")),
	)
	if err != nil {
		t.Fatal(err)
	}
	m.Freeze()
	reg := registry.NewMemory(
		&registry.Recipe{Name: "boost", Versions: []string{"1.88.0", "1.89.0"}, Requires: []string{"zlib/1.3.1"}},
		&registry.Recipe{Name: "nlohmann_json", Versions: []string{"3.12.0"}},
	)
	pkgs, err := resolve.Resolve(context.Background(), m, s, &resolve.Options{Registry: reg})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := layout.New("/proj", "Release", s)
	if err != nil {
		t.Fatal(err)
	}
	return &Input{Packages: pkgs, Plan: plan, Settings: s}
}

func TestGenerateOrderAndDuplicates(t *testing.T) {
	p := NewPipeline()
	arts, err := p.Generate(testInput(t, linux), []string{Lockfile, CMakeDeps, Lockfile, CMakeToolchain})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, a := range arts {
		got = append(got, a.Kind+":"+a.Name)
	}
	want := []string{"Lockfile:llman.lock", "CMakeDeps:llman-deps.cmake", "CMakeToolchain:llman-toolchain.cmake"}
	if !slices.Equal(got, want) {
		t.Errorf("artifacts = %v, want %v", got, want)
	}
}

func TestGenerateUnsupportedKind(t *testing.T) {
	_, err := NewPipeline().Generate(testInput(t, linux), []string{CMakeDeps, "MSBuildDeps"})
	var ue *UnsupportedKindError
	if !errors.As(err, &ue) || ue.Kind != "MSBuildDeps" {
		t.Fatalf("got %v, want UnsupportedKindError", err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := NewPipeline()
	kinds := p.Kinds()
	first, err := p.Generate(testInput(t, linux), kinds)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		again, err := p.Generate(testInput(t, linux), kinds)
		if err != nil {
			t.Fatal(err)
		}
		for i := range first {
			if first[i].Name != again[i].Name || !bytes.Equal(first[i].Body, again[i].Body) {
				t.Fatalf("%s differs between runs", first[i].Name)
			}
		}
	}
}

func TestRegister(t *testing.T) {
	p := NewPipeline()
	p.Register("Custom", GeneratorFunc(func(in *Input) (Artifact, error) {
		return Artifact{Name: "custom.txt", Body: []byte(in.Plan.BuildType)}, nil
	}))
	if !slices.Contains(p.Kinds(), "Custom") {
		t.Fatalf("Kinds() = %v", p.Kinds())
	}
	arts, err := p.Generate(testInput(t, linux), []string{"Custom"})
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Kind != "Custom" || string(arts[0].Body) != "Release" {
		t.Errorf("artifact = %+v", arts[0])
	}

	p.Register("Broken", GeneratorFunc(func(*Input) (Artifact, error) {
		return Artifact{}, errors.New("boom")
	}))
	if _, err := p.Generate(testInput(t, linux), []string{"Custom", "Broken"}); err == nil {
		t.Error("expected generator error")
	}
}

func body(t *testing.T, kind string, s settings.Settings) string {
	t.Helper()
	arts, err := NewPipeline().Generate(testInput(t, s), []string{kind})
	if err != nil {
		t.Fatal(err)
	}
	return string(arts[0].Body)
}

func TestCMakeDeps(t *testing.T) {
	got := body(t, CMakeDeps, linux)
	for _, want := range []string{
		"# " + Header + "\n",
		`set(boost_FOUND "TRUE")`,
		`set(boost_VERSION "1.89.0")`,
		`set(nlohmann_json_VERSION "3.12.0")`,
		`set(boost_ROOT_DIR "/proj/build/Release/armv8-gcc-Linux-compiler.cppstd=gnu17/output/packages/boost@1.89.0")`,
		`list(APPEND CMAKE_PREFIX_PATH "/proj/build/Release/armv8-gcc-Linux-compiler.cppstd=gnu17/output/packages/nlohmann_json@3.12.0")`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("deps file missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "boost_FOUND") > strings.Index(got, "nlohmann_json_FOUND") {
		t.Error("packages not in requirement order")
	}
}

func TestCMakeToolchain(t *testing.T) {
	got := body(t, CMakeToolchain, linux)
	for _, want := range []string{
		`set(CMAKE_BUILD_TYPE "Release" CACHE STRING "" FORCE)`,
		`set(CMAKE_SYSTEM_PROCESSOR "aarch64")`,
		`set(CMAKE_CXX_COMPILER "g++")`,
		`set(CMAKE_CXX_STANDARD "17")`,
		`set(CMAKE_CXX_EXTENSIONS "ON")`,
		`set(LLMAN_BOOST_WITHOUT_MATH "ON" CACHE BOOL "" FORCE)`,
		`set(LLMAN_BOOST_NAMESPACE "myboost" CACHE STRING "" FORCE)`,
		`set(LLMAN_NLOHMANN_JSON_WITHOUT_TEST "ON" CACHE BOOL "" FORCE)`,
		`include("/proj/build/Release/armv8-gcc-Linux-compiler.cppstd=gnu17/generators/llman-deps.cmake")`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("toolchain missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "LLMAN_NLOHMANN_JSON_WITHOUT_MATH") {
		t.Error("exact boost option leaked into nlohmann_json")
	}
}

func TestBuildEnv(t *testing.T) {
	got := body(t, BuildEnv, linux)
	if !strings.HasPrefix(got, "#!/bin/sh\n") {
		t.Errorf("not a shell script:\n%s", got)
	}
	if !strings.Contains(got, `-std=gnu++17`) {
		t.Errorf("missing -std flag:\n%s", got)
	}
	in := testInput(t, linux)
	if want := "export LLMAN_PREFIX=" + "'" + in.Plan.Output + "'\n"; !strings.Contains(got, want) {
		t.Errorf("missing %q:\n%s", want, got)
	}

	win := settings.New(map[string]string{settings.OS: "Windows", settings.Arch: "x86_64", settings.Compiler: "msvc"})
	arts, err := NewPipeline().Generate(testInput(t, win), []string{BuildEnv})
	if err != nil {
		t.Fatal(err)
	}
	if arts[0].Name != BuildEnvFileBat {
		t.Errorf("windows env name = %q", arts[0].Name)
	}
	if !strings.Contains(string(arts[0].Body), "set \"LLMAN_PREFIX=") {
		t.Errorf("windows env missing prefix:\n%s", arts[0].Body)
	}
	if !strings.Contains(string(arts[0].Body), "set \"INCLUDE=") {
		t.Errorf("windows env missing INCLUDE:\n%s", arts[0].Body)
	}
}

func TestLockfile(t *testing.T) {
	var l Lock
	if err := json.Unmarshal([]byte(body(t, Lockfile, linux)), &l); err != nil {
		t.Fatal(err)
	}
	if l.Version != LockVersion || l.BuildType != "Release" || len(l.Packages) != 2 {
		t.Fatalf("lock = %+v", l)
	}
	boost := l.Packages[0]
	if boost.Name != "boost" || boost.Requirement != ">=1.88" || boost.Version != "1.89.0" {
		t.Errorf("boost = %+v", boost)
	}
	if boost.Options["without_math"] != "true" || boost.Options["namespace"] != "myboost" {
		t.Errorf("boost options = %v", boost.Options)
	}
	if !slices.Equal(boost.Requires, []string{"zlib/1.3.1"}) {
		t.Errorf("boost requires = %v", boost.Requires)
	}
	if _, ok := l.Packages[1].Options["without_math"]; ok {
		t.Error("nlohmann_json has boost's option")
	}
	if l.Settings["compiler.cppstd"] != "gnu17" {
		t.Errorf("settings = %v", l.Settings)
	}
}

func TestOptionVar(t *testing.T) {
	tests := map[[2]string]string{
		{"boost", "without_python"}:    "LLMAN_BOOST_WITHOUT_PYTHON",
		{"nlohmann_json", "shared"}:    "LLMAN_NLOHMANN_JSON_SHARED",
		{"libjpeg-turbo", "with.simd"}: "LLMAN_LIBJPEG_TURBO_WITH_SIMD",
	}
	for in, want := range tests {
		if got := OptionVar(in[0], in[1]); got != want {
			t.Errorf("OptionVar(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestCMakeToolchainOptionVarCollision(t *testing.T) {
	m := manifest.New()
	err := errors.Join(
		m.DeclareRequirement("foo", "1.0.0", ""),
		m.DeclareRequirement("foo_bar", "1.0.0", ""),
		m.DeclareOption("foo", "bar_x", manifest.BoolValue(true)),
		m.DeclareOption("foo_bar", "x", manifest.BoolValue(false)),
	)
	if err != nil {
		t.Fatal(err)
	}
	pkgs, err := resolve.Resolve(context.Background(), m, linux, nil)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := layout.New("/proj", "Release", linux)
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewPipeline().Generate(&Input{Packages: pkgs, Plan: plan, Settings: linux}, []string{CMakeToolchain})
	if err == nil {
		t.Fatal("expected an error for options sharing a CMake variable")
	}
	for _, want := range []string{"foo:bar_x", "foo_bar:x", "LLMAN_FOO_BAR_X"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name %s", err, want)
		}
	}

	// Without the toolchain nothing renders option variables.
	if _, err := NewPipeline().Generate(&Input{Packages: pkgs, Plan: plan, Settings: linux}, []string{CMakeDeps, Lockfile}); err != nil {
		t.Errorf("CMakeDeps/Lockfile: %v", err)
	}
}
