package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goplus/llman/internal/generate"
	"github.com/goplus/llman/internal/layout"
	"github.com/goplus/llman/internal/registry"
	"github.com/goplus/llman/internal/resolve"
	"github.com/goplus/llman/manifest"
	"github.com/goplus/llman/settings"
)

const conanLike = `
name = "spread_server"
version = "0.0.0"
settings = ["os", "compiler", "build_type", "arch"]
generators = ["CMakeDeps", "CMakeToolchain"]
requires = ["boost/1.88.0", "nlohmann_json/3.12.0"]

[options]
"boost/*:without_python" = true
"boost/*:without_math" = true
"boost/*:with_stacktrace_backtrace" = false
`

var linux = settings.New(map[string]string{
	settings.OS:       "Linux",
	settings.Arch:     "x86_64",
	settings.Compiler: "gcc",
	"tools.unused":    "x",
})

func loadManifest(t *testing.T, data string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse("llman.toml", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestInstall(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(Options{})
	res, err := b.Install(context.Background(), Request{
		ProjectRoot: root,
		Settings:    linux,
		Manifest:    loadManifest(t, conanLike),
	})
	if err != nil {
		t.Fatalf("Install: %v", err)
	}

	wantGen := filepath.Join(root, "build", "Release", "x86_64-gcc-Linux", "generators")
	if res.Plan.Generators != wantGen {
		t.Errorf("Generators = %q, want %q", res.Plan.Generators, wantGen)
	}
	if !slices.Equal(res.Kinds, []string{generate.CMakeDeps, generate.CMakeToolchain}) {
		t.Errorf("Kinds = %v", res.Kinds)
	}
	if !slices.Equal(res.Report.Written, []string{generate.DepsFile, generate.ToolchainFile}) {
		t.Errorf("Written = %v", res.Report.Written)
	}
	for _, name := range res.Report.Written {
		if _, err := os.Stat(filepath.Join(wantGen, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	boost := res.Packages[0]
	if v, _ := boost.Option("without_python"); v != manifest.BoolValue(true) {
		t.Errorf("without_python = %v", v)
	}
	if _, ok := res.Packages[1].Option("without_python"); ok {
		t.Error("boost option applied to nlohmann_json")
	}
	if _, ok := boost.Settings.Get("tools.unused"); ok {
		t.Error("undeclared settings axis reached the packages")
	}
	if boost.Settings.Value(settings.BuildType) != "Release" {
		t.Errorf("build_type = %q", boost.Settings.Value(settings.BuildType))
	}
}

func TestInstallTwiceUnchanged(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(Options{})
	req := func() Request {
		return Request{ProjectRoot: root, Settings: linux, Manifest: loadManifest(t, conanLike), Kinds: []string{generate.Lockfile, generate.BuildEnv}}
	}
	first, err := b.Install(context.Background(), req())
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Install(context.Background(), req())
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Report.Written) != 0 || len(second.Report.Unchanged) != 2 {
		t.Errorf("second install: %+v", second.Report)
	}
	for i := range first.Artifacts {
		if !bytes.Equal(first.Artifacts[i].Body, second.Artifacts[i].Body) {
			t.Errorf("%s differs between installs", first.Artifacts[i].Name)
		}
	}
}

func TestInstallBuildTypes(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(Options{})
	var plans []layout.Plan
	for _, bt := range []string{"Debug", "Release"} {
		res, err := b.Install(context.Background(), Request{
			ProjectRoot: root,
			BuildType:   bt,
			Settings:    linux,
			Manifest:    loadManifest(t, conanLike),
		})
		if err != nil {
			t.Fatal(err)
		}
		plans = append(plans, res.Plan)
	}
	if plans[0].Generators == plans[1].Generators || plans[0].Output == plans[1].Output {
		t.Errorf("debug and release share directories: %+v", plans)
	}
	tc, err := os.ReadFile(filepath.Join(plans[0].Generators, generate.ToolchainFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tc), `set(CMAKE_BUILD_TYPE "Debug"`) {
		t.Errorf("debug toolchain:\n%s", tc)
	}
}

func TestInstallBuildTypeFromSettings(t *testing.T) {
	b := NewBuilder(Options{})
	res, err := b.Prepare(context.Background(), Request{
		ProjectRoot: t.TempDir(),
		Settings:    linux.With(settings.BuildType, "RelWithDebInfo"),
		Manifest:    loadManifest(t, conanLike),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Plan.BuildType != "RelWithDebInfo" {
		t.Errorf("BuildType = %q", res.Plan.BuildType)
	}
	if res.Report != nil {
		t.Error("Prepare must not write")
	}
	if _, err := os.Stat(res.Plan.Generators); !os.IsNotExist(err) {
		t.Errorf("Prepare touched the filesystem: %v", err)
	}
}

func TestInstallWithRegistry(t *testing.T) {
	reg := registry.NewMemory(
		&registry.Recipe{
			Name:     "boost",
			Versions: []string{"1.88.0"},
			Defaults: map[string]manifest.Value{"shared": manifest.BoolValue(false)},
		},
		&registry.Recipe{Name: "nlohmann_json", Versions: []string{"3.12.0"}},
	)
	b := NewBuilder(Options{Registry: reg})
	res, err := b.Prepare(context.Background(), Request{
		ProjectRoot: t.TempDir(),
		Settings:    linux,
		Manifest:    loadManifest(t, conanLike),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := res.Packages[0].Option("shared"); !ok || v != manifest.BoolValue(false) {
		t.Errorf("recipe default missing: %v %v", v, ok)
	}
}

func TestInstallErrors(t *testing.T) {
	ctx := context.Background()
	b := NewBuilder(Options{})

	t.Run("unknown package", func(t *testing.T) {
		root := t.TempDir()
		m := loadManifest(t, conanLike+"\"openssl/*:shared\" = true\n")
		_, err := b.Install(ctx, Request{ProjectRoot: root, Settings: linux, Manifest: m})
		var ue *resolve.UnknownPackageError
		if !errors.As(err, &ue) {
			t.Fatalf("got %v, want UnknownPackageError", err)
		}
		if _, err := os.Stat(filepath.Join(root, "build")); !os.IsNotExist(err) {
			t.Error("failed install wrote files")
		}
	})

	t.Run("unsupported kind", func(t *testing.T) {
		_, err := b.Install(ctx, Request{ProjectRoot: t.TempDir(), Settings: linux, Manifest: loadManifest(t, conanLike), Kinds: []string{"Bazel"}})
		var ke *generate.UnsupportedKindError
		if !errors.As(err, &ke) {
			t.Fatalf("got %v, want UnsupportedKindError", err)
		}
	})

	t.Run("unresolved", func(t *testing.T) {
		nb := NewBuilder(Options{Registry: registry.NewMemory()})
		_, err := nb.Install(ctx, Request{ProjectRoot: t.TempDir(), Settings: linux, Manifest: loadManifest(t, conanLike)})
		var ue *resolve.UnresolvedDependencyError
		if !errors.As(err, &ue) || !errors.Is(err, registry.ErrNotFound) {
			t.Fatalf("got %v, want UnresolvedDependencyError", err)
		}
	})

	t.Run("invalid layout", func(t *testing.T) {
		_, err := b.Install(ctx, Request{ProjectRoot: t.TempDir(), BuildType: "../x", Settings: linux, Manifest: loadManifest(t, conanLike)})
		if !errors.Is(err, layout.ErrInvalidLayout) {
			t.Fatalf("got %v, want ErrInvalidLayout", err)
		}
	})

	t.Run("no manifest", func(t *testing.T) {
		if _, err := b.Install(ctx, Request{ProjectRoot: t.TempDir()}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPrepareFreezes(t *testing.T) {
	m := loadManifest(t, conanLike)
	if _, err := NewBuilder(Options{}).Prepare(context.Background(), Request{ProjectRoot: t.TempDir(), Settings: linux, Manifest: m}); err != nil {
		t.Fatal(err)
	}
	if err := m.DeclareRequirement("zlib", "1.3.1", ""); !errors.Is(err, manifest.ErrFrozen) {
		t.Errorf("manifest not frozen: %v", err)
	}
}
