package internal

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/llman/internal/build"
	"github.com/goplus/llman/internal/generate"
	"github.com/goplus/llman/pkgs/buildsys/cmake"
	"github.com/spf13/cobra"
)

var (
	installBuildType  string
	installGenerators []string
)

var installCmd = &cobra.Command{
	Use:   "install [dir]",
	Short: "Resolve the manifest in dir and write its integration files",
	Long: `Install resolves the project manifest against the active profile and writes
the requested integration files into build/<build_type>/<matrix>/generators.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installBuildType, "build-type", "b", "", "Build type (default from settings, then Release)")
	installCmd.Flags().StringArrayVarP(&installGenerators, "generator", "g", nil, "Generator kind to run, overriding the manifest")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	ws, err := loadWorkspace(ctx, dir)
	if err != nil {
		return err
	}

	builder := build.NewBuilder(build.Options{Registry: ws.Registry, Logger: loggerFromContext(ctx)})
	res, err := builder.Install(ctx, build.Request{
		ProjectRoot: ws.Root,
		BuildType:   installBuildType,
		Settings:    ws.Profile.Settings,
		Manifest:    ws.Manifest,
		Kinds:       installGenerators,
	})
	if err != nil {
		return err
	}

	printSuccess("Installed %d packages for %s", len(res.Packages), res.Plan.BuildType)
	for _, a := range res.Artifacts {
		note := "written"
		if slices.Contains(res.Report.Unchanged, a.Name) {
			note = "unchanged"
		}
		printFile(relTo(ws.Root, filepath.Join(res.Plan.Generators, a.Name)), note)
	}
	for _, name := range res.Report.Removed {
		printFile(relTo(ws.Root, filepath.Join(res.Plan.Generators, name)), "removed")
	}

	for _, a := range res.Artifacts {
		switch a.Kind {
		case generate.CMakeToolchain:
			printNextStep("Configure", configureCommand(ws.Root, res))
		case generate.BuildEnv:
			printNextStep("Load the environment", envCommand(ws.Root, res.Plan.Generators, a.Name))
		}
	}
	return nil
}

// configureCommand returns the cmake invocation that uses the generated
// toolchain.
func configureCommand(root string, res *build.Result) string {
	c := cmake.New("").BuildType(res.Plan.BuildType).
		DefinePath("CMAKE_TOOLCHAIN_FILE", filepath.Join(res.Plan.Generators, generate.ToolchainFile))
	args := []string{"cmake", "-S", ".", "-B", relTo(root, res.Plan.BuildRoot())}
	return strings.Join(append(args, c.Args()...), " ")
}

func envCommand(root, generators, name string) string {
	path := relTo(root, filepath.Join(generators, name))
	if filepath.Ext(name) == ".bat" {
		return fmt.Sprintf("call %s", path)
	}
	return fmt.Sprintf(". %s", path)
}

// relTo returns path relative to root when it lies inside root.
func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || !filepath.IsLocal(rel) {
		return path
	}
	return rel
}
