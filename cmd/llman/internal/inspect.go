package internal

import (
	"encoding/json"
	"fmt"

	"github.com/goplus/llman/internal/build"
	"github.com/goplus/llman/internal/generate"
	"github.com/spf13/cobra"
)

var (
	inspectBuildType string
	inspectJSON      bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Show how the manifest in dir resolves, without writing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectBuildType, "build-type", "b", "", "Build type (default from settings, then Release)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the resolution in lockfile format")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
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
	res, err := builder.Prepare(ctx, build.Request{
		ProjectRoot: ws.Root,
		BuildType:   inspectBuildType,
		Settings:    ws.Profile.Settings,
		Manifest:    ws.Manifest,
	})
	if err != nil {
		return err
	}

	if inspectJSON {
		lock := generate.NewLock(&generate.Input{Packages: res.Packages, Plan: res.Plan, Settings: res.Settings})
		data, err := json.MarshalIndent(lock, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	printKeyValue("profile", ws.Profile.Name)
	printKeyValue("build type", res.Plan.BuildType)
	printKeyValue("matrix", res.Plan.Matrix)
	printKeyValue("generators", relTo(ws.Root, res.Plan.Generators))
	printKeyValue("output", relTo(ws.Root, res.Plan.Output))
	for _, pkg := range res.Packages {
		fmt.Fprintln(out)
		title := pkg.Requirement.String()
		if pkg.Version != "" && pkg.Version != pkg.Requirement.Version {
			title += " => " + pkg.Version
		}
		printTitle(title)
		for _, o := range pkg.Options {
			printDetail("%s=%s (%s)", o.Name, o.Value, o.Tier)
		}
	}
	return nil
}
