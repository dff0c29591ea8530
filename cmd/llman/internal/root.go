package internal

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	profileName  string
	settingFlags []string
	optionFlags  []string
	registryDir  string
)

var rootCmd = &cobra.Command{
	Use:   "llman",
	Short: "llman resolves C/C++ dependency manifests into build integration files",
	Long: `llman reads a project manifest (llman.toml or llman.yaml), resolves its
requirements and package options against the active settings, and writes
CMake and shell integration files into a per-configuration build directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVarP(&profileName, "profile", "p", "", "Profile name or path to a profile file")
	flags.StringArrayVarP(&settingFlags, "setting", "s", nil, "Override a setting (key=value)")
	flags.StringArrayVarP(&optionFlags, "option", "o", nil, "Set a package option (pattern:name=value)")
	flags.StringVar(&registryDir, "registry", "", "Recipe directory (default from profile, then the llman work directory)")
}

// Execute runs the command line and reports the error, if any, on stderr.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError("%v", err)
	}
	return err
}
