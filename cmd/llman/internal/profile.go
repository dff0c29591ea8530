package internal

import (
	"github.com/goplus/llman/internal/profile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the active profile after every override is applied",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	prof, err := profile.Load(profile.LoadOptions{Name: profileName, Overrides: settingFlags})
	if err != nil {
		return err
	}
	path := prof.Path
	if path == "" {
		path = "(none, host defaults)"
	}
	printTitle(prof.Name)
	printKeyValue("file", path)
	for k, v := range prof.Settings.All() {
		printKeyValue(k, v)
	}
	for _, k := range prof.OptionKeys() {
		printKeyValue(k, prof.Options[k])
	}
	if prof.Registry != "" {
		printKeyValue("registry", prof.Registry)
	}
	return nil
}
