package internal

import (
	"os"

	"github.com/goplus/llman/manifest"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir|file]",
	Short: "Report every problem in a manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path, err := projectDir(args)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		if path, err = manifest.Find(path); err != nil {
			return err
		}
	}
	if err := manifest.Check(path); err != nil {
		return err
	}
	printSuccess("%s is valid", path)
	return nil
}
