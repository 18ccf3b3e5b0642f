package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if force {
			if err := config.Default().SaveTo(path); err != nil {
				return err
			}
		} else if err := ensureConfigFile(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

// ensureConfigFile writes the defaults to path unless a file is already there
func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return config.Default().SaveTo(path)
}
