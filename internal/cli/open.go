package cli

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/config"
)

var openCmd = &cobra.Command{
	Use:       "open <config|cache>",
	Short:     "Open the config file or the cache directory",
	Long:      "Open the config file in the default editor, or the step cache directory in the file explorer.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"config", "cache"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := openTarget(args[0])
		if err != nil {
			return err
		}
		if args[0] == "config" {
			// Make sure there is something to edit.
			if err := ensureConfigFile(path); err != nil {
				return err
			}
		}
		logger.Info("opening", "path", path)
		return browser.OpenFile(path)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func openTarget(target string) (string, error) {
	switch target {
	case "config":
		return configPath()
	case "cache":
		return config.CacheDir()
	default:
		return "", fmt.Errorf("unknown target: %s (want config or cache)", target)
	}
}
