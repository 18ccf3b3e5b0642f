// Package cli contains all commands of the xreader binary
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/config"
)

var (
	cfgFile string
	verbose bool
	logger  = slog.Default()
	version = "dev"

	cfgMu sync.RWMutex
	cfg   *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xreader",
	Short: "Summarize your X home timeline",
	Long: `xreader opens your X home timeline in a headless browser, scrolls it back
in time, and asks a summarizer for a short digest of what you missed.

Example usage:
  xreader login                # Log in once in a visible browser
  xreader summarize            # Summarize the last day
  xreader summarize --days 3   # Summarize the last three days
  xreader schedule             # Summarize at the configured times
  xreader history              # List past summaries`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd.ErrOrStderr())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/xreader/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig sets up logging and loads the config file.
func initConfig(logOut io.Writer) error {
	logger = newLogger(logOut, verbose)
	slog.SetDefault(logger)

	path, err := configPath()
	if err != nil {
		return err
	}
	loaded, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	setConfig(loaded)

	logger.Debug("configuration loaded",
		"path", path,
		"provider", loaded.Summary.Provider,
		"home_url", loaded.Scraping.HomeURL,
	)
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.ConfigPath()
}

func currentConfig() *config.Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}

func setConfig(c *config.Config) {
	cfgMu.Lock()
	cfg = c
	cfgMu.Unlock()
}
