package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/scraper"
	"github.com/ibeckermayer/xreader/internal/timeline"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.html>",
	Short: "Parse posts from a saved home timeline page",
	Long: `Parse a home timeline page saved from the browser and print the posts as
JSON. Useful for checking selectors after X changes its markup.

Examples:
  xreader parse home.html
  xreader parse home.html -o posts.json`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("output", "o", "", "write JSON to this file instead of stdout")
	parseCmd.Flags().String("base-url", scraper.DefaultBaseURL, "base URL for resolving relative links")
}

func runParse(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	baseURL, _ := cmd.Flags().GetString("base-url")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	parser, err := scraper.NewParser(baseURL, logger)
	if err != nil {
		return err
	}
	parsed, err := parser.ParseDocument(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	// Saved pages can repeat a cell; fold duplicates like a live crawl does.
	posts := timeline.Merge(nil, parsed)
	logger.Info("parsed timeline", "file", args[0], "cells", len(parsed), "posts", len(posts))
	return writePosts(cmd.OutOrStdout(), output, posts)
}
