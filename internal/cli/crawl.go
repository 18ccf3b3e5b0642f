package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/crawler"
	"github.com/ibeckermayer/xreader/internal/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect posts from the home timeline without summarizing",
	Long: `Scroll the home timeline and print the parsed posts as JSON.

Examples:
  xreader crawl                      # First page of posts
  xreader crawl --posts 200          # Stop after 200 posts
  xreader crawl --days 1 -o day.json # Stop at posts older than a day`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().Int("posts", 0, "stop after this many posts (default scraping.initial_posts)")
	crawlCmd.Flags().Int("days", 0, "also stop at the first original post older than this many days")
	crawlCmd.Flags().StringP("output", "o", "", "write JSON to this file instead of stdout")
	crawlCmd.Flags().Bool("save", false, "save crawled posts to history")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	c := currentConfig()
	limit, _ := cmd.Flags().GetInt("posts")
	days, _ := cmd.Flags().GetInt("days")
	output, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	if limit <= 0 {
		limit = c.Scraping.InitialPosts
	}
	stop := crawler.StopAfter(limit)
	if days > 0 {
		stop = crawler.AnyOf(stop, crawler.StopAtCutoff(time.Now().Add(-time.Duration(days)*24*time.Hour)))
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt, err := openRuntime(ctx, c, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.app.LoadInitial(ctx); err != nil {
		return err
	}
	res, err := rt.app.Crawl(ctx, stop)
	if err != nil {
		return err
	}
	if res.Err != nil {
		logger.Warn("crawl ended early", "reason", res.Reason, "error", res.Err)
	}

	posts := rt.app.Posts()
	if save {
		if err := rt.store.SavePosts(ctx, posts); err != nil {
			return err
		}
	}
	return writePosts(cmd.OutOrStdout(), output, posts)
}

// writePosts writes posts as indented JSON to path, or to out when path is
// empty.
func writePosts(out io.Writer, path string, posts []types.Post) error {
	if posts == nil {
		posts = []types.Post{}
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(posts)
}
