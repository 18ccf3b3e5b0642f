package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/app"
	"github.com/ibeckermayer/xreader/internal/store"
	"github.com/ibeckermayer/xreader/internal/types"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Crawl the home timeline and print a summary",
	Long: `Open the home timeline, scroll back until the requested number of days is
covered (or the post cap is hit on the "For you" tab), and print the summary.

Examples:
  xreader summarize              # Last day (or summary.days from config)
  xreader summarize --days 2     # Last two days
  xreader summarize --json       # Print the summary as JSON
  xreader summarize --from-cache # Re-summarize the last crawl without a browser
  xreader summarize --from-cache=<file.json>`,
	Args: cobra.NoArgs,
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().Int("days", 0, "how many days back to summarize (default summary.days)")
	summarizeCmd.Flags().Bool("json", false, "output as JSON")
	summarizeCmd.Flags().String("from-cache", "", "summarize a cached crawl (the latest, or the given step file) instead of the live timeline")
	summarizeCmd.Flags().Lookup("from-cache").NoOptDefVal = latestCache
}

// latestCache selects the newest cached crawl for --from-cache
const latestCache = "latest"

func runSummarize(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	fromCache, _ := cmd.Flags().GetString("from-cache")

	ctx, cancel := signalContext()
	defer cancel()

	var (
		sum *types.Summary
		err error
	)
	if fromCache != "" {
		sum, err = summarizeCached(ctx, fromCache, days)
	} else {
		sum, err = summarizeLive(ctx, days)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	renderSummary(out, sum)
	fmt.Fprintf(out, "\nSaved as %s\n", sum.ID)
	return nil
}

func summarizeLive(ctx context.Context, days int) (*types.Summary, error) {
	rt, err := openRuntime(ctx, currentConfig(), true)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	if _, err := rt.app.LoadInitial(ctx); err != nil {
		return nil, err
	}
	return rt.app.GenerateSummary(ctx, days)
}

// summarizeCached runs the summarizer over a cached crawl, no browser needed
func summarizeCached(ctx context.Context, source string, days int) (*types.Summary, error) {
	c := currentConfig()

	cache, err := store.DefaultCache()
	if err != nil {
		return nil, err
	}
	sum, err := app.NewSummarizer(c, cache, logger)
	if err != nil {
		return nil, err
	}
	st, err := openStore(c)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	a, err := app.New(app.Deps{
		Config:     c,
		Summarizer: sum,
		Store:      st,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	path := source
	if path == latestCache {
		path = ""
	}
	return a.SummarizeCached(ctx, path, days)
}
