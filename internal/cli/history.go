package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past summaries",
	Long: `List summaries saved by previous runs, newest first.

Examples:
  xreader history               # Ten most recent summaries
  xreader history --limit 50
  xreader history show          # Print the latest summary
  xreader history show <id>     # Print a specific summary`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a saved summary (latest if no id)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().Int("limit", 10, "number of summaries to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyShowCmd.Flags().Bool("json", false, "output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := openStore(currentConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListSummaries(context.Background(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(out, "No summaries yet. Run `xreader summarize`.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENERATED\tCOVERS FROM\tTOPICS\tPOSTS\tMEDIA")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			info.ID,
			info.TimeFrom.Local().Format(timeLayout),
			info.TimeTo.Local().Format(timeLayout),
			info.TextItems,
			info.LinkedPosts,
			info.MediaGroups,
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	st, err := openStore(currentConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	var sum *types.Summary
	if len(args) == 1 {
		sum, err = st.GetSummary(context.Background(), args[0])
	} else {
		sum, err = st.LatestSummary(context.Background())
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
	return nil
}
