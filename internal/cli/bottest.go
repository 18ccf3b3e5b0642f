package cli

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/browser"
)

var botTestCmd = &cobra.Command{
	Use:   "bot-test",
	Short: "Open bot.sannysoft.com to audit the browser fingerprint",
	Long: `Open bot.sannysoft.com in a visible browser with the same stealth options
the timeline session uses, so you can check what X is likely to see.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("opening bot.sannysoft.com with stealth browser options")

		allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), browser.Options(false)...)
		defer cancel()

		ctx, cancel := chromedp.NewContext(allocCtx)
		defer cancel()

		if err := chromedp.Run(ctx,
			chromedp.Navigate("https://bot.sannysoft.com"),
			chromedp.WaitVisible("body", chromedp.ByQuery),
		); err != nil {
			return fmt.Errorf("failed to navigate: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Press Enter to close the browser...")
		fmt.Fscanln(cmd.InOrStdin())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(botTestCmd)
}
