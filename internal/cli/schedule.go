package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xreader/internal/config"
	"github.com/ibeckermayer/xreader/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate summaries at the configured times",
	Long: `Keep a logged-in browser open and generate a summary at every time listed
in schedule.times. Edits to the config file are picked up without a restart,
except for schedule.timezone.

Examples:
  xreader schedule         # Run until interrupted
  xreader schedule --now   # Also generate one summary right away`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("now", false, "generate a summary immediately as well")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	runNow, _ := cmd.Flags().GetBool("now")
	c := currentConfig()

	ctx, cancel := signalContext()
	defer cancel()

	rt, err := openRuntime(ctx, c, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	sched, err := scheduler.New(c.Schedule.Timezone, logger)
	if err != nil {
		return err
	}

	// One generation at a time; the browser tab is shared.
	var runMu sync.Mutex
	job := func(jobCtx context.Context) error {
		runMu.Lock()
		defer runMu.Unlock()

		if err := rt.session.Reload(jobCtx); err != nil {
			return err
		}
		rt.app.Reset()
		if _, err := rt.app.LoadInitial(jobCtx); err != nil {
			return err
		}
		sum, err := rt.app.GenerateSummary(jobCtx, 0)
		if err != nil {
			return err
		}
		logger.Info("scheduled summary saved", "id", sum.ID, "items", len(sum.TextItems))
		return nil
	}

	if err := sched.SetSummaryTimes(c.Schedule.Times, job); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	go func() {
		err := config.Watch(ctx, path, logger, func(next *config.Config) {
			if err := rt.app.ReloadConfig(next); err != nil {
				logger.Warn("keeping previous config", "error", err)
				return
			}
			setConfig(next)
			if next.Schedule.Timezone != c.Schedule.Timezone {
				logger.Warn("timezone change needs a restart", "timezone", next.Schedule.Timezone)
			}
			if err := sched.SetSummaryTimes(next.Schedule.Times, job); err != nil {
				logger.Warn("failed to reschedule", "error", err)
			}
		})
		if err != nil {
			logger.Warn("config watch stopped", "error", err)
		}
	}()

	sched.Start()
	for _, j := range sched.ListJobs() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s next run %s\n", j.Name, j.NextRun.Format("Mon Jan 2 15:04 MST"))
	}

	if runNow {
		if err := sched.RunNow("summary@now", job); err != nil {
			logger.Error("immediate summary failed", "error", err)
		}
	}

	<-ctx.Done()
	<-sched.Stop().Done()
	return nil
}
