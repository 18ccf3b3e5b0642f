package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

// summaryPrefix names the jobs created by SetSummaryTimes.
const summaryPrefix = "summary@"

// Scheduler manages periodic tasks
type Scheduler struct {
	cron     *cron.Cron
	timezone *time.Location
	logger   *slog.Logger

	// JobTimeout bounds a single run
	JobTimeout time.Duration

	mu   sync.Mutex
	jobs map[string]cron.EntryID
}

// New creates a new scheduler with the given timezone
func New(timezone string, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", timezone, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		// Skip a run rather than overlap two generations
		cron:       cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:       make(map[string]cron.EntryID),
		timezone:   loc,
		logger:     logger.With("component", "scheduler"),
		JobTimeout: 30 * time.Minute,
	}, nil
}

// AddJob adds a job with a cron schedule
// schedule format: "0 7 * * *" (at 7:00 AM daily)
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runJob(name, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.mu.Lock()
	if old, ok := s.jobs[name]; ok {
		s.cron.Remove(old)
	}
	s.jobs[name] = entryID
	s.mu.Unlock()

	s.logger.Info("added job", "job", name, "schedule", schedule)
	return nil
}

// AddDailyJob adds a job at a wall-clock time
// timeStr format: "07:00" or "18:00"
func (s *Scheduler) AddDailyJob(name, timeStr string, job Job) error {
	schedule, err := DailySchedule(timeStr)
	if err != nil {
		return err
	}
	return s.AddJob(name, schedule, job)
}

// SetSummaryTimes replaces all summary jobs with one per time.
func (s *Scheduler) SetSummaryTimes(times []string, job Job) error {
	for _, t := range times {
		if _, err := DailySchedule(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	var stale []string
	for name := range s.jobs {
		if strings.HasPrefix(name, summaryPrefix) {
			stale = append(stale, name)
		}
	}
	s.mu.Unlock()
	for _, name := range stale {
		s.RemoveJob(name)
	}

	for _, t := range times {
		if err := s.AddDailyJob(summaryPrefix+t, t, job); err != nil {
			return err
		}
	}
	return nil
}

// DailySchedule converts "15:04" into a cron spec
func DailySchedule(timeStr string) (string, error) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return "", fmt.Errorf("invalid time format %s: %w", timeStr, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.jobs[name]; ok {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.logger.Info("removed job", "job", name)
	}
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", "timezone", s.timezone.String())
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done when running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("stopping scheduler")
	return s.cron.Stop()
}

// RunNow immediately executes a job
func (s *Scheduler) RunNow(name string, job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.JobTimeout)
	defer cancel()

	s.logger.Info("running job now", "job", name)
	return job(ctx)
}

func (s *Scheduler) runJob(name string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.JobTimeout)
	defer cancel()

	s.logger.Info("starting job", "job", name)
	start := time.Now()

	if err := job(ctx); err != nil {
		s.logger.Error("job failed", "job", name, "error", err)
	} else {
		s.logger.Info("job completed", "job", name, "elapsed", time.Since(start))
	}
}

// ListJobs returns info about scheduled jobs, soonest first
func (s *Scheduler) ListJobs() []JobInfo {
	entries := s.cron.Entries()

	s.mu.Lock()
	infos := make([]JobInfo, 0, len(s.jobs))
	for name, entryID := range s.jobs {
		for _, entry := range entries {
			if entry.ID == entryID {
				infos = append(infos, JobInfo{
					Name:    name,
					NextRun: entry.Next,
					LastRun: entry.Prev,
				})
				break
			}
		}
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].NextRun.Equal(infos[j].NextRun) {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].NextRun.Before(infos[j].NextRun)
	})
	return infos
}

// JobInfo contains information about a scheduled job
type JobInfo struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
}
