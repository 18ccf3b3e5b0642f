package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestDailySchedule(t *testing.T) {
	spec, err := DailySchedule("07:05")
	require.NoError(t, err)
	assert.Equal(t, "5 7 * * *", spec)

	_, err = DailySchedule("7am")
	assert.Error(t, err)
}

func TestNew_InvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", nil)
	assert.Error(t, err)
}

func TestSetSummaryTimes_Replaces(t *testing.T) {
	s, err := New("UTC", nil)
	require.NoError(t, err)

	require.NoError(t, s.AddJob("other", "@hourly", noop))
	require.NoError(t, s.SetSummaryTimes([]string{"07:00", "18:00"}, noop))
	assert.Len(t, s.ListJobs(), 3)

	require.NoError(t, s.SetSummaryTimes([]string{"12:30"}, noop))
	names := map[string]bool{}
	for _, j := range s.ListJobs() {
		names[j.Name] = true
	}
	assert.Equal(t, map[string]bool{"other": true, "summary@12:30": true}, names)

	assert.Error(t, s.SetSummaryTimes([]string{"noon"}, noop))
	assert.Len(t, s.ListJobs(), 2, "invalid times leave jobs untouched")
}

func TestListJobs_NextRunSet(t *testing.T) {
	s, err := New("UTC", nil)
	require.NoError(t, err)
	require.NoError(t, s.AddDailyJob("morning", "07:00", noop))

	s.Start()
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "morning", jobs[0].Name)
	assert.False(t, jobs[0].NextRun.IsZero())
	assert.Equal(t, 7, jobs[0].NextRun.Hour())
}

func TestRemoveJob(t *testing.T) {
	s, err := New("UTC", nil)
	require.NoError(t, err)
	require.NoError(t, s.AddJob("x", "@daily", noop))
	s.RemoveJob("x")
	s.RemoveJob("x")
	assert.Empty(t, s.ListJobs())
}

func TestRunNow(t *testing.T) {
	s, err := New("UTC", nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("fail", func(ctx context.Context) error { return boom }), boom)

	ran := false
	require.NoError(t, s.RunNow("ok", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		ran = hasDeadline
		return nil
	}))
	assert.True(t, ran)
}
