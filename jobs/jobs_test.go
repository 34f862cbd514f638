/* jobs_test.go
 * Contains unit tests for the scheduler
 * Authors: Zachary Bower
 */

package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamehub/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRunner) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeRunner) UpdateRankings(context.Context) error { return f.record("updateRankings") }
func (f *fakeRunner) WeeklyReset(context.Context) error { return f.record("weeklyReset") }
func (f *fakeRunner) MonthlyReset(context.Context) error { return f.record("monthlyReset") }

// region Schedule tests

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(&fakeRunner{})
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, j := range s.Jobs() {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{"updateRankings", "weeklyReset", "monthlyReset"}, names)
}

func TestNext_UTCSchedules(t *testing.T) {
	s, err := New(&fakeRunner{})
	require.NoError(t, err)

	// Wednesday 15 May 2024
	now := time.Date(2024, 5, 15, 10, 7, 0, 0, time.UTC)
	next := s.Next(now)

	assert.Equal(t, now.Add(15*time.Minute), next["updateRankings"])
	assert.Equal(t, time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC), next["weeklyReset"])
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), next["monthlyReset"])
}

func TestStartStop(t *testing.T) {
	s, err := New(&fakeRunner{})
	require.NoError(t, err)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}

// endregion

// region RunJob tests

func TestRunJob_RecordsOutcome(t *testing.T) {
	r := &fakeRunner{}
	job := Job{Name: "weeklyReset", Run: r.WeeklyReset}
	success := metrics.JobRuns.WithLabelValues("weeklyReset", "success")
	failure := metrics.JobRuns.WithLabelValues("weeklyReset", "failure")
	okBefore, failBefore := testutil.ToFloat64(success), testutil.ToFloat64(failure)

	require.NoError(t, RunJob(context.Background(), job))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(success))

	r.err = errors.New("mongo down")
	assert.EqualError(t, RunJob(context.Background(), job), "mongo down")
	assert.Equal(t, failBefore+1, testutil.ToFloat64(failure))
	assert.Equal(t, []string{"weeklyReset", "weeklyReset"}, r.calls)
}

func TestRunJob_AppliesTimeout(t *testing.T) {
	var deadline time.Time
	job := Job{Name: "updateRankings", Run: func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	}}
	require.NoError(t, RunJob(context.Background(), job))
	assert.WithinDuration(t, time.Now().Add(jobTimeout), deadline, time.Second)
}

// endregion
