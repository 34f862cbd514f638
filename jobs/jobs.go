/* jobs.go
 * Contains the scheduler that keeps the rankings current and resets the weekly and monthly points. Every schedule is
 * evaluated in UTC
 * Authors: Zachary Bower
 */

package jobs

import (
	"context"
	"fmt"
	"time"

	"gamehub/metrics"
	"gamehub/obslog"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Schedules in standard cron syntax
const (
	UpdateRankingsSpec = "@every 15m"
	WeeklyResetSpec    = "0 0 * * 0"
	MonthlyResetSpec   = "0 0 1 * *"
)

const jobTimeout = 5 * time.Minute

// Runner is the work done by the scheduled jobs, implemented by *api.API
type Runner interface {
	UpdateRankings(ctx context.Context) error
	WeeklyReset(ctx context.Context) error
	MonthlyReset(ctx context.Context) error
}

// Job is one named schedule
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs the ranking jobs on a cron
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	entries map[string]cron.EntryID
}

// New registers the ranking jobs of r
// Preconditions: Receives the job runner
// Postconditions: Returns a Scheduler that has not been started, or an error if a schedule does not parse
func New(r Runner) (*Scheduler, error) {
	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobs: []Job{
			{Name: "updateRankings", Spec: UpdateRankingsSpec, Run: r.UpdateRankings},
			{Name: "weeklyReset", Spec: WeeklyResetSpec, Run: r.WeeklyReset},
			{Name: "monthlyReset", Spec: MonthlyResetSpec, Run: r.MonthlyReset},
		},
	}
	s.entries = make(map[string]cron.EntryID, len(s.jobs))
	for _, job := range s.jobs {
		id, err := s.cron.AddFunc(job.Spec, func() { _ = RunJob(context.Background(), job) })
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = id
	}
	return s, nil
}

// Jobs returns the registered jobs in registration order
func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Next returns when each job next runs after t, keyed by job name
func (s *Scheduler) Next(t time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		out[name] = s.cron.Entry(id).Schedule.Next(t)
	}
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
	obslog.L().Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop stops scheduling new runs and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		obslog.L().Warn("scheduler stopped with jobs still running")
	}
}

// RunJob runs one job with a timeout, recording its outcome
func RunJob(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name, "failure").Inc()
		obslog.L().Error("scheduled job failed", zap.String("job", job.Name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return err
	}
	metrics.JobRuns.WithLabelValues(job.Name, "success").Inc()
	obslog.L().Info("scheduled job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	return nil
}

// cronLogger adapts the global zap logger to cron.Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	obslog.L().Sugar().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	obslog.L().Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
