// Package scheduler runs periodic maintenance jobs on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"job-offer-pipeline/internal/common/logger"
	"job-offer-pipeline/internal/common/metrics"
	"job-offer-pipeline/internal/models"
)

// Job is a named unit of background work. An empty Spec disables it.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler wraps robfig/cron and isolates job failures from the process.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger logger.Logger
}

func New(log logger.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobs:   jobs,
		logger: log.WithFields(map[string]interface{}{"component": "scheduler"}),
	}
}

// Start registers every enabled job and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, job := range s.jobs {
		if job.Spec == "" {
			s.logger.Info("job disabled", map[string]interface{}{"job": job.Name})
			continue
		}
		if _, err := s.cron.AddFunc(job.Spec, func() { s.RunNow(ctx, job) }); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		s.logger.Info("job scheduled", map[string]interface{}{"job": job.Name, "spec": job.Spec})
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("stopped before running jobs finished", nil)
	}
}

// RunNow executes job synchronously. Errors and panics are logged and
// counted, never propagated.
func (s *Scheduler) RunNow(ctx context.Context, job Job) (ok bool) {
	start := time.Now()
	fields := map[string]interface{}{"job": job.Name}

	defer func() {
		if r := recover(); r != nil {
			fields["panic"] = fmt.Sprint(r)
			s.logger.Error("job panicked", fields)
			metrics.BackgroundJobRuns.WithLabelValues(job.Name, "panic").Inc()
			ok = false
		}
	}()

	if err := job.Run(ctx); err != nil {
		fields["error"] = err
		fields["duration"] = time.Since(start).String()
		s.logger.Warn("job failed", fields)
		metrics.BackgroundJobRuns.WithLabelValues(job.Name, "failure").Inc()
		return false
	}

	fields["duration"] = time.Since(start).String()
	s.logger.Info("job finished", fields)
	metrics.BackgroundJobRuns.WithLabelValues(job.Name, "success").Inc()
	return true
}

// StatsRefresher recomputes aggregate statistics and primes the cache.
type StatsRefresher interface {
	Refresh(ctx context.Context) (*models.AggregateStats, error)
}

// Reindexer copies the store into the search index.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

func StatsRefreshJob(spec string, r StatsRefresher) Job {
	return Job{
		Name: "stats_refresh",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := r.Refresh(ctx)
			return err
		},
	}
}

func ReindexJob(spec string, r Reindexer) Job {
	return Job{
		Name: "reindex",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := r.Reindex(ctx)
			return err
		},
	}
}
