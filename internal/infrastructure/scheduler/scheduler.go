// Package scheduler implements background job scheduling for the Lentera LMS
// backend. Jobs keep derived analytics warm so admin requests do not pay the
// full recomputation cost.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/lentera-edu/lentera-lms-backend/pkg/logger"
	"github.com/lentera-edu/lentera-lms-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context carries the per-run timeout and is cancelled on shutdown.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Scheduler.
type Config struct {
	// Timezone for schedule calculations. Defaults to Jakarta time.
	Timezone *time.Location

	// JobTimeout bounds a single job run.
	JobTimeout time.Duration

	// MaxConcurrentJobs caps parallel job runs.
	MaxConcurrentJobs int

	// Logger for structured logging.
	Logger *logger.Logger
}

// Scheduler runs registered jobs on interval or daily schedules.
// It wraps gocron and adds per-run timeouts, logging and run statistics.
type Scheduler struct {
	mu sync.RWMutex

	cron       *gocron.Scheduler
	jobTimeout time.Duration
	log        *logger.Logger

	lastRuns map[string]JobResult
	running  bool
}

// New creates a Scheduler.
func New(cfg Config) *Scheduler {
	if cfg.Timezone == nil {
		cfg.Timezone = timeutil.JakartaTZ
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	cron := gocron.NewScheduler(cfg.Timezone)
	if cfg.MaxConcurrentJobs > 0 {
		cron.SetMaxConcurrentJobs(cfg.MaxConcurrentJobs, gocron.RescheduleMode)
	}

	return &Scheduler{
		cron:       cron,
		jobTimeout: cfg.JobTimeout,
		log:        cfg.Logger,
		lastRuns:   make(map[string]JobResult),
	}
}

// AddIntervalJob registers a job that runs every interval.
func (s *Scheduler) AddIntervalJob(job Job, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scheduler: interval must be positive for job %q", job.Name())
	}

	_, err := s.cron.Every(interval).Do(s.runner(job))
	if err != nil {
		return fmt.Errorf("scheduler: failed to register job %q: %w", job.Name(), err)
	}

	s.log.Info("job registered",
		logger.String("job", job.Name()),
		logger.Duration("interval", interval),
		logger.String("description", job.Description()),
	)
	return nil
}

// AddDailyJob registers a job that runs once a day at the given local time.
func (s *Scheduler) AddDailyJob(job Job, hour, minute int) error {
	at := fmt.Sprintf("%02d:%02d", hour, minute)

	_, err := s.cron.Every(1).Day().At(at).Do(s.runner(job))
	if err != nil {
		return fmt.Errorf("scheduler: failed to register daily job %q: %w", job.Name(), err)
	}

	s.log.Info("daily job registered",
		logger.String("job", job.Name()),
		logger.String("at", at),
		logger.String("description", job.Description()),
	)
	return nil
}

// runner wraps a job with a timeout context, logging and result tracking.
func (s *Scheduler) runner(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		start := time.Now()
		err := job.Run(ctx)
		duration := time.Since(start)

		result := JobResult{
			JobName:     job.Name(),
			StartedAt:   start,
			CompletedAt: start.Add(duration),
			Duration:    duration,
			Success:     err == nil,
			Error:       err,
		}

		s.mu.Lock()
		s.lastRuns[job.Name()] = result
		s.mu.Unlock()

		if err != nil {
			s.log.Error("job failed",
				logger.String("job", job.Name()),
				logger.Latency(duration),
				logger.Err(err),
			)
			return
		}

		s.log.Info("job completed",
			logger.String("job", job.Name()),
			logger.Latency(duration),
		)
	}
}

// Start begins running all registered jobs. Non-blocking.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	s.cron.StartAsync()
	s.log.Info("scheduler started",
		logger.Int("jobs", len(s.cron.Jobs())),
		logger.String("local_time", timeutil.FormatDateTimeStr(time.Now())),
	)
}

// Stop halts all scheduled jobs and waits for running ones to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	s.cron.Stop()
	s.log.Info("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// LastRun returns the most recent result for a job, if it has run.
func (s *Scheduler) LastRun(jobName string) (JobResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.lastRuns[jobName]
	return result, ok
}
