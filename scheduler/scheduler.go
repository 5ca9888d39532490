// Package scheduler runs the background notification jobs
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"climascope.app/config"
	"climascope.app/service"
)

// Job is one scheduled task. nextRun computes the next due time after a given
// instant; run performs the work.
type Job struct {
	Name    string
	nextRun func(after time.Time) time.Time
	run     func() error

	mu      sync.Mutex
	dueAt   time.Time
	LastRun time.Time
	LastErr error
	Runs    int
}

// JobStatus is a point-in-time view of a job for the dashboard.
type JobStatus struct {
	Name    string     `json:"name"`
	NextRun time.Time  `json:"next_run"`
	LastRun *time.Time `json:"last_run,omitempty"`
	LastErr string     `json:"last_error,omitempty"`
	Runs    int        `json:"runs"`
}

// Scheduler polls a job registry and fires jobs when due.
type Scheduler struct {
	jobs     []*Job
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// New builds the scheduler with the standard job set: hourly alert sweeps, a
// daily summary, a daily retention cleanup and a periodic health check.
func New(
	cfg config.SchedulerConfig,
	alerts *service.AlertService,
	summaries *service.SummaryService,
	cleanup *service.CleanupService,
	health *service.HealthService,
) (*Scheduler, error) {
	summaryHour, summaryMinute, err := config.ParseClock(cfg.DailySummaryAt)
	if err != nil {
		return nil, err
	}
	cleanupHour, cleanupMinute, err := config.ParseClock(cfg.CleanupAt)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		interval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	s.register(&Job{
		Name:    "alert_sweep",
		nextRun: nextTopOfHour,
		run: func() error {
			_, err := alerts.RunSweep(false)
			return err
		},
	})
	s.register(&Job{
		Name:    "daily_summary",
		nextRun: dailyAt(summaryHour, summaryMinute),
		run: func() error {
			_, err := summaries.RunDaily(false)
			return err
		},
	})
	s.register(&Job{
		Name:    "cleanup",
		nextRun: dailyAt(cleanupHour, cleanupMinute),
		run: func() error {
			_, err := cleanup.Run(service.CleanupOptions{})
			return err
		},
	})
	s.register(&Job{
		Name:    "health_check",
		nextRun: every(time.Duration(cfg.HealthCheckHours) * time.Hour),
		run: func() error {
			health.Check()
			return nil
		},
	})

	return s, nil
}

func (s *Scheduler) register(job *Job) {
	job.dueAt = job.nextRun(time.Now())
	s.jobs = append(s.jobs, job)
}

// Start launches the polling loop in its own goroutine.
func (s *Scheduler) Start() {
	slog.Info("Scheduler starting", "jobs", len(s.jobs), "poll_interval", s.interval)
	go s.loop()
}

// Stop halts the polling loop and waits for it to exit. A job already running
// finishes first.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stop)
	})
	<-s.done
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			for _, job := range s.jobs {
				s.maybeRun(job, now)
			}
		}
	}
}

func (s *Scheduler) maybeRun(job *Job, now time.Time) {
	job.mu.Lock()
	due := !now.Before(job.dueAt)
	if due {
		job.dueAt = job.nextRun(now)
	}
	job.mu.Unlock()
	if !due {
		return
	}

	slog.Info("Running scheduled job", "job", job.Name)
	err := s.runProtected(job)

	job.mu.Lock()
	job.LastRun = now
	job.LastErr = err
	job.Runs++
	job.mu.Unlock()

	if err != nil {
		slog.Error("Scheduled job failed", "job", job.Name, "error", err)
	}
}

// runProtected isolates a panicking job so the scheduler keeps running.
func (s *Scheduler) runProtected(job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scheduled job panicked", "job", job.Name, "panic", r)
			err = &panicError{job: job.Name, value: r}
		}
	}()
	return job.run()
}

type panicError struct {
	job   string
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.job, e.value)
}

// Status reports the current state of every registered job.
func (s *Scheduler) Status() []JobStatus {
	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		job.mu.Lock()
		status := JobStatus{
			Name:    job.Name,
			NextRun: job.dueAt,
			Runs:    job.Runs,
		}
		if !job.LastRun.IsZero() {
			lastRun := job.LastRun
			status.LastRun = &lastRun
		}
		if job.LastErr != nil {
			status.LastErr = job.LastErr.Error()
		}
		job.mu.Unlock()
		statuses = append(statuses, status)
	}
	return statuses
}

// nextTopOfHour returns the next whole hour after the given instant.
func nextTopOfHour(after time.Time) time.Time {
	return after.Truncate(time.Hour).Add(time.Hour)
}

// dailyAt returns a schedule firing once a day at the given wall-clock time.
func dailyAt(hour, minute int) func(time.Time) time.Time {
	return func(after time.Time) time.Time {
		next := time.Date(after.Year(), after.Month(), after.Day(), hour, minute, 0, 0, after.Location())
		if !next.After(after) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}
}

// every returns a fixed-interval schedule.
func every(interval time.Duration) func(time.Time) time.Time {
	return func(after time.Time) time.Time {
		return after.Add(interval)
	}
}
