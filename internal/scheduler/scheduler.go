// Package scheduler runs the prediction pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrUnchanged is returned by a watch check when the input has not been modified
// since the last successful run.
var ErrUnchanged = errors.New("input unchanged since last run")

// RunFunc executes one prediction pass over the input file at path
type RunFunc func(ctx context.Context, path string) error

// Scheduler manages scheduled prediction jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      10 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// watchJob re-runs the pipeline whenever its input file changes
type watchJob struct {
	path    string
	run     RunFunc
	timeout time.Duration
	logger  *logrus.Logger

	mu      sync.Mutex
	lastMod time.Time
}

// check runs the pipeline if the input was modified since the last success.
func (j *watchJob) check(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	info, err := os.Stat(j.path)
	if err != nil {
		return fmt.Errorf("failed to stat input %s: %w", j.path, err)
	}
	if !info.ModTime().After(j.lastMod) {
		return ErrUnchanged
	}

	if err := j.run(ctx, j.path); err != nil {
		return err
	}
	j.lastMod = info.ModTime()
	return nil
}

func (j *watchJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	err := j.check(ctx)
	switch {
	case errors.Is(err, ErrUnchanged):
		j.logger.WithField("input", j.path).Debug("Input unchanged, skipping scheduled run")
	case err != nil:
		j.logger.WithError(err).WithField("input", j.path).Error("Scheduled prediction run failed")
	default:
		j.logger.WithFields(logrus.Fields{
			"input":    j.path,
			"duration": time.Since(start).String(),
		}).Info("Scheduled prediction run completed")
	}
}

// ScheduleWatch schedules a check of inputPath on cronExpression. The pipeline
// runs only when the file changed since its last successful run.
func (s *Scheduler) ScheduleWatch(cronExpression, inputPath string, run RunFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	job := &watchJob{path: inputPath, run: run, timeout: s.jobTimeout, logger: s.logger}
	entryID, err := s.cron.AddJob(cronExpression, job)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"cron":  cronExpression,
		"input": inputPath,
	}).Info("Scheduled prediction watch job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs to finish, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler did not stop within %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}
