// Package scheduler runs the provider sync job on a fixed interval and
// exposes manual control over it.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"call-coach-go/internal/config"
	"call-coach-go/internal/syncer"
)

// Scheduler manages the periodic provider sync.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	config  *config.SchedulerConfig
	sync    *syncer.Service
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu        sync.RWMutex
	isRunning bool
	lastRun   *syncer.Result
}

// NewScheduler creates a scheduler around the sync service. It does not
// start anything; call Start.
func NewScheduler(cfg *config.SchedulerConfig, sync *syncer.Service) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		config: cfg,
		sync:   sync,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start schedules the sync to run every configured interval.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)

	// A previous Stop leaves its cron entry behind; drop it so a restart
	// does not schedule the sync twice.
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	entryID, err := s.cron.AddFunc(schedule, s.runSync)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler and waits for an in-flight sync to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false

	// The cancel above aborted any in-flight sync; manual runs and a later
	// restart need a live context again.
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return nil
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) runSync() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.RLock()
	if !s.isRunning {
		s.mu.RUnlock()
		logrus.Info("Scheduler not running, skipping sync cycle")
		return
	}
	ctx := s.ctx
	s.mu.RUnlock()

	result, err := s.sync.Run(ctx, 0)
	if err != nil {
		logrus.Errorf("Scheduled sync failed: %v", err)
		return
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()
}

// RunOnce runs the sync immediately, outside the cron schedule. hours > 0
// overrides the sync watermark with an explicit lookback window.
func (s *Scheduler) RunOnce(hours int) (*syncer.Result, error) {
	s.wg.Add(1)
	defer s.wg.Done()

	logrus.Info("Running provider sync once")
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	result, err := s.sync.Run(ctx, hours)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()
	return result, nil
}

// GetNextRun returns the time of the next scheduled run.
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	entry := s.cron.Entry(s.entryID)
	return entry.Next
}

// GetLastRun returns the result of the most recent sync, nil if none ran yet.
func (s *Scheduler) GetLastRun() *syncer.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Wait waits for in-flight sync cycles to complete.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
