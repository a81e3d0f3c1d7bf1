// Package scheduler runs periodic jobs on cron schedules kept in settings.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/settingsstore"
)

// AuditCleanupSchedule runs the audit retention cleanup once a day.
const AuditCleanupSchedule = "30 3 * * *"

// ConfigSource provides the current library update settings.
type ConfigSource interface {
	GetLibraryUpdateConfig(ctx context.Context) settingsstore.LibraryUpdateConfig
}

// Runner performs a library update in process.
type Runner interface {
	Run(ctx context.Context) (library.Report, error)
}

// Enqueuer hands jobs to the task queue.
type Enqueuer interface {
	EnqueueLibraryUpdate(trigger string) (string, error)
	EnqueueAuditCleanup(retentionDays int) (string, error)
}

// LibraryUpdateScheduler triggers library updates on the configured schedule.
// With a task queue set, runs are enqueued; otherwise they run inline.
type LibraryUpdateScheduler struct {
	settings ConfigSource
	runner   Runner
	queue    Enqueuer
	log      logrus.FieldLogger

	auditRetentionDays int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isUpdating bool
	cancelFunc context.CancelFunc
}

func NewLibraryUpdateScheduler(settings ConfigSource, runner Runner, log logrus.FieldLogger) *LibraryUpdateScheduler {
	return &LibraryUpdateScheduler{
		settings: settings,
		runner:   runner,
		log:      log,
		cron:     newCron(),
	}
}

func newCron() *cron.Cron {
	return cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
}

// SetQueue makes scheduled runs go through the task queue (optional).
func (s *LibraryUpdateScheduler) SetQueue(queue Enqueuer) { s.queue = queue }

// SetAuditRetention enables a daily audit cleanup when days is positive and
// a queue is set.
func (s *LibraryUpdateScheduler) SetAuditRetention(days int) { s.auditRetentionDays = days }

// Start begins the scheduler if library updates are enabled.
func (s *LibraryUpdateScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settings.GetLibraryUpdateConfig(ctx)
	if !config.Enabled {
		s.log.Info("Library update scheduler disabled")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	s.cron = newCron()
	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.trigger("schedule")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule library update: %w", err)
	}
	s.entryID = entryID

	if s.queue != nil && s.auditRetentionDays > 0 {
		if _, err := s.cron.AddFunc(AuditCleanupSchedule, s.enqueueAuditCleanup); err != nil {
			return fmt.Errorf("failed to schedule audit cleanup: %w", err)
		}
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	s.log.WithFields(logrus.Fields{
		"schedule":    config.Schedule,
		"description": settingsstore.GetCronDescription(config.Schedule),
		"next_run":    nextRun,
	}).Info("Library update scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job and stops the scheduler.
func (s *LibraryUpdateScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	c, cancel := s.cron, s.cancelFunc
	s.isRunning = false
	s.cancelFunc = nil
	s.mu.Unlock()

	<-c.Stop().Done()
	if cancel != nil {
		cancel()
	}
	s.log.Info("Library update scheduler stopped")
}

// Reschedule applies changed settings.
func (s *LibraryUpdateScheduler) Reschedule(ctx context.Context) error {
	s.Stop()
	return s.Start(context.WithoutCancel(ctx))
}

// RunNow triggers an update immediately and returns the queued task id,
// or an empty id when the update runs in process.
func (s *LibraryUpdateScheduler) RunNow() (string, error) {
	if s.queue != nil {
		return s.queue.EnqueueLibraryUpdate("manual")
	}
	if s.IsUpdating() {
		return "", library.ErrUpdateRunning
	}
	go s.runInline("manual")
	return "", nil
}

func (s *LibraryUpdateScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsUpdating reports whether an inline update is in progress.
func (s *LibraryUpdateScheduler) IsUpdating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isUpdating
}

// GetNextRunTime returns when the next update will occur.
func (s *LibraryUpdateScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *LibraryUpdateScheduler) trigger(by string) {
	if s.queue == nil {
		s.runInline(by)
		return
	}
	id, err := s.queue.EnqueueLibraryUpdate(by)
	if err != nil {
		s.log.WithError(err).Error("Failed to enqueue library update")
		return
	}
	s.log.WithFields(logrus.Fields{"task_id": id, "trigger": by}).Info("Library update enqueued")
}

func (s *LibraryUpdateScheduler) runInline(by string) {
	s.mu.Lock()
	if s.isUpdating {
		s.mu.Unlock()
		s.log.Info("Library update skipped: already updating")
		return
	}
	s.isUpdating = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isUpdating = false
		s.mu.Unlock()
	}()

	if _, err := s.runner.Run(context.Background()); err != nil && !errors.Is(err, library.ErrUpdateRunning) {
		s.log.WithError(err).WithField("trigger", by).Error("Library update failed")
	}
}

func (s *LibraryUpdateScheduler) enqueueAuditCleanup() {
	if _, err := s.queue.EnqueueAuditCleanup(s.auditRetentionDays); err != nil {
		s.log.WithError(err).Error("Failed to enqueue audit cleanup")
	}
}
