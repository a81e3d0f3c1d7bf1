package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/metrics"
)

// ErrUpdateRunning is returned when a library update is already in progress.
var ErrUpdateRunning = errors.New("a library update is already running")

// DefaultWorkers is the number of manga refreshed at once.
const DefaultWorkers = 4

// Library update statuses recorded in settings.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

type FavoriteLister interface {
	GetFavorites(ctx context.Context) ([]entities.Manga, error)
}

type MangaRefresher interface {
	RefreshManga(ctx context.Context, m entities.Manga, manual bool) ([]entities.Chapter, error)
}

// ProgressTracker persists the progress of a run.
type ProgressTracker interface {
	IsSyncRunning(ctx context.Context) (bool, error)
	StartSync(ctx context.Context, totalItems int) error
	UpdateProgress(ctx context.Context, processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(ctx context.Context, succeeded bool, errorMsg string) error
}

// StatusRecorder stores the outcome of the last run.
type StatusRecorder interface {
	SetLibraryUpdateStatus(ctx context.Context, status, message string, mangaCount int) error
}

type AuditLogger interface {
	LogLibraryUpdate(description string, updated, failed int, err error)
}

// Report summarizes one run.
type Report struct {
	Candidates  int           `json:"candidates"`
	Updated     int           `json:"updated"`
	Failed      int           `json:"failed"`
	NewChapters int           `json:"new_chapters"`
	Duration    time.Duration `json:"duration"`
	Errors      []string      `json:"errors,omitempty"`
}

// Updater refreshes every library entry that is due.
type Updater struct {
	favorites FavoriteLister
	refresher MangaRefresher
	workers   int
	log       logrus.FieldLogger
	now       func() time.Time

	progress ProgressTracker
	status   StatusRecorder
	audit    AuditLogger

	mu      sync.Mutex
	running bool
}

func NewUpdater(favorites FavoriteLister, refresher MangaRefresher, workers int, log logrus.FieldLogger) *Updater {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Updater{
		favorites: favorites,
		refresher: refresher,
		workers:   workers,
		log:       log,
		now:       time.Now,
	}
}

// SetProgressTracker enables persisted progress (optional).
func (u *Updater) SetProgressTracker(p ProgressTracker) { u.progress = p }

// SetStatusRecorder enables storing the last run outcome (optional).
func (u *Updater) SetStatusRecorder(s StatusRecorder) { u.status = s }

// SetAuditLogger enables audit events (optional).
func (u *Updater) SetAuditLogger(a AuditLogger) { u.audit = a }

// IsRunning reports whether a run is in progress in this process.
func (u *Updater) IsRunning() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}

// Candidates returns the favorites a run would refresh: entries that follow
// their source and whose next update is unset or already due. Fetch-once
// entries are only picked until their first refresh.
func (u *Updater) Candidates(ctx context.Context) ([]entities.Manga, error) {
	favorites, err := u.favorites.GetFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	now := u.now().UnixMilli()
	var due []entities.Manga
	for _, m := range favorites {
		if m.UpdateStrategy == entities.UpdateStrategyOnlyFetchOnce && m.Initialized {
			continue
		}
		if m.NextUpdate > now {
			continue
		}
		due = append(due, m)
	}
	return due, nil
}

// Run refreshes every candidate. A failing manga is counted and does not
// stop the run; a cancelled context does.
func (u *Updater) Run(ctx context.Context) (Report, error) {
	u.mu.Lock()
	if u.running {
		u.mu.Unlock()
		return Report{}, ErrUpdateRunning
	}
	u.running = true
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		u.running = false
		u.mu.Unlock()
	}()

	started := u.now()
	report, err := u.run(ctx)
	report.Duration = u.now().Sub(started)
	u.finish(ctx, report, err)
	return report, err
}

func (u *Updater) run(ctx context.Context) (Report, error) {
	if u.progress != nil {
		running, err := u.progress.IsSyncRunning(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("check library update progress: %w", err)
		}
		if running {
			return Report{}, ErrUpdateRunning
		}
	}

	candidates, err := u.Candidates(ctx)
	if err != nil {
		return Report{}, err
	}
	report := Report{Candidates: len(candidates)}
	u.log.WithField("candidates", len(candidates)).Info("Library update started")

	if u.progress != nil {
		if err := u.progress.StartSync(ctx, len(candidates)); err != nil {
			return report, fmt.Errorf("start library update progress: %w", err)
		}
	}

	var mu sync.Mutex
	processed := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for _, m := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			added, err := u.refresher.RefreshManga(gctx, m, false)
			metrics.LibraryUpdates.WithLabelValues(metrics.Outcome(err)).Inc()

			mu.Lock()
			defer mu.Unlock()
			processed++
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				report.Failed++
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", m.Title(), err))
				u.log.WithError(err).WithField("manga_id", m.ID).Warn("Failed to update manga")
			} else {
				report.Updated++
				report.NewChapters += len(added)
				metrics.NewChapters.Add(float64(len(added)))
			}
			if u.progress != nil {
				if perr := u.progress.UpdateProgress(gctx, processed, report.Updated, report.Failed, 0, m.Title()); perr != nil {
					u.log.WithError(perr).Warn("Failed to update library update progress")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func (u *Updater) finish(ctx context.Context, report Report, err error) {
	ctx = context.WithoutCancel(ctx)
	logger := u.log.WithFields(logrus.Fields{
		"updated":      report.Updated,
		"failed":       report.Failed,
		"new_chapters": report.NewChapters,
		"duration":     report.Duration.Round(time.Millisecond),
	})

	if errors.Is(err, ErrUpdateRunning) {
		logger.Info("Library update skipped: already running")
		return
	}

	status, message := StatusSuccess, fmt.Sprintf("Updated %d of %d entries, %d new chapters", report.Updated, report.Candidates, report.NewChapters)
	switch {
	case err != nil:
		status, message = StatusFailed, err.Error()
		logger.WithError(err).Error("Library update failed")
	case report.Failed > 0:
		status = StatusPartial
		logger.Warn("Library update finished with failures")
	default:
		logger.Info("Library update finished")
	}

	if u.progress != nil {
		msg := ""
		if status != StatusSuccess {
			msg = message
		}
		if perr := u.progress.CompleteSync(ctx, err == nil, msg); perr != nil {
			u.log.WithError(perr).Warn("Failed to complete library update progress")
		}
	}
	if u.status != nil {
		if serr := u.status.SetLibraryUpdateStatus(ctx, status, message, report.Updated); serr != nil {
			u.log.WithError(serr).Warn("Failed to store library update status")
		}
	}
	if u.audit != nil {
		u.audit.LogLibraryUpdate(message, report.Updated, report.Failed, err)
	}
}
