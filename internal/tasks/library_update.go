package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/library"
)

// LibraryRunner runs a full library update.
type LibraryRunner interface {
	Run(ctx context.Context) (library.Report, error)
}

// MangaRefresher refreshes a single manga by id.
type MangaRefresher interface {
	RefreshMangaByID(ctx context.Context, id int64) ([]entities.Chapter, error)
}

// LibraryUpdateTask refreshes every library entry that is due.
type LibraryUpdateTask struct {
	// Trigger records who asked for the run, "schedule" or "manual".
	Trigger string `json:"trigger"`
}

func (t LibraryUpdateTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "library_update",
		MaxAttempts: 1,
		Timeout:     40 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// LibraryUpdateProcessor creates a processor function for LibraryUpdateTask.
// A run already in progress makes the task a no-op.
func LibraryUpdateProcessor(runner LibraryRunner, log logrus.FieldLogger) backlite.QueueProcessor[LibraryUpdateTask] {
	return func(ctx context.Context, task LibraryUpdateTask) error {
		if runner == nil {
			return fmt.Errorf("library updater not configured")
		}

		report, err := runner.Run(ctx)
		if errors.Is(err, library.ErrUpdateRunning) {
			log.WithField("trigger", task.Trigger).Info("Library update already running, task skipped")
			return nil
		}
		if err != nil {
			return fmt.Errorf("library update: %w", err)
		}

		log.WithFields(logrus.Fields{
			"trigger":      task.Trigger,
			"updated":      report.Updated,
			"failed":       report.Failed,
			"new_chapters": report.NewChapters,
		}).Info("Library update task finished")
		return nil
	}
}

func NewLibraryUpdateQueue(runner LibraryRunner, log logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(LibraryUpdateProcessor(runner, log))
}

// RefreshMangaTask pulls details and chapters of one manga from its source.
type RefreshMangaTask struct {
	MangaID int64 `json:"manga_id"`
}

func (t RefreshMangaTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_manga",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshMangaProcessor creates a processor function for RefreshMangaTask.
func RefreshMangaProcessor(refresher MangaRefresher, log logrus.FieldLogger) backlite.QueueProcessor[RefreshMangaTask] {
	return func(ctx context.Context, task RefreshMangaTask) error {
		if refresher == nil {
			return fmt.Errorf("manga refresher not configured")
		}

		added, err := refresher.RefreshMangaByID(ctx, task.MangaID)
		if err != nil {
			return fmt.Errorf("refresh manga %d: %w", task.MangaID, err)
		}

		log.WithFields(logrus.Fields{"manga_id": task.MangaID, "new_chapters": len(added)}).Info("Refreshed manga")
		return nil
	}
}

func NewRefreshMangaQueue(refresher MangaRefresher, log logrus.FieldLogger) backlite.Queue {
	return backlite.NewQueue(RefreshMangaProcessor(refresher, log))
}
