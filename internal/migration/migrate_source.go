package migration

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/entities"
)

var (
	// ErrBatchRunning is returned when another source migration is in progress.
	ErrBatchRunning = errors.New("a source migration is already running")
	// ErrNoTargetSources is returned when no selected source differs from the one migrated away from.
	ErrNoTargetSources = errors.New("no migration sources selected")
)

// Batch item statuses.
const (
	ItemMigrated = "migrated"
	ItemSkipped  = "skipped"
	ItemFailed   = "failed"
)

type FavoriteLister interface {
	GetFavoritesBySourceID(ctx context.Context, sourceID int64) ([]entities.Manga, error)
}

type Searcher interface {
	Search(ctx context.Context, title string, sourceIDs []int64) (Match, error)
}

type SelectedSources interface {
	SelectedIDs(ctx context.Context) []int64
}

type SingleMigrator interface {
	Migrate(ctx context.Context, oldID, newID int64, flags Flags, replace bool) (Result, error)
}

// ProgressTracker persists the progress of a long running batch.
type ProgressTracker interface {
	IsSyncRunning(ctx context.Context) (bool, error)
	StartSync(ctx context.Context, totalItems int) error
	UpdateProgress(ctx context.Context, processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(ctx context.Context, succeeded bool, errorMsg string) error
}

type BatchItem struct {
	MangaID    int64   `json:"manga_id"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	NewMangaID int64   `json:"new_manga_id,omitempty"`
	NewSource  int64   `json:"new_source,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type BatchResult struct {
	SourceID int64       `json:"source_id"`
	Total    int         `json:"total"`
	Migrated int         `json:"migrated"`
	Skipped  int         `json:"skipped"`
	Failed   int         `json:"failed"`
	Items    []BatchItem `json:"items"`
}

// SourceMigrator migrates every library entry of one source to the best
// match among the selected migration sources.
type SourceMigrator struct {
	favorites FavoriteLister
	search    Searcher
	selected  SelectedSources
	migrator  SingleMigrator
	progress  ProgressTracker
	log       logrus.FieldLogger
}

func NewSourceMigrator(favorites FavoriteLister, search Searcher, selected SelectedSources, migrator SingleMigrator, log logrus.FieldLogger) *SourceMigrator {
	return &SourceMigrator{
		favorites: favorites,
		search:    search,
		selected:  selected,
		migrator:  migrator,
		log:       log,
	}
}

// SetProgressTracker enables progress reporting (optional).
func (s *SourceMigrator) SetProgressTracker(p ProgressTracker) { s.progress = p }

// MigrateSource processes the favorites of sourceID one by one. Entries with
// no match are skipped and failures are counted; neither stops the batch.
// Only a cancelled context or a storage failure ends it early.
func (s *SourceMigrator) MigrateSource(ctx context.Context, sourceID int64, flags Flags, replace bool) (BatchResult, error) {
	result := BatchResult{SourceID: sourceID}

	targets := slices.DeleteFunc(s.selected.SelectedIDs(ctx), func(id int64) bool { return id == sourceID })
	if len(targets) == 0 {
		return result, ErrNoTargetSources
	}

	if s.progress != nil {
		running, err := s.progress.IsSyncRunning(ctx)
		if err != nil {
			return result, fmt.Errorf("check migration progress: %w", err)
		}
		if running {
			return result, ErrBatchRunning
		}
	}

	favorites, err := s.favorites.GetFavoritesBySourceID(ctx, sourceID)
	if err != nil {
		return result, fmt.Errorf("load favorites of source %d: %w", sourceID, err)
	}
	result.Total = len(favorites)

	if s.progress != nil {
		if err := s.progress.StartSync(ctx, len(favorites)); err != nil {
			return result, fmt.Errorf("start migration progress: %w", err)
		}
	}

	logger := s.log.WithFields(logrus.Fields{"source_id": sourceID, "flags": flags.String()})
	logger.WithField("total", len(favorites)).Info("Source migration started")

	for i, m := range favorites {
		if err := ctx.Err(); err != nil {
			s.complete(ctx, result, err)
			return result, err
		}

		item := s.migrateOne(ctx, m, targets, flags, replace)
		result.Items = append(result.Items, item)
		switch item.Status {
		case ItemMigrated:
			result.Migrated++
		case ItemSkipped:
			result.Skipped++
		default:
			result.Failed++
		}

		if s.progress != nil {
			if err := s.progress.UpdateProgress(ctx, i+1, result.Migrated, result.Failed, result.Skipped, m.Title()); err != nil {
				logger.WithError(err).Warn("Failed to update migration progress")
			}
		}
	}

	s.complete(ctx, result, nil)
	logger.WithFields(logrus.Fields{
		"migrated": result.Migrated,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Source migration finished")
	return result, nil
}

func (s *SourceMigrator) migrateOne(ctx context.Context, m entities.Manga, targets []int64, flags Flags, replace bool) BatchItem {
	item := BatchItem{MangaID: m.ID, Title: m.Title()}

	match, err := s.search.Search(ctx, m.Title(), targets)
	if errors.Is(err, ErrNoMatch) {
		item.Status = ItemSkipped
		return item
	}
	if err != nil {
		item.Status = ItemFailed
		item.Error = err.Error()
		return item
	}
	item.NewMangaID = match.Manga.ID
	item.NewSource = match.SourceID
	item.Score = match.Score

	if _, err := s.migrator.Migrate(ctx, m.ID, match.Manga.ID, flags, replace); err != nil {
		item.Status = ItemFailed
		item.Error = err.Error()
		return item
	}
	item.Status = ItemMigrated
	return item
}

func (s *SourceMigrator) complete(ctx context.Context, result BatchResult, err error) {
	if s.progress == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	} else if result.Failed > 0 {
		msg = fmt.Sprintf("%d of %d entries failed", result.Failed, result.Total)
	}
	if cerr := s.progress.CompleteSync(context.WithoutCancel(ctx), err == nil, msg); cerr != nil {
		s.log.WithError(cerr).Warn("Failed to complete migration progress")
	}
}
