package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/metrics"
)

var (
	// ErrSameManga is returned when a manga would be migrated onto itself.
	ErrSameManga = errors.New("cannot migrate a manga onto itself")
	// ErrMigrationFailed is returned when the final library update did not apply.
	ErrMigrationFailed = errors.New("migration failed")
)

// MangaStore reads manga and applies the final library change.
type MangaStore interface {
	GetMangaByID(ctx context.Context, id int64) (*entities.Manga, error)
	UpdateAll(ctx context.Context, updates []entities.MangaUpdate) bool
	SetMangaCategories(ctx context.Context, mangaID int64, categoryIDs []int64) error
}

type ChapterStore interface {
	GetChaptersByMangaID(ctx context.Context, mangaID int64) ([]entities.Chapter, error)
	UpdateAll(ctx context.Context, updates []entities.ChapterUpdate) error
}

type CategoryStore interface {
	GetCategoriesByMangaID(ctx context.Context, mangaID int64) ([]entities.Category, error)
}

type TrackStore interface {
	GetTracksByMangaID(ctx context.Context, mangaID int64) ([]entities.Track, error)
	InsertAll(ctx context.Context, tracks []entities.Track) error
}

// Refresher pulls the latest details and chapters of a manga from its source.
type Refresher interface {
	RefreshManga(ctx context.Context, m entities.Manga, manual bool) ([]entities.Chapter, error)
}

type CoverStore interface {
	HasCustomCover(mangaID int64) bool
	CopyCustomCover(from, to int64) error
}

type DownloadStore interface {
	DeleteManga(sourceID int64, title string) error
}

// AuditLogger records finished migrations.
type AuditLogger interface {
	LogMigration(oldID, newID int64, title string, flags []string, replace bool, err error)
}

// SnapshotWriter keeps a copy of both entries before a migration writes anything.
type SnapshotWriter interface {
	SaveJSON(kind string, data any) (string, error)
}

// Result describes one finished migration.
type Result struct {
	OldID          int64    `json:"old_id"`
	NewID          int64    `json:"new_id"`
	Replace        bool     `json:"replace"`
	Flags          Flags    `json:"flags"`
	Facets         []string `json:"facets"`
	ChaptersRead   int      `json:"chapters_read"`
	Categories     int      `json:"categories"`
	Tracks         int      `json:"tracks"`
	CoverCopied    bool     `json:"cover_copied"`
	DownloadsGone  bool     `json:"downloads_deleted"`
	Snapshot       string   `json:"snapshot,omitempty"`
	RefreshWarning string   `json:"refresh_warning,omitempty"`
}

// entrySnapshot is the state of one entry captured before a migration.
type entrySnapshot struct {
	Manga      entities.Manga      `json:"manga"`
	Chapters   []entities.Chapter  `json:"chapters"`
	Categories []entities.Category `json:"categories"`
	Tracks     []entities.Track    `json:"tracks"`
}

// snapshot holds the source and the target of a migration.
type snapshot struct {
	Old entrySnapshot `json:"old"`
	New entrySnapshot `json:"new"`
}

// Migrator moves or copies a library entry onto a manga from another source.
type Migrator struct {
	mangas     MangaStore
	chapters   ChapterStore
	categories CategoryStore
	tracks     TrackStore
	log        logrus.FieldLogger
	now        func() time.Time

	refresher Refresher
	covers    CoverStore
	downloads DownloadStore
	audit     AuditLogger
	snapshots SnapshotWriter
}

func NewMigrator(mangas MangaStore, chapters ChapterStore, categories CategoryStore, tracks TrackStore, log logrus.FieldLogger) *Migrator {
	return &Migrator{
		mangas:     mangas,
		chapters:   chapters,
		categories: categories,
		tracks:     tracks,
		log:        log,
		now:        time.Now,
	}
}

// SetRefresher sets the source refresh run on the target before copying (optional).
func (m *Migrator) SetRefresher(r Refresher) { m.refresher = r }

// SetCoverStore enables the custom cover facet (optional).
func (m *Migrator) SetCoverStore(c CoverStore) { m.covers = c }

// SetDownloadStore enables the delete chapters facet (optional).
func (m *Migrator) SetDownloadStore(d DownloadStore) { m.downloads = d }

func (m *Migrator) SetAuditLogger(a AuditLogger) { m.audit = a }

func (m *Migrator) SetSnapshots(s SnapshotWriter) { m.snapshots = s }

// Migrate carries the facets in flags from oldID onto newID and adds newID to
// the library. With replace the old entry leaves the library and the new one
// inherits its date added; otherwise the new entry is dated now.
//
// Facet steps are applied in order and a failing step aborts the migration.
// Each copy commits on its own; only the final library change of both entries
// is all-or-nothing. When that update fails the copied facets stay on a target
// that is not in the library. Running the migration again is safe: chapter
// state is matched by number, categories are replaced and tracks upsert.
func (m *Migrator) Migrate(ctx context.Context, oldID, newID int64, flags Flags, replace bool) (Result, error) {
	start := m.now()
	result, err := m.migrate(ctx, oldID, newID, flags, replace)

	mode := "copy"
	if replace {
		mode = "replace"
	}
	metrics.Migrations.WithLabelValues(mode, metrics.Outcome(err)).Inc()
	metrics.MigrationDuration.Observe(m.now().Sub(start).Seconds())

	logger := m.log.WithFields(logrus.Fields{
		"old_manga_id": oldID,
		"new_manga_id": newID,
		"flags":        flags.String(),
		"replace":      replace,
	})
	if err != nil {
		logger.WithError(err).Error("Migration failed")
	} else {
		logger.Info("Migration completed")
	}
	return result, err
}

func (m *Migrator) migrate(ctx context.Context, oldID, newID int64, flags Flags, replace bool) (Result, error) {
	result := Result{OldID: oldID, NewID: newID, Replace: replace, Flags: flags, Facets: flags.Facets()}
	if oldID == newID {
		return result, ErrSameManga
	}

	oldManga, err := m.mangas.GetMangaByID(ctx, oldID)
	if err != nil {
		return result, fmt.Errorf("load manga to migrate: %w", err)
	}
	newManga, err := m.mangas.GetMangaByID(ctx, newID)
	if err != nil {
		return result, fmt.Errorf("load migration target: %w", err)
	}

	err = m.apply(ctx, &result, *oldManga, *newManga, flags, replace)
	if m.audit != nil {
		m.audit.LogMigration(oldID, newID, oldManga.Title(), result.Facets, replace, err)
	}
	return result, err
}

func (m *Migrator) apply(ctx context.Context, result *Result, oldManga, newManga entities.Manga, flags Flags, replace bool) error {
	if m.snapshots != nil {
		name, err := m.snapshot(ctx, oldManga, newManga)
		if err != nil {
			return err
		}
		result.Snapshot = name
	}

	if m.refresher != nil {
		if _, err := m.refresher.RefreshManga(ctx, newManga, true); err != nil {
			result.RefreshWarning = err.Error()
			m.log.WithError(err).WithField("manga_id", newManga.ID).Warn("Could not refresh migration target")
		}
	}

	if flags.HasChapters() {
		n, err := m.migrateChapters(ctx, oldManga.ID, newManga.ID)
		if err != nil {
			return err
		}
		result.ChaptersRead = n
	}

	if flags.HasCategories() {
		categories, err := m.categories.GetCategoriesByMangaID(ctx, oldManga.ID)
		if err != nil {
			return fmt.Errorf("load categories of manga %d: %w", oldManga.ID, err)
		}
		ids := make([]int64, 0, len(categories))
		for _, c := range categories {
			ids = append(ids, c.ID)
		}
		if err := m.mangas.SetMangaCategories(ctx, newManga.ID, ids); err != nil {
			return err
		}
		result.Categories = len(ids)
	}

	if flags.HasTracks() {
		tracks, err := m.tracks.GetTracksByMangaID(ctx, oldManga.ID)
		if err != nil {
			return fmt.Errorf("load tracks of manga %d: %w", oldManga.ID, err)
		}
		for i := range tracks {
			tracks[i].ID = 0
			tracks[i].MangaID = newManga.ID
		}
		if err := m.tracks.InsertAll(ctx, tracks); err != nil {
			return fmt.Errorf("copy tracks to manga %d: %w", newManga.ID, err)
		}
		result.Tracks = len(tracks)
	}

	if flags.HasCustomCover() && m.covers != nil && m.covers.HasCustomCover(oldManga.ID) {
		if err := m.covers.CopyCustomCover(oldManga.ID, newManga.ID); err != nil {
			return fmt.Errorf("copy custom cover: %w", err)
		}
		result.CoverCopied = true
	}

	updates := libraryUpdates(oldManga, newManga, flags, replace, m.now())
	if !m.mangas.UpdateAll(ctx, updates) {
		return ErrMigrationFailed
	}

	if flags.HasDeleteChapters() && m.downloads != nil {
		if err := m.downloads.DeleteManga(oldManga.Source, oldManga.Title()); err != nil {
			m.log.WithError(err).WithField("manga_id", oldManga.ID).Warn("Failed to delete downloads of migrated manga")
		} else {
			result.DownloadsGone = true
		}
	}
	return nil
}

// migrateChapters copies bookmarks and fetch dates by chapter number and marks
// every chapter up to the highest read number as read. Chapters without a
// recognized number are left alone.
func (m *Migrator) migrateChapters(ctx context.Context, oldID, newID int64) (int, error) {
	oldChapters, err := m.chapters.GetChaptersByMangaID(ctx, oldID)
	if err != nil {
		return 0, fmt.Errorf("load chapters of manga %d: %w", oldID, err)
	}
	newChapters, err := m.chapters.GetChaptersByMangaID(ctx, newID)
	if err != nil {
		return 0, fmt.Errorf("load chapters of manga %d: %w", newID, err)
	}

	maxRead := -1.0
	byNumber := make(map[float64]entities.Chapter, len(oldChapters))
	for _, c := range oldChapters {
		if !c.IsRecognizedNumber() {
			continue
		}
		if _, ok := byNumber[c.ChapterNumber]; !ok {
			byNumber[c.ChapterNumber] = c
		}
		if c.Read && c.ChapterNumber > maxRead {
			maxRead = c.ChapterNumber
		}
	}

	var updates []entities.ChapterUpdate
	read := 0
	for _, c := range newChapters {
		if !c.IsRecognizedNumber() {
			continue
		}
		update := entities.ChapterUpdate{ID: c.ID}
		changed := false
		if prev, ok := byNumber[c.ChapterNumber]; ok {
			update.DateFetch = entities.Some(prev.DateFetch)
			update.Bookmark = entities.Some(prev.Bookmark)
			changed = true
		}
		if maxRead >= 0 && c.ChapterNumber <= maxRead {
			update.Read = entities.Some(true)
			changed = true
			read++
		}
		if changed {
			updates = append(updates, update)
		}
	}

	if err := m.chapters.UpdateAll(ctx, updates); err != nil {
		return 0, fmt.Errorf("update chapters of manga %d: %w", newID, err)
	}
	return read, nil
}

// libraryUpdates builds the patches that move the library entry.
func libraryUpdates(oldManga, newManga entities.Manga, flags Flags, replace bool, now time.Time) []entities.MangaUpdate {
	var updates []entities.MangaUpdate
	if replace {
		updates = append(updates, entities.MangaUpdate{
			ID:        oldManga.ID,
			Favorite:  entities.Some(false),
			DateAdded: entities.Some(int64(0)),
		})
	}

	target := entities.MangaUpdate{
		ID:       newManga.ID,
		Favorite: entities.Some(true),
	}
	if replace {
		target.DateAdded = entities.Some(oldManga.DateAdded)
	} else {
		target.DateAdded = entities.Some(now.UnixMilli())
	}
	if flags.HasExtra() {
		target.ChapterFlags = entities.Some(oldManga.ChapterFlags)
		target.ViewerFlags = entities.Some(oldManga.ViewerFlags)
	}
	if flags.HasNotes() {
		target.Notes = entities.Some(oldManga.Notes)
	}
	return append(updates, target)
}

func (m *Migrator) snapshot(ctx context.Context, oldManga, newManga entities.Manga) (string, error) {
	var snap snapshot
	var err error
	if snap.Old, err = m.captureEntry(ctx, oldManga); err != nil {
		return "", err
	}
	if snap.New, err = m.captureEntry(ctx, newManga); err != nil {
		return "", err
	}
	return m.snapshots.SaveJSON(fmt.Sprintf("migration-%d-%d", oldManga.ID, newManga.ID), snap)
}

func (m *Migrator) captureEntry(ctx context.Context, manga entities.Manga) (entrySnapshot, error) {
	entry := entrySnapshot{Manga: manga}
	var err error
	if entry.Chapters, err = m.chapters.GetChaptersByMangaID(ctx, manga.ID); err != nil {
		return entry, fmt.Errorf("snapshot chapters of manga %d: %w", manga.ID, err)
	}
	if entry.Categories, err = m.categories.GetCategoriesByMangaID(ctx, manga.ID); err != nil {
		return entry, fmt.Errorf("snapshot categories of manga %d: %w", manga.ID, err)
	}
	if entry.Tracks, err = m.tracks.GetTracksByMangaID(ctx, manga.ID); err != nil {
		return entry, fmt.Errorf("snapshot tracks of manga %d: %w", manga.ID, err)
	}
	return entry, nil
}
