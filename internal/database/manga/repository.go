// Package manga provides database operations for manga records.
//
// Records are keyed by identity and, per source, by url. Partial updates go
// through Update and UpdateAll, which merge sparse patches inside a single
// transaction and report failure as false after logging the cause.
//
// # Usage
//
//	repo := manga.NewRepository(db.Handler, log)
//	m, err := repo.GetMangaByURLAndSourceID(ctx, "/m/1", 10)
//	ok := repo.Update(ctx, entities.MangaUpdate{ID: m.ID, Favorite: entities.Some(true)})
package manga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/mangashelf/internal/database"
	"github.com/mrlokans/mangashelf/internal/entities"
)

var (
	// ErrMangaNotFound is returned when an identity has no stored record.
	ErrMangaNotFound = errors.New("manga not found")
	// ErrNoIdentity is returned when an insert did not produce an identity.
	ErrNoIdentity = errors.New("insert did not return a manga id")
	// ErrAlreadyExists is returned when an insert lost to an existing (url, source) record.
	ErrAlreadyExists = errors.New("manga already exists for url and source")
)

var mangaTables = []string{database.TableMangas}

// Repository handles all manga database operations.
type Repository struct {
	h   *database.Handler
	log logrus.FieldLogger
	now func() time.Time
}

// NewRepository creates a new manga repository.
func NewRepository(h *database.Handler, log logrus.FieldLogger) *Repository {
	return &Repository{h: h, log: log, now: time.Now}
}

func findByID(db *gorm.DB, id int64) (*entities.Manga, error) {
	var m entities.Manga
	err := db.Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrMangaNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func findByURLAndSource(db *gorm.DB, url string, sourceID int64) (*entities.Manga, error) {
	var m entities.Manga
	err := db.Where("url = ? AND source = ?", url, sourceID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMangaByID retrieves a manga by identity. Missing ids yield ErrMangaNotFound.
func (r *Repository) GetMangaByID(ctx context.Context, id int64) (*entities.Manga, error) {
	return findByID(r.h.DB(ctx), id)
}

// SubscribeMangaByID streams the record every time the mangas table changes.
// The stream ends if the record disappears.
func (r *Repository) SubscribeMangaByID(ctx context.Context, id int64) <-chan entities.Manga {
	return database.Subscribe(ctx, r.h, mangaTables, func(db *gorm.DB) (entities.Manga, error) {
		m, err := findByID(db, id)
		if err != nil {
			return entities.Manga{}, err
		}
		return *m, nil
	})
}

// GetMangaByURLAndSourceID returns nil without error when no record matches.
func (r *Repository) GetMangaByURLAndSourceID(ctx context.Context, url string, sourceID int64) (*entities.Manga, error) {
	return findByURLAndSource(r.h.DB(ctx), url, sourceID)
}

func (r *Repository) SubscribeMangaByURLAndSourceID(ctx context.Context, url string, sourceID int64) <-chan *entities.Manga {
	return database.Subscribe(ctx, r.h, mangaTables, func(db *gorm.DB) (*entities.Manga, error) {
		return findByURLAndSource(db, url, sourceID)
	})
}

func (r *Repository) GetFavorites(ctx context.Context) ([]entities.Manga, error) {
	var mangas []entities.Manga
	err := r.h.DB(ctx).Where("favorite = ?", true).Order("title ASC").Find(&mangas).Error
	return mangas, err
}

// GetReadMangaNotInLibrary returns non-favorites that have reading progress.
func (r *Repository) GetReadMangaNotInLibrary(ctx context.Context) ([]entities.Manga, error) {
	var mangas []entities.Manga
	read := r.h.DB(ctx).Model(&entities.Chapter{}).
		Select("manga_id").
		Where("read = ? OR last_page_read != 0", true)
	err := r.h.DB(ctx).
		Where("favorite = ? AND id IN (?)", false, read).
		Find(&mangas).Error
	return mangas, err
}

func (r *Repository) GetFavoritesBySourceID(ctx context.Context, sourceID int64) ([]entities.Manga, error) {
	return favoritesBySource(r.h.DB(ctx), sourceID)
}

func (r *Repository) SubscribeFavoritesBySourceID(ctx context.Context, sourceID int64) <-chan []entities.Manga {
	return database.Subscribe(ctx, r.h, mangaTables, func(db *gorm.DB) ([]entities.Manga, error) {
		return favoritesBySource(db, sourceID)
	})
}

func favoritesBySource(db *gorm.DB, sourceID int64) ([]entities.Manga, error) {
	var mangas []entities.Manga
	err := db.Where("favorite = ? AND source = ?", true, sourceID).Order("title ASC").Find(&mangas).Error
	return mangas, err
}

// GetUpcomingManga returns favorites with one of statuses whose next update
// falls today or later, soonest first.
func (r *Repository) GetUpcomingManga(ctx context.Context, statuses []entities.MangaStatus) ([]entities.Manga, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	now := r.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var mangas []entities.Manga
	err := r.h.DB(ctx).
		Where("favorite = ? AND next_update >= ? AND status IN ?", true, startOfDay.UnixMilli(), statuses).
		Order("next_update ASC").
		Find(&mangas).Error
	return mangas, err
}

// ResetViewerFlags clears the viewer flags of every manga.
func (r *Repository) ResetViewerFlags(ctx context.Context) bool {
	err := r.h.Await(ctx, func(db *gorm.DB) error {
		return db.Model(&entities.Manga{}).Where("1 = 1").Update("viewer_flags", 0).Error
	}, database.TableMangas)
	if err != nil {
		r.log.WithError(err).Error("Failed to reset viewer flags")
		return false
	}
	return true
}

// SetMangaCategories replaces the category assignments of a manga.
func (r *Repository) SetMangaCategories(ctx context.Context, mangaID int64, categoryIDs []int64) error {
	return r.h.AwaitInTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("manga_id = ?", mangaID).Delete(&entities.MangaCategory{}).Error; err != nil {
			return fmt.Errorf("clear categories of manga %d: %w", mangaID, err)
		}
		for _, categoryID := range categoryIDs {
			link := entities.MangaCategory{MangaID: mangaID, CategoryID: categoryID}
			if err := tx.Create(&link).Error; err != nil {
				return fmt.Errorf("assign category %d to manga %d: %w", categoryID, mangaID, err)
			}
		}
		return nil
	}, database.TableMangasCategories)
}

// Insert stores a new record and returns its identity. A record already
// holding the same (url, source) yields ErrAlreadyExists.
func (r *Repository) Insert(ctx context.Context, m entities.Manga) (int64, error) {
	m.ID = 0
	var rows int64
	err := r.h.Await(ctx, func(db *gorm.DB) error {
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		rows = result.RowsAffected
		return result.Error
	}, database.TableMangas)
	if err != nil {
		return 0, fmt.Errorf("insert manga %q from source %d: %w", m.URL, m.Source, err)
	}
	if rows == 0 {
		return 0, ErrAlreadyExists
	}
	if m.ID == 0 {
		return 0, ErrNoIdentity
	}
	return m.ID, nil
}

// Update applies one sparse patch. Failures are logged and reported as false.
func (r *Repository) Update(ctx context.Context, update entities.MangaUpdate) bool {
	if err := r.partialUpdate(ctx, update); err != nil {
		r.log.WithError(err).WithField("manga_id", update.ID).Error("Failed to update manga")
		return false
	}
	return true
}

// UpdateAll applies every patch or none of them. Failures are logged and
// reported as false.
func (r *Repository) UpdateAll(ctx context.Context, updates []entities.MangaUpdate) bool {
	if err := r.partialUpdate(ctx, updates...); err != nil {
		r.log.WithError(err).WithField("patches", len(updates)).Error("Failed to update mangas")
		return false
	}
	return true
}

func (r *Repository) partialUpdate(ctx context.Context, updates ...entities.MangaUpdate) error {
	return r.h.AwaitInTransaction(ctx, func(tx *gorm.DB) error {
		for _, update := range updates {
			current, err := findByID(tx, update.ID)
			if err != nil {
				return err
			}

			merged := update.Apply(*current)
			now := r.now().UnixMilli()
			merged.LastModifiedAt = now
			if merged.Favorite != current.Favorite {
				merged.FavoriteModifiedAt = &now
			}

			if err := tx.Save(&merged).Error; err != nil {
				return fmt.Errorf("save manga %d: %w", update.ID, err)
			}
		}
		return nil
	}, database.TableMangas)
}

// SourceIDsWithFavoriteCount counts library entries per source.
func (r *Repository) SourceIDsWithFavoriteCount(ctx context.Context) ([]entities.SourceCount, error) {
	return countBySource(r.h.DB(ctx), true)
}

func (r *Repository) SubscribeSourceIDsWithFavoriteCount(ctx context.Context) <-chan []entities.SourceCount {
	return database.Subscribe(ctx, r.h, mangaTables, func(db *gorm.DB) ([]entities.SourceCount, error) {
		return countBySource(db, true)
	})
}

// SourceIDsWithNonLibraryManga counts cached non-library entries per source.
func (r *Repository) SourceIDsWithNonLibraryManga(ctx context.Context) ([]entities.SourceCount, error) {
	return countBySource(r.h.DB(ctx), false)
}

func countBySource(db *gorm.DB, favorite bool) ([]entities.SourceCount, error) {
	var counts []entities.SourceCount
	err := db.Model(&entities.Manga{}).
		Select("source AS source_id, COUNT(*) AS count").
		Where("favorite = ?", favorite).
		Group("source").
		Order("source ASC").
		Scan(&counts).Error
	return counts, err
}
