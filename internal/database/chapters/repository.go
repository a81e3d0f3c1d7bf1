// Package chapters provides database operations for manga chapters.
package chapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/mangashelf/internal/database"
	"github.com/mrlokans/mangashelf/internal/entities"
)

// ErrChapterNotFound is returned when a patch targets an unknown chapter.
var ErrChapterNotFound = errors.New("chapter not found")

// Repository handles all chapter database operations.
type Repository struct {
	h *database.Handler
}

// NewRepository creates a new chapters repository.
func NewRepository(h *database.Handler) *Repository {
	return &Repository{h: h}
}

// GetChaptersByMangaID returns chapters in source order.
func (r *Repository) GetChaptersByMangaID(ctx context.Context, mangaID int64) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.h.DB(ctx).Where("manga_id = ?", mangaID).Order("source_order ASC").Find(&chapters).Error
	return chapters, err
}

// Upsert inserts chapters and refreshes name, number, scanlator and upload
// date of those already known by (manga, url). Read state is left alone.
func (r *Repository) Upsert(ctx context.Context, chapters []entities.Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	return r.h.AwaitInTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "manga_id"}, {Name: "url"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "scanlator", "chapter_number", "source_order", "date_upload"}),
		}).Create(&chapters).Error
	}, database.TableChapters)
}

// UpdateAll applies every chapter patch in one transaction.
func (r *Repository) UpdateAll(ctx context.Context, updates []entities.ChapterUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return r.h.AwaitInTransaction(ctx, func(tx *gorm.DB) error {
		for _, update := range updates {
			var chapter entities.Chapter
			err := tx.Where("id = ?", update.ID).First(&chapter).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrChapterNotFound, update.ID)
			}
			if err != nil {
				return err
			}
			merged := update.Apply(chapter)
			if err := tx.Save(&merged).Error; err != nil {
				return fmt.Errorf("save chapter %d: %w", update.ID, err)
			}
		}
		return nil
	}, database.TableChapters)
}

// DeleteByMangaIDExcept removes chapters of a manga whose url is not in keep.
func (r *Repository) DeleteByMangaIDExcept(ctx context.Context, mangaID int64, keep []string) (int64, error) {
	var deleted int64
	err := r.h.Await(ctx, func(db *gorm.DB) error {
		query := db.Where("manga_id = ?", mangaID)
		if len(keep) > 0 {
			query = query.Where("url NOT IN ?", keep)
		}
		result := query.Delete(&entities.Chapter{})
		deleted = result.RowsAffected
		return result.Error
	}, database.TableChapters)
	return deleted, err
}
