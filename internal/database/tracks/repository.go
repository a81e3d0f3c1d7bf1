// Package tracks provides database operations for tracker links.
package tracks

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/mangashelf/internal/database"
	"github.com/mrlokans/mangashelf/internal/entities"
)

// Repository handles all track database operations.
type Repository struct {
	h *database.Handler
}

// NewRepository creates a new tracks repository.
func NewRepository(h *database.Handler) *Repository {
	return &Repository{h: h}
}

func (r *Repository) GetTracksByMangaID(ctx context.Context, mangaID int64) ([]entities.Track, error) {
	var tracks []entities.Track
	err := r.h.DB(ctx).Where("manga_id = ?", mangaID).Order("tracker_id ASC").Find(&tracks).Error
	return tracks, err
}

// InsertAll stores tracks, replacing any existing link for the same manga and tracker.
func (r *Repository) InsertAll(ctx context.Context, tracks []entities.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	return r.h.AwaitInTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "manga_id"}, {Name: "tracker_id"}},
			UpdateAll: true,
		}).Create(&tracks).Error
	}, database.TableTracks)
}
