// Package sync provides database operations for sync progress tracking.
//
// A Repository is bound to one sync type and satisfies the progress reporter
// used by the library updater and batch migrations.
//
// # Usage
//
//	repo := sync.NewRepository(db, entities.SyncTypeLibraryUpdate)
//	err := repo.StartSync(ctx, len(favorites))
package sync

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// StaleAfter is how long a running sync may go without progress before it
// is treated as interrupted.
const StaleAfter = 10 * time.Minute

// Repository handles all sync progress database operations.
type Repository struct {
	db       *gorm.DB
	syncType entities.SyncType
}

// NewRepository creates a sync repository for a specific sync type.
func NewRepository(db *gorm.DB, syncType entities.SyncType) *Repository {
	return &Repository{db: db, syncType: syncType}
}

// GetSyncProgress retrieves the sync progress for the configured sync type.
func (r *Repository) GetSyncProgress(ctx context.Context) (*entities.SyncProgress, error) {
	var progress entities.SyncProgress
	err := r.db.WithContext(ctx).Where("sync_type = ?", r.syncType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartSync creates or resets a sync progress record.
func (r *Repository) StartSync(ctx context.Context, totalItems int) error {
	db := r.db.WithContext(ctx)

	var progress entities.SyncProgress
	result := db.Where("sync_type = ?", r.syncType).First(&progress)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.SyncProgress{
			SyncType:   r.syncType,
			Status:     entities.SyncStatusRunning,
			TotalItems: totalItems,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	progress.Status = entities.SyncStatusRunning
	progress.TotalItems = totalItems
	progress.Processed = 0
	progress.Succeeded = 0
	progress.Failed = 0
	progress.Skipped = 0
	progress.CurrentItem = ""
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return db.Save(&progress).Error
}

// UpdateProgress updates the progress of an ongoing sync.
func (r *Repository) UpdateProgress(ctx context.Context, processed, succeeded, failed, skipped int, currentItem string) error {
	return r.db.WithContext(ctx).Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(map[string]any{
			"processed":    processed,
			"succeeded":    succeeded,
			"failed":       failed,
			"skipped":      skipped,
			"current_item": currentItem,
			"updated_at":   time.Now(),
		}).Error
}

// CompleteSync marks a sync as completed or failed.
func (r *Repository) CompleteSync(ctx context.Context, succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.SyncStatusCompleted
	if !succeeded {
		status = entities.SyncStatusFailed
	}

	updates := map[string]any{
		"status":       status,
		"current_item": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.db.WithContext(ctx).Model(&entities.SyncProgress{}).
		Where("sync_type = ?", r.syncType).
		Updates(updates).Error
}

// IsSyncRunning checks if a sync is currently in progress. A running record
// that has not moved within StaleAfter is marked failed.
func (r *Repository) IsSyncRunning(ctx context.Context) (bool, error) {
	var progress entities.SyncProgress
	err := r.db.WithContext(ctx).
		Where("sync_type = ? AND status = ?", r.syncType, entities.SyncStatusRunning).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-StaleAfter)) {
		_ = r.CompleteSync(ctx, false, "sync was interrupted")
		return false, nil
	}

	return true, nil
}
