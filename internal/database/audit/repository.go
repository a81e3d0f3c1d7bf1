// Package audit provides database operations for the audit log.
package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// EventFilter narrows GetEvents. Zero fields match everything.
type EventFilter struct {
	EventType  entities.AuditEventType
	EntityType string
	EntityID   *int64
	Since      time.Time
}

func (f EventFilter) apply(query *gorm.DB) *gorm.DB {
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.EntityType != "" {
		query = query.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		query = query.Where("entity_id = ?", *f.EntityID)
	}
	if !f.Since.IsZero() {
		query = query.Where("created_at > ?", f.Since)
	}
	return query
}

// GetEvents retrieves paginated audit events, most recent first, with the total match count.
func (r *Repository) GetEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	query := filter.apply(r.db.WithContext(ctx).Model(&entities.AuditEvent{}))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
