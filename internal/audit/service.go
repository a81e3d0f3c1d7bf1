package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	auditRepo "github.com/mrlokans/mangashelf/internal/database/audit"
	"github.com/mrlokans/mangashelf/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *auditRepo.Repository
	log  logrus.FieldLogger
}

// NewService creates a new audit service.
func NewService(repo *auditRepo.Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.log.WithError(err).WithField("action", event.Action).Warn("Failed to log audit event")
		}
	}()
}

// LogMigration records a single manga migration.
func (s *Service) LogMigration(oldID, newID int64, title string, flags []string, replace bool, err error) {
	action := "migrate_manga"
	if !replace {
		action = "copy_manga"
	}
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMigration,
		Action:      action,
		Description: "Migrated " + title,
		EntityType:  "manga",
		EntityID:    &newID,
		Metadata: marshalMetadata(map[string]any{
			"old_manga_id": oldID,
			"new_manga_id": newID,
			"flags":        flags,
			"replace":      replace,
		}),
	}
	s.LogAsync(withOutcome(event, err))
}

// LogLibraryUpdate records a finished library refresh.
func (s *Service) LogLibraryUpdate(description string, updated, failed int, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventLibraryUpdate,
		Action:      "library_update",
		Description: description,
		EntityType:  "manga",
		Metadata: marshalMetadata(map[string]any{
			"updated": updated,
			"failed":  failed,
		}),
	}
	s.LogAsync(withOutcome(event, err))
}

// LogMangaEdit records a change made to one manga through the API.
func (s *Service) LogMangaEdit(mangaID int64, action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMangaEdit,
		Action:      action,
		Description: description,
		EntityType:  "manga",
		EntityID:    &mangaID,
	}
	s.LogAsync(withOutcome(event, err))
}

// LogSettings records a settings change event.
func (s *Service) LogSettings(action, description, ipAddr, userAgent string) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventSettings,
		Action:      action,
		Description: description,
		EntityType:  "setting",
		IPAddress:   ipAddr,
		UserAgent:   truncate(userAgent, 500),
	}
	s.LogAsync(withOutcome(event, nil))
}

// LogMaintenance records housekeeping such as audit cleanup or flag resets.
func (s *Service) LogMaintenance(action, description string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventMaintenance,
		Action:      action,
		Description: description,
	}
	s.LogAsync(withOutcome(event, err))
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, filter auditRepo.EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func withOutcome(event *entities.AuditEvent, err error) *entities.AuditEvent {
	event.Description = truncate(event.Description, 500)
	event.Status = entities.AuditStatusSuccess
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	return event
}

func marshalMetadata(metadata map[string]any) string {
	mdBytes, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(mdBytes)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
