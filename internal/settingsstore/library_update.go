package settingsstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/entities"
)

// LibraryUpdateConfig represents the effective configuration for library updates
type LibraryUpdateConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// LibraryUpdateConfigInfo includes source information for each field
type LibraryUpdateConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`
}

// LibraryUpdateStatus represents the outcome of the last run
type LibraryUpdateStatus struct {
	LastUpdateAt *time.Time `json:"last_update_at,omitempty"`
	Status       string     `json:"status,omitempty"`  // "success", "partial", "failed", ""
	Message      string     `json:"message,omitempty"` // Error message or stats summary
	MangaCount   int64      `json:"manga_count"`
}

func (s *SettingsStore) GetLibraryUpdateEnabled(ctx context.Context) bool {
	enabled, _ := s.getBool(ctx, entities.SettingKeyLibraryUpdateEnabled, "LIBRARY_UPDATE_ENABLED", false)
	return enabled
}

func (s *SettingsStore) SetLibraryUpdateEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetSetting(ctx, entities.SettingKeyLibraryUpdateEnabled, strconv.FormatBool(enabled))
}

func (s *SettingsStore) GetLibraryUpdateSchedule(ctx context.Context) string {
	schedule, _ := s.getString(ctx, entities.SettingKeyLibraryUpdateSchedule, "LIBRARY_UPDATE_SCHEDULE", config.DefaultLibraryUpdateSchedule)
	return schedule
}

// SetLibraryUpdateSchedule validates and saves the cron schedule
func (s *SettingsStore) SetLibraryUpdateSchedule(ctx context.Context, schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyLibraryUpdateSchedule, schedule)
}

func (s *SettingsStore) GetLibraryUpdateConfig(ctx context.Context) LibraryUpdateConfig {
	return LibraryUpdateConfig{
		Enabled:  s.GetLibraryUpdateEnabled(ctx),
		Schedule: s.GetLibraryUpdateSchedule(ctx),
	}
}

func (s *SettingsStore) GetLibraryUpdateConfigInfo(ctx context.Context) LibraryUpdateConfigInfo {
	enabled, enabledSource := s.getBool(ctx, entities.SettingKeyLibraryUpdateEnabled, "LIBRARY_UPDATE_ENABLED", false)
	schedule, scheduleSource := s.getString(ctx, entities.SettingKeyLibraryUpdateSchedule, "LIBRARY_UPDATE_SCHEDULE", config.DefaultLibraryUpdateSchedule)

	info := LibraryUpdateConfigInfo{
		Enabled:             enabled,
		EnabledSource:       enabledSource,
		Schedule:            schedule,
		ScheduleSource:      scheduleSource,
		ScheduleDescription: GetCronDescription(schedule),
	}
	if enabled {
		if next, err := GetNextRunTime(schedule); err == nil {
			info.NextRunAt = next
		}
	}
	return info
}

func (s *SettingsStore) GetLibraryUpdateStatus(ctx context.Context) LibraryUpdateStatus {
	status := LibraryUpdateStatus{}

	if value, source := s.lookup(ctx, entities.SettingKeyLibraryUpdateLastAt, ""); source != SourceDefault {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			status.LastUpdateAt = &ts
		}
	}
	status.Status, _ = s.getString(ctx, entities.SettingKeyLibraryUpdateLastStatus, "", "")
	status.Message, _ = s.getString(ctx, entities.SettingKeyLibraryUpdateLastMessage, "", "")
	status.MangaCount, _ = s.getInt(ctx, entities.SettingKeyLibraryUpdateMangaCount, "", 0)
	return status
}

// SetLibraryUpdateStatus records the outcome of a run finished now
func (s *SettingsStore) SetLibraryUpdateStatus(ctx context.Context, status, message string, mangaCount int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	values := map[string]string{
		entities.SettingKeyLibraryUpdateLastAt:      now,
		entities.SettingKeyLibraryUpdateLastStatus:  status,
		entities.SettingKeyLibraryUpdateLastMessage: message,
		entities.SettingKeyLibraryUpdateMangaCount:  strconv.Itoa(mangaCount),
	}
	for key, value := range values {
		if err := s.repo.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// ClearLibraryUpdateSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearLibraryUpdateSettings(ctx context.Context) error {
	return s.clear(ctx, entities.SettingKeyLibraryUpdateEnabled, entities.SettingKeyLibraryUpdateSchedule)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a five field cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 */12 * * *":
		return "Every 12 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 */2 * *":
		return "Every 2 days at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next run will happen based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}

// NewLibraryUpdateConfigFromEnv creates settings from environment config (for use when database not yet ready)
func NewLibraryUpdateConfigFromEnv(cfg config.LibraryUpdate) LibraryUpdateConfig {
	return LibraryUpdateConfig{
		Enabled:  cfg.Enabled,
		Schedule: cfg.Schedule,
	}
}
