package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Migration settings
	SettingKeyMigrateFlags     = "migrate_flags"
	SettingKeyMigrationSources = "migration_sources"
	SettingKeyPinnedSources    = "pinned_catalogues"
	SettingKeyDisabledSources  = "hidden_catalogues"
	SettingKeyEnabledLanguages = "source_languages"

	// Backup settings
	SettingKeyBackupInterval          = "backup_interval"
	SettingKeyLastAutoBackupTimestamp = "last_auto_backup_timestamp"

	// Library update settings
	SettingKeyLibraryUpdateEnabled     = "library_update_enabled"
	SettingKeyLibraryUpdateSchedule    = "library_update_schedule"
	SettingKeyLibraryUpdateLastAt      = "library_update_last_at"
	SettingKeyLibraryUpdateLastStatus  = "library_update_last_status"
	SettingKeyLibraryUpdateLastMessage = "library_update_last_message"
	SettingKeyLibraryUpdateMangaCount  = "library_update_manga_count"
)
