package settingsstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// DefaultBackupInterval is the automatic backup interval in hours.
const DefaultBackupInterval = 12

// BackupIntervals lists the accepted intervals in hours. Zero turns automatic backups off.
var BackupIntervals = []int64{0, 6, 12, 24, 48, 168}

type BackupSettingsInfo struct {
	IntervalHours           int64  `json:"interval_hours"`
	IntervalSource          string `json:"interval_source"`
	LastAutoBackupTimestamp int64  `json:"last_auto_backup_timestamp"`
}

// GetBackupInterval returns the automatic backup interval in hours (database > env > 12).
func (s *SettingsStore) GetBackupInterval(ctx context.Context) int64 {
	hours, _ := s.getInt(ctx, entities.SettingKeyBackupInterval, "BACKUP_INTERVAL", DefaultBackupInterval)
	return hours
}

func (s *SettingsStore) SetBackupInterval(ctx context.Context, hours int64) error {
	if !validBackupInterval(hours) {
		return fmt.Errorf("backup interval %d hours is not one of %v", hours, BackupIntervals)
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyBackupInterval, strconv.FormatInt(hours, 10))
}

func validBackupInterval(hours int64) bool {
	for _, allowed := range BackupIntervals {
		if hours == allowed {
			return true
		}
	}
	return false
}

// GetLastAutoBackupTimestamp returns unix millis of the last automatic backup, 0 if none.
func (s *SettingsStore) GetLastAutoBackupTimestamp(ctx context.Context) int64 {
	ts, _ := s.getInt(ctx, entities.SettingKeyLastAutoBackupTimestamp, "", 0)
	return ts
}

func (s *SettingsStore) SetLastAutoBackupTimestamp(ctx context.Context, millis int64) error {
	return s.repo.SetSetting(ctx, entities.SettingKeyLastAutoBackupTimestamp, strconv.FormatInt(millis, 10))
}

func (s *SettingsStore) GetBackupSettingsInfo(ctx context.Context) BackupSettingsInfo {
	hours, source := s.getInt(ctx, entities.SettingKeyBackupInterval, "BACKUP_INTERVAL", DefaultBackupInterval)
	return BackupSettingsInfo{
		IntervalHours:           hours,
		IntervalSource:          source,
		LastAutoBackupTimestamp: s.GetLastAutoBackupTimestamp(ctx),
	}
}
