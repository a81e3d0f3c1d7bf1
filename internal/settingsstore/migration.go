package settingsstore

import (
	"context"
	"strconv"
	"strings"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/migration"
)

// MigrationFlagsInfo is the effective migration flags mask with its origin.
type MigrationFlagsInfo struct {
	Flags  migration.Flags `json:"flags"`
	Facets []string        `json:"facets"`
	Source string          `json:"source"`
}

// GetMigrateFlags returns the facets copied by a migration (database > env > all facets).
func (s *SettingsStore) GetMigrateFlags(ctx context.Context) migration.Flags {
	return s.GetMigrateFlagsInfo(ctx).Flags
}

func (s *SettingsStore) GetMigrateFlagsInfo(ctx context.Context) MigrationFlagsInfo {
	value, source := s.lookup(ctx, entities.SettingKeyMigrateFlags, "MIGRATE_FLAGS")
	flags := migration.DefaultFlags
	if source != SourceDefault {
		parsed, err := migration.ParseFlags(value)
		if err != nil {
			source = SourceDefault
		} else {
			flags = parsed
		}
	}
	return MigrationFlagsInfo{Flags: flags, Facets: flags.Facets(), Source: source}
}

// SetMigrateFlags stores the integer mask. Unknown bits are kept as given.
func (s *SettingsStore) SetMigrateFlags(ctx context.Context, flags migration.Flags) error {
	return s.repo.SetSetting(ctx, entities.SettingKeyMigrateFlags, strconv.Itoa(int(flags)))
}

// GetMigrationSources returns the saved source order for migration search.
// The boolean is false when the user never saved a selection.
func (s *SettingsStore) GetMigrationSources(ctx context.Context) ([]int64, bool) {
	return s.getIDs(ctx, entities.SettingKeyMigrationSources, "MIGRATION_SOURCES")
}

func (s *SettingsStore) SetMigrationSources(ctx context.Context, ids []int64) error {
	return s.setIDs(ctx, entities.SettingKeyMigrationSources, ids)
}

func (s *SettingsStore) GetPinnedSources(ctx context.Context) []int64 {
	ids, _ := s.getIDs(ctx, entities.SettingKeyPinnedSources, "PINNED_SOURCES")
	return ids
}

func (s *SettingsStore) SetPinnedSources(ctx context.Context, ids []int64) error {
	return s.setIDs(ctx, entities.SettingKeyPinnedSources, ids)
}

func (s *SettingsStore) GetDisabledSources(ctx context.Context) []int64 {
	ids, _ := s.getIDs(ctx, entities.SettingKeyDisabledSources, "DISABLED_SOURCES")
	return ids
}

func (s *SettingsStore) SetDisabledSources(ctx context.Context, ids []int64) error {
	return s.setIDs(ctx, entities.SettingKeyDisabledSources, ids)
}

// GetEnabledLanguages returns the languages whose sources are offered (default "all" and "en").
func (s *SettingsStore) GetEnabledLanguages(ctx context.Context) []string {
	value, source := s.lookup(ctx, entities.SettingKeyEnabledLanguages, "SOURCE_LANGUAGES")
	if source == SourceDefault {
		return []string{"all", "en"}
	}
	var langs []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}

func (s *SettingsStore) SetEnabledLanguages(ctx context.Context, langs []string) error {
	return s.repo.SetSetting(ctx, entities.SettingKeyEnabledLanguages, strings.Join(langs, ","))
}

// ClearMigrationSettings drops database overrides for flags and source selection.
func (s *SettingsStore) ClearMigrationSettings(ctx context.Context) error {
	return s.clear(ctx, entities.SettingKeyMigrateFlags, entities.SettingKeyMigrationSources)
}
