// Package settingsstore resolves runtime preferences.
//
// Every preference is looked up with the priority database > environment >
// default, and most getters have an *Info variant reporting which layer won.
package settingsstore

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/database/settings"
)

// Value origins reported by the *Info getters.
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Priority: database > environment > default
type SettingsStore struct {
	repo *settings.Repository
}

func New(repo *settings.Repository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

// lookup returns the raw value for key and where it came from. An empty
// value means the default applies.
func (s *SettingsStore) lookup(ctx context.Context, key, env string) (string, string) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err == nil && setting.Value != "" {
		return setting.Value, SourceDatabase
	}
	if env != "" {
		if envVal := os.Getenv(env); envVal != "" {
			return envVal, SourceEnvironment
		}
	}
	return "", SourceDefault
}

func (s *SettingsStore) getString(ctx context.Context, key, env, def string) (string, string) {
	value, source := s.lookup(ctx, key, env)
	if source == SourceDefault {
		return def, source
	}
	return value, source
}

// getInt falls back to def when the stored value does not parse.
func (s *SettingsStore) getInt(ctx context.Context, key, env string, def int64) (int64, string) {
	value, source := s.lookup(ctx, key, env)
	if source == SourceDefault {
		return def, source
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return def, SourceDefault
	}
	return n, source
}

func (s *SettingsStore) getBool(ctx context.Context, key, env string, def bool) (bool, string) {
	value, source := s.lookup(ctx, key, env)
	if source == SourceDefault {
		return def, source
	}
	return value == "true" || value == "1", source
}

// getIDs reads a comma separated id list. Unparsable entries are skipped.
// The boolean reports whether any layer other than the default held a value.
func (s *SettingsStore) getIDs(ctx context.Context, key, env string) ([]int64, bool) {
	value, source := s.lookup(ctx, key, env)
	if source == SourceDefault {
		return nil, false
	}
	var ids []int64
	for _, part := range strings.Split(value, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, true
}

func (s *SettingsStore) setIDs(ctx context.Context, key string, ids []int64) error {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return s.repo.SetSetting(ctx, key, strings.Join(parts, ","))
}

func (s *SettingsStore) clear(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := s.repo.DeleteSetting(ctx, key); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}
