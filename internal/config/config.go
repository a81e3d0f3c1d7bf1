package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Logging
		Tasks
		LibraryUpdate
		Migration
		Audit
		Auth
		Sources
		Covers
		Downloads
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Logging struct {
		Level  string
		Format string // "text" or "json"
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	LibraryUpdate struct {
		Enabled  bool
		Schedule string // Cron format: "0 */12 * * *" = every 12 hours
		Workers  int
	}
	Migration struct {
		MatchThreshold float64 // Minimum title similarity for smart search (0..1)
		SearchWorkers  int
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Auth struct {
		TokenHash string // bcrypt hash of the API token; empty disables auth
	}
	Sources struct {
		Definitions     []string // "id|name|lang|base_url[|latest]"
		Timeout         time.Duration
		CacheTTL        time.Duration
		MaxRetries      int
		InitialInterval time.Duration
	}
	Covers struct {
		Dir string
	}
	Downloads struct {
		Dir string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

// splitDefinitions accepts ";" or newline separated source definitions.
func splitDefinitions(raw string) []string {
	var defs []string
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '\n' }) {
		if line = strings.TrimSpace(line); line != "" {
			defs = append(defs, line)
		}
	}
	return defs
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("covers_dir", "./covers")
	v.SetDefault("downloads_dir", "./downloads")
	v.SetDefault("auth_token_hash", "")

	// Source defaults
	v.SetDefault("sources", "")
	v.SetDefault("source_timeout", "15s")
	v.SetDefault("source_cache_ttl", "5m")
	v.SetDefault("source_max_retries", 3)
	v.SetDefault("source_retry_interval", "500ms")

	// Migration defaults
	v.SetDefault("migration_match_threshold", 0.8)
	v.SetDefault("migration_search_workers", 4)

	// Library update defaults
	v.SetDefault("library_update_enabled", false)
	v.SetDefault("library_update_schedule", DefaultLibraryUpdateSchedule)
	v.SetDefault("library_update_workers", 4)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "30m")
	v.SetDefault("task_release_after", "45m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")
	return v
}

// NewConfig reads the configuration from the environment, layered over the
// optional YAML file named by MANGASHELF_CONFIG.
func NewConfig() (*Config, error) {
	v := newViper()
	if path := v.GetString(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Logging: Logging{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		LibraryUpdate: LibraryUpdate{
			Enabled:  v.GetBool("LIBRARY_UPDATE_ENABLED"),
			Schedule: v.GetString("LIBRARY_UPDATE_SCHEDULE"),
			Workers:  v.GetInt("LIBRARY_UPDATE_WORKERS"),
		},
		Migration: Migration{
			MatchThreshold: v.GetFloat64("MIGRATION_MATCH_THRESHOLD"),
			SearchWorkers:  v.GetInt("MIGRATION_SEARCH_WORKERS"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Auth: Auth{
			TokenHash: v.GetString("AUTH_TOKEN_HASH"),
		},
		Sources: Sources{
			Definitions:     splitDefinitions(v.GetString("SOURCES")),
			Timeout:         v.GetDuration("SOURCE_TIMEOUT"),
			CacheTTL:        v.GetDuration("SOURCE_CACHE_TTL"),
			MaxRetries:      v.GetInt("SOURCE_MAX_RETRIES"),
			InitialInterval: v.GetDuration("SOURCE_RETRY_INTERVAL"),
		},
		Covers: Covers{
			Dir: v.GetString("COVERS_DIR"),
		},
		Downloads: Downloads{
			Dir: v.GetString("DOWNLOADS_DIR"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
