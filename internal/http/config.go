package http

import (
	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/database"
)

// Auditor records API-driven changes and serves the audit log.
type Auditor interface {
	SettingsAuditor
	EditAuditor
	AuditReader
}

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Mangas   MangaStore
	Library  LibraryStore

	Categories CategoryReader
	Duplicates DuplicateFinder
	CustomInfo CustomInfoSetter

	// Catalogue browsing
	Sources        SourceBrowser
	Catalogues     CatalogueRegistry
	SourceFavorite SourceFavoritesStore

	// Migration
	MigrationSettings MigrationSettings
	MigrationSources  MigrationSourceSelector
	MatchSearch       MatchSearcher
	Migrator          MangaMigrator
	SourceMigrator    SourceBatchMigrator
	MigrationProgress BatchProgressReader

	// Settings
	LibraryUpdateSettings LibraryUpdateSettings
	BackupSettings        BackupSettings
	Scheduler             interface {
		UpdateScheduler
		LibraryUpdateTrigger
	}

	// Library refresh
	Refresher MangaRefresher

	// Files on disk (optional)
	Covers    CoverFiles
	Downloads DownloadFiles

	// Task queue client (optional)
	TaskClient TaskQueue

	// Audit (optional)
	Auditor Auditor

	// APITokenHash is a bcrypt hash of the bearer token guarding /api.
	// Empty leaves the API open.
	APITokenHash string
	// AuthLimiter locks out clients that keep sending bad tokens (optional).
	AuthLimiter *auth.RateLimiter

	// Application info
	Version string
}
