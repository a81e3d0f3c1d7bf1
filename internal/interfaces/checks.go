package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/mangashelf/internal/audit"
	"github.com/mrlokans/mangashelf/internal/covers"
	"github.com/mrlokans/mangashelf/internal/database/categories"
	"github.com/mrlokans/mangashelf/internal/database/chapters"
	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/database/sync"
	"github.com/mrlokans/mangashelf/internal/database/tracks"
	"github.com/mrlokans/mangashelf/internal/downloads"
	"github.com/mrlokans/mangashelf/internal/http"
	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/manga"
	"github.com/mrlokans/mangashelf/internal/migration"
	"github.com/mrlokans/mangashelf/internal/scheduler"
	"github.com/mrlokans/mangashelf/internal/settingsstore"
	"github.com/mrlokans/mangashelf/internal/source"
	"github.com/mrlokans/mangashelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Manga repository
var (
	_ http.MangaStore           = (*mangadb.Repository)(nil)
	_ http.MangaGetter          = (*mangadb.Repository)(nil)
	_ http.LibraryStore         = (*mangadb.Repository)(nil)
	_ http.SourceFavoritesStore = (*mangadb.Repository)(nil)
	_ manga.LocalStore          = (*mangadb.Repository)(nil)
	_ manga.UpdateStore         = (*mangadb.Repository)(nil)
	_ manga.DuplicateStore      = (*mangadb.Repository)(nil)
	_ source.CountStore         = (*mangadb.Repository)(nil)
	_ migration.MangaStore      = (*mangadb.Repository)(nil)
	_ migration.FavoriteLister  = (*mangadb.Repository)(nil)
	_ library.MangaReader       = (*mangadb.Repository)(nil)
	_ library.FavoriteLister    = (*mangadb.Repository)(nil)
)

// Chapters, categories and tracks
var (
	_ manga.ChapterStore      = (*chapters.Repository)(nil)
	_ migration.ChapterStore  = (*chapters.Repository)(nil)
	_ library.ChapterReader   = (*chapters.Repository)(nil)
	_ http.CategoryReader     = (*categories.Repository)(nil)
	_ migration.CategoryStore = (*categories.Repository)(nil)
	_ migration.TrackStore    = (*tracks.Repository)(nil)
)

// Settings
var (
	_ http.MigrationSettings      = (*settingsstore.SettingsStore)(nil)
	_ http.LibraryUpdateSettings  = (*settingsstore.SettingsStore)(nil)
	_ http.BackupSettings         = (*settingsstore.SettingsStore)(nil)
	_ migration.SourcePreferences = (*settingsstore.SettingsStore)(nil)
	_ library.StatusRecorder      = (*settingsstore.SettingsStore)(nil)
	_ scheduler.ConfigSource      = (*settingsstore.SettingsStore)(nil)
)

// =============================================================================
// Sources
// =============================================================================

var (
	_ source.Catalogue          = (*source.HTTPCatalogue)(nil)
	_ source.Catalogue          = (*source.StubCatalogue)(nil)
	_ http.CatalogueRegistry    = (*source.Manager)(nil)
	_ http.SourceBrowser        = (*source.Repository)(nil)
	_ library.CatalogueResolver = (*source.Manager)(nil)
	_ migration.CatalogueGetter = (*source.Manager)(nil)
	_ migration.CatalogueLister = (*source.Manager)(nil)
	_ source.Reconciler         = (*manga.NetworkToLocal)(nil)
	_ migration.Reconciler      = (*manga.NetworkToLocal)(nil)
)

// =============================================================================
// Domain Services
// =============================================================================

var (
	_ http.DuplicateFinder  = (*manga.GetDuplicates)(nil)
	_ http.CustomInfoSetter = (*manga.SetCustomInfo)(nil)
	_ library.MangaUpdater  = (*manga.Updater)(nil)
	_ library.ChapterSyncer = (*manga.SyncChaptersWithSource)(nil)
	_ http.MangaRefresher   = (*library.Refresher)(nil)
	_ migration.Refresher   = (*library.Refresher)(nil)
	_ tasks.MangaRefresher  = (*library.Refresher)(nil)
	_ tasks.LibraryRunner   = (*library.Updater)(nil)
	_ scheduler.Runner      = (*library.Updater)(nil)
)

// Migration
var (
	_ http.MigrationSourceSelector = (*migration.SourceSelector)(nil)
	_ migration.SelectedSources    = (*migration.SourceSelector)(nil)
	_ http.MatchSearcher           = (*migration.SmartSearch)(nil)
	_ migration.Searcher           = (*migration.SmartSearch)(nil)
	_ http.MangaMigrator           = (*migration.Migrator)(nil)
	_ migration.SingleMigrator     = (*migration.Migrator)(nil)
	_ http.SourceBatchMigrator     = (*migration.SourceMigrator)(nil)
)

// =============================================================================
// Progress Tracking
// =============================================================================

var (
	_ migration.ProgressTracker = (*sync.Repository)(nil)
	_ library.ProgressTracker   = (*sync.Repository)(nil)
	_ http.BatchProgressReader  = (*sync.Repository)(nil)
)

// =============================================================================
// Files and Audit
// =============================================================================

var (
	_ migration.CoverStore     = (*covers.Cache)(nil)
	_ manga.CoverCache         = (*covers.Cache)(nil)
	_ http.CoverFiles          = (*covers.Cache)(nil)
	_ migration.DownloadStore  = (*downloads.Store)(nil)
	_ manga.DownloadRenamer    = (*downloads.Store)(nil)
	_ http.DownloadFiles       = (*downloads.Store)(nil)
	_ http.Auditor             = (*audit.Service)(nil)
	_ migration.AuditLogger    = (*audit.Service)(nil)
	_ library.AuditLogger      = (*audit.Service)(nil)
	_ tasks.AuditEventCleaner  = (*audit.Service)(nil)
	_ migration.SnapshotWriter = (*audit.Snapshots)(nil)
)

// =============================================================================
// Background Work
// =============================================================================

var (
	_ http.TaskQueue            = (*tasks.Client)(nil)
	_ http.RefreshQueue         = (*tasks.Client)(nil)
	_ scheduler.Enqueuer        = (*tasks.Client)(nil)
	_ http.UpdateScheduler      = (*scheduler.LibraryUpdateScheduler)(nil)
	_ http.LibraryUpdateTrigger = (*scheduler.LibraryUpdateScheduler)(nil)
)
