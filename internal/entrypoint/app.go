package entrypoint

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/audit"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/covers"
	"github.com/mrlokans/mangashelf/internal/database"
	auditRepo "github.com/mrlokans/mangashelf/internal/database/audit"
	"github.com/mrlokans/mangashelf/internal/database/categories"
	"github.com/mrlokans/mangashelf/internal/database/chapters"
	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/database/settings"
	"github.com/mrlokans/mangashelf/internal/database/sync"
	"github.com/mrlokans/mangashelf/internal/database/tracks"
	"github.com/mrlokans/mangashelf/internal/downloads"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/manga"
	"github.com/mrlokans/mangashelf/internal/migration"
	"github.com/mrlokans/mangashelf/internal/settingsstore"
	"github.com/mrlokans/mangashelf/internal/source"
)

// App holds the wired application services shared by the server and the CLI.
type App struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *database.Database

	Mangas     *mangadb.Repository
	Chapters   *chapters.Repository
	Categories *categories.Repository
	Tracks     *tracks.Repository

	Settings  *settingsstore.SettingsStore
	Audit     *audit.Service
	Snapshots *audit.Snapshots

	Sources        *source.Manager
	SourceRepo     *source.Repository
	NetworkToLocal *manga.NetworkToLocal
	MangaUpdater   *manga.Updater
	Duplicates     *manga.GetDuplicates
	CustomInfo     *manga.SetCustomInfo

	Covers    *covers.Cache
	Downloads *downloads.Store

	Migrator          *migration.Migrator
	Search            *migration.SmartSearch
	Selector          *migration.SourceSelector
	SourceMigrator    *migration.SourceMigrator
	MigrationProgress *sync.Repository

	Refresher      *library.Refresher
	LibraryUpdater *library.Updater
}

// NewApp opens the database and wires every service. Close releases what it opened.
func NewApp(cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, err
	}

	manager, err := newSourceManager(cfg.Sources, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	app := &App{
		Config:     cfg,
		Log:        log,
		DB:         db,
		Mangas:     mangadb.NewRepository(db.Handler, log),
		Chapters:   chapters.NewRepository(db.Handler),
		Categories: categories.NewRepository(db.Handler),
		Tracks:     tracks.NewRepository(db.Handler),
		Settings:   settingsstore.New(settings.NewRepository(db.DB)),
		Audit:      audit.NewService(auditRepo.NewRepository(db.DB), log),
		Snapshots:  audit.NewSnapshots(cfg.Audit.Dir),
		Sources:    manager,
	}

	app.Covers, err = covers.NewCache(cfg.Covers.Dir)
	if err != nil {
		log.WithError(err).Warn("Cover cache disabled")
	}
	app.Downloads, err = downloads.NewStore(cfg.Downloads.Dir)
	if err != nil {
		log.WithError(err).Warn("Download store disabled")
	}

	app.NetworkToLocal = manga.NewNetworkToLocal(app.Mangas)
	app.SourceRepo = source.NewRepository(manager, app.Mangas, app.NetworkToLocal)
	app.Duplicates = manga.NewGetDuplicates(app.Mangas, manga.DefaultDuplicateSimilarity)
	app.CustomInfo = manga.NewSetCustomInfo(app.Mangas)

	app.MangaUpdater = manga.NewUpdater(app.Mangas, log)
	if app.Covers != nil {
		app.MangaUpdater.SetCoverCache(app.Covers)
	}
	if app.Downloads != nil {
		app.MangaUpdater.SetDownloads(app.Downloads)
	}

	app.Refresher = library.NewRefresher(
		manager,
		app.Mangas,
		app.MangaUpdater,
		manga.NewSyncChaptersWithSource(app.Chapters),
		app.Chapters,
		log,
	)

	app.LibraryUpdater = library.NewUpdater(app.Mangas, app.Refresher, cfg.LibraryUpdate.Workers, log)
	app.LibraryUpdater.SetProgressTracker(sync.NewRepository(db.DB, entities.SyncTypeLibraryUpdate))
	app.LibraryUpdater.SetStatusRecorder(app.Settings)
	app.LibraryUpdater.SetAuditLogger(app.Audit)

	app.Migrator = migration.NewMigrator(app.Mangas, app.Chapters, app.Categories, app.Tracks, log)
	app.Migrator.SetRefresher(app.Refresher)
	app.Migrator.SetAuditLogger(app.Audit)
	app.Migrator.SetSnapshots(app.Snapshots)
	if app.Covers != nil {
		app.Migrator.SetCoverStore(app.Covers)
	}
	if app.Downloads != nil {
		app.Migrator.SetDownloadStore(app.Downloads)
	}

	app.Search = migration.NewSmartSearch(manager, app.NetworkToLocal, cfg.Migration.MatchThreshold, cfg.Migration.SearchWorkers, log)
	app.Selector = migration.NewSourceSelector(app.Settings, manager)

	app.MigrationProgress = sync.NewRepository(db.DB, entities.SyncTypeMigration)
	app.SourceMigrator = migration.NewSourceMigrator(app.Mangas, app.Search, app.Selector, app.Migrator, log)
	app.SourceMigrator.SetProgressTracker(app.MigrationProgress)

	return app, nil
}

// newSourceManager registers an HTTP catalogue per configured definition.
func newSourceManager(cfg config.Sources, log logrus.FieldLogger) (*source.Manager, error) {
	opts := source.DefaultOptions()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.CacheTTL != 0 {
		opts.CacheTTL = cfg.CacheTTL
	}
	if cfg.MaxRetries >= 0 {
		opts.MaxRetries = uint64(cfg.MaxRetries)
	}
	if cfg.InitialInterval > 0 {
		opts.InitialInterval = cfg.InitialInterval
	}

	var catalogues []source.Catalogue
	for _, raw := range cfg.Definitions {
		def, err := source.ParseDefinition(raw)
		if err != nil {
			return nil, err
		}
		catalogues = append(catalogues, source.NewHTTPCatalogue(def, opts, log))
	}

	manager, err := source.NewManager(catalogues...)
	if err != nil {
		return nil, fmt.Errorf("register sources: %w", err)
	}
	if len(catalogues) == 0 {
		log.Warn("No sources configured. Set SOURCES to browse and migrate")
	} else {
		log.WithField("count", len(catalogues)).Info("Sources registered")
	}
	return manager, nil
}

// MigrateManga runs a single migration using the stored default flags when
// flags is nil.
func (a *App) MigrateManga(ctx context.Context, oldID, newID int64, flags *migration.Flags, replace bool) (migration.Result, error) {
	f := a.Settings.GetMigrateFlags(ctx)
	if flags != nil {
		f = *flags
	}
	return a.Migrator.Migrate(ctx, oldID, newID, f, replace)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
