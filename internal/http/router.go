package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware(log))
	router.Use(LoggerMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(auth.SecurityHeadersMiddleware())

	health := NewHealthController(cfg.Database, cfg.Catalogues, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(TokenAuthMiddleware(cfg.APITokenHash, cfg.AuthLimiter))

	// Manga endpoints
	mangaController := NewMangaController(cfg.Mangas, cfg.Categories, cfg.Duplicates, cfg.CustomInfo)
	mangaController.SetRefresh(cfg.TaskClient, cfg.Refresher)
	if cfg.Auditor != nil {
		mangaController.SetAuditor(cfg.Auditor)
	}
	api.GET("/manga/:id", mangaController.GetManga)
	api.GET("/manga/:id/subscribe", mangaController.SubscribeManga)
	api.PATCH("/manga/:id", mangaController.PatchManga)
	api.PATCH("/manga", mangaController.PatchMangas)
	api.PUT("/manga/:id/custom", mangaController.SetCustomInfo)
	api.PUT("/manga/:id/categories", mangaController.SetCategories)
	api.GET("/manga/:id/duplicates", mangaController.GetDuplicates)
	api.POST("/manga/:id/refresh", mangaController.RefreshManga)

	if cfg.Covers != nil && cfg.Downloads != nil {
		filesController := NewFilesController(cfg.Mangas, cfg.Covers, cfg.Downloads)
		if cfg.Auditor != nil {
			filesController.SetAuditor(cfg.Auditor)
		}
		api.GET("/manga/:id/cover", filesController.GetCover)
		api.PUT("/manga/:id/cover", filesController.SetCover)
		api.DELETE("/manga/:id/cover", filesController.DeleteCover)
		api.GET("/manga/:id/downloads", filesController.GetDownloads)
		api.DELETE("/manga/:id/downloads", filesController.DeleteDownloads)
	}

	// Library endpoints
	libraryController := NewLibraryController(cfg.Library)
	api.GET("/library", libraryController.GetLibrary)
	api.GET("/library/favorites", libraryController.GetFavorites)
	api.GET("/library/upcoming", libraryController.GetUpcoming)
	api.GET("/library/read-not-in-library", libraryController.GetReadNotInLibrary)
	api.POST("/library/reset-viewer-flags", libraryController.ResetViewerFlags)

	// Catalogue endpoints
	sourcesController := NewSourcesController(cfg.Sources, cfg.Catalogues, cfg.SourceFavorite)
	api.GET("/sources", sourcesController.ListSources)
	api.GET("/sources/:id/search", sourcesController.Search)
	api.GET("/sources/:id/popular", sourcesController.Popular)
	api.GET("/sources/:id/latest", sourcesController.Latest)
	api.GET("/sources/:id/favorites", sourcesController.Favorites)

	// Migration endpoints
	migrationController := NewMigrationController(cfg.MigrationSettings, cfg.MigrationSources, cfg.MatchSearch, cfg.Migrator, cfg.SourceMigrator)
	if cfg.MigrationProgress != nil {
		migrationController.SetProgressReader(cfg.MigrationProgress)
	}
	if cfg.Auditor != nil {
		migrationController.SetAuditor(cfg.Auditor)
	}
	api.GET("/migration/flags", migrationController.GetFlags)
	api.GET("/migration/settings", migrationController.GetSettings)
	api.PUT("/migration/settings", migrationController.UpdateSettings)
	api.GET("/migration/sources", migrationController.GetSources)
	api.POST("/migration/sources/toggle", migrationController.ToggleSource)
	api.POST("/migration/sources/select", migrationController.SelectSources)
	api.POST("/migration/sources/move", migrationController.MoveSource)
	api.POST("/migration/search", migrationController.Search)
	api.POST("/migration", migrationController.Migrate)
	api.GET("/migration/source/status", migrationController.GetSourceMigrationStatus)
	api.POST("/migration/source/:id", migrationController.MigrateSource)

	// Settings endpoints
	settingsController := NewSettingsController(cfg.LibraryUpdateSettings, cfg.BackupSettings)
	var trigger LibraryUpdateTrigger
	if cfg.Scheduler != nil {
		settingsController.SetScheduler(cfg.Scheduler)
		trigger = cfg.Scheduler
	}
	if cfg.Auditor != nil {
		settingsController.SetAuditor(cfg.Auditor)
	}
	api.GET("/settings/library-update", settingsController.GetLibraryUpdate)
	api.PUT("/settings/library-update", settingsController.UpdateLibraryUpdate)
	api.GET("/settings/backup", settingsController.GetBackup)
	api.PUT("/settings/backup", settingsController.UpdateBackup)

	// Task management endpoints
	tasksController := NewTasksController(cfg.TaskClient, trigger)
	api.POST("/library/update", tasksController.RunLibraryUpdate)
	api.GET("/tasks/types", tasksController.ListTaskTypes)
	api.GET("/tasks/:id", tasksController.GetTaskStatus)
	api.POST("/tasks/:type/run", tasksController.RunTask)

	// Audit endpoints
	if cfg.Auditor != nil {
		auditController := NewAuditController(cfg.Auditor)
		api.GET("/audit", auditController.GetAuditEvents)
	}

	return router
}
