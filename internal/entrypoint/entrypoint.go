package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/config"
	http_controllers "github.com/mrlokans/mangashelf/internal/http"
	"github.com/mrlokans/mangashelf/internal/metrics"
	"github.com/mrlokans/mangashelf/internal/scheduler"
	"github.com/mrlokans/mangashelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	listenErr := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-listenErr:
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	log.WithField("timeout", timeout).Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server goes away.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server exiting")
	return nil
}

// Run wires the application and serves the API until interrupted.
func Run(cfg *config.Config, log *logrus.Logger, version string) error {
	log.WithField("version", version).Info("Starting Mangashelf")

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.WithError(err).Error("Error closing application")
		}
	}()

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), log)
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.WithError(err).Error("Error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewLibraryUpdateQueue(app.LibraryUpdater, log),
			tasks.NewRefreshMangaQueue(app.Refresher, log),
			tasks.NewCleanupAuditEventsQueue(app.Audit, log),
		)
		go taskClient.Start(ctx)
	} else {
		log.Info("Task queue disabled, library updates run inline")
	}

	sched := scheduler.NewLibraryUpdateScheduler(app.Settings, app.LibraryUpdater, log)
	sched.SetAuditRetention(cfg.Audit.RetentionDays)
	if taskClient != nil {
		sched.SetQueue(taskClient)
	}
	if err := sched.Start(ctx); err != nil {
		log.WithError(err).Error("Library update scheduler not started")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:              app.DB,
		Mangas:                app.Mangas,
		Library:               app.Mangas,
		Categories:            app.Categories,
		Duplicates:            app.Duplicates,
		CustomInfo:            app.CustomInfo,
		Sources:               app.SourceRepo,
		Catalogues:            app.Sources,
		SourceFavorite:        app.Mangas,
		MigrationSettings:     app.Settings,
		MigrationSources:      app.Selector,
		MatchSearch:           app.Search,
		Migrator:              app.Migrator,
		SourceMigrator:        app.SourceMigrator,
		MigrationProgress:     app.MigrationProgress,
		LibraryUpdateSettings: app.Settings,
		BackupSettings:        app.Settings,
		Scheduler:             sched,
		Refresher:             app.Refresher,
		Auditor:               app.Audit,
		APITokenHash:          cfg.Auth.TokenHash,
		Version:               version,
	}
	// A nil *tasks.Client must not become a non-nil interface.
	if taskClient != nil {
		routerCfg.TaskClient = taskClient
	}
	if app.Covers != nil && app.Downloads != nil {
		routerCfg.Covers = app.Covers
		routerCfg.Downloads = app.Downloads
	}
	if cfg.Auth.TokenHash == "" {
		log.Warn("AUTH_TOKEN_HASH is not set, the API is open")
	} else {
		routerCfg.AuthLimiter = auth.NewRateLimiter(auth.DefaultRateLimitConfig())
	}

	router := http_controllers.NewRouter(routerCfg, log)

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		cancel()
	}

	return Serve(router, cfg, log, onShutdown)
}
