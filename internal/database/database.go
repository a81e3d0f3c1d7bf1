package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// Table names used for change notifications.
const (
	TableMangas           = "mangas"
	TableChapters         = "chapters"
	TableCategories       = "categories"
	TableMangasCategories = "mangas_categories"
	TableTracks           = "manga_sync"
)

// Models lists every table the application owns, in migration order.
var Models = []any{
	&entities.Manga{},
	&entities.Chapter{},
	&entities.Category{},
	&entities.MangaCategory{},
	&entities.Track{},
	&entities.Setting{},
	&entities.AuditEvent{},
	&entities.SyncProgress{},
}

type Database struct {
	DB      *gorm.DB
	Handler *Handler
}

// DSN appends the connection parameters every caller needs: writers wait on the
// busy lock instead of failing, and transactions take the write lock up front.
func DSN(dbPath string) string {
	params := "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate&_foreign_keys=on"
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + params
	}
	return dbPath + "?" + params
}

// NewDatabase opens the application database with warning level SQL logging.
func NewDatabase(dbPath string, log logrus.FieldLogger) (*Database, error) {
	return Open(dbPath, logger.Warn, log)
}

// Open connects to SQLite at dbPath and migrates all models.
func Open(dbPath string, level logger.LogLevel, log logrus.FieldLogger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(DSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.WithField("path", dbPath).Info("Database initialized")

	return &Database{
		DB:      db,
		Handler: NewHandler(db, log),
	}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
