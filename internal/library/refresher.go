// Package library keeps library entries in step with their sources.
//
// A Refresher pulls details and chapters for one manga; an Updater runs the
// refresher over every favorite that is due, with bounded concurrency and
// progress recorded in the sync table.
package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/source"
)

// ErrRefreshFailed is returned when the manga record could not be written.
var ErrRefreshFailed = errors.New("failed to store refreshed manga")

type CatalogueResolver interface {
	GetOrStub(id int64) source.Catalogue
}

// MangaUpdater is the subset of manga.Updater a refresh needs.
type MangaUpdater interface {
	AwaitUpdateFromSource(ctx context.Context, local entities.Manga, remote entities.SourceManga, manualFetch bool) bool
	AwaitUpdateFetchInterval(ctx context.Context, m entities.Manga, chapters []entities.Chapter) bool
	AwaitUpdateLastUpdate(ctx context.Context, mangaID int64) bool
}

type ChapterSyncer interface {
	Await(ctx context.Context, m entities.Manga, remote []entities.SourceChapter) ([]entities.Chapter, error)
}

type ChapterReader interface {
	GetChaptersByMangaID(ctx context.Context, mangaID int64) ([]entities.Chapter, error)
}

type MangaReader interface {
	GetMangaByID(ctx context.Context, id int64) (*entities.Manga, error)
}

// Refresher fetches one manga from its source and stores the result.
type Refresher struct {
	catalogues CatalogueResolver
	mangas     MangaReader
	updater    MangaUpdater
	syncer     ChapterSyncer
	chapters   ChapterReader
	log        logrus.FieldLogger
}

func NewRefresher(catalogues CatalogueResolver, mangas MangaReader, updater MangaUpdater, syncer ChapterSyncer, chapters ChapterReader, log logrus.FieldLogger) *Refresher {
	return &Refresher{
		catalogues: catalogues,
		mangas:     mangas,
		updater:    updater,
		syncer:     syncer,
		chapters:   chapters,
		log:        log,
	}
}

// RefreshManga updates the details of m, then its chapter list, and returns
// the chapters seen for the first time. With manual unset, fetch-once
// entries keep their details but still get their chapters synced.
func (r *Refresher) RefreshManga(ctx context.Context, m entities.Manga, manual bool) ([]entities.Chapter, error) {
	catalogue := r.catalogues.GetOrStub(m.Source)

	remote, err := catalogue.MangaDetails(ctx, m.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch details of manga %d: %w", m.ID, err)
	}
	if !r.updater.AwaitUpdateFromSource(ctx, m, remote, manual) {
		return nil, fmt.Errorf("%w: manga %d", ErrRefreshFailed, m.ID)
	}

	list, err := catalogue.ChapterList(ctx, m.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch chapters of manga %d: %w", m.ID, err)
	}
	added, err := r.syncer.Await(ctx, m, list)
	if err != nil {
		return nil, fmt.Errorf("sync chapters of manga %d: %w", m.ID, err)
	}

	if len(added) > 0 && !r.updater.AwaitUpdateLastUpdate(ctx, m.ID) {
		r.log.WithField("manga_id", m.ID).Warn("Failed to record last update")
	}

	all, err := r.chapters.GetChaptersByMangaID(ctx, m.ID)
	if err != nil {
		return added, fmt.Errorf("load chapters of manga %d: %w", m.ID, err)
	}
	// The interval works from the stored record, which the details update changed.
	current, err := r.mangas.GetMangaByID(ctx, m.ID)
	if err != nil {
		return added, err
	}
	if !r.updater.AwaitUpdateFetchInterval(ctx, *current, all) {
		r.log.WithField("manga_id", m.ID).Warn("Failed to update fetch interval")
	}
	return added, nil
}

// RefreshMangaByID loads the record and refreshes it as a manual fetch.
func (r *Refresher) RefreshMangaByID(ctx context.Context, id int64) ([]entities.Chapter, error) {
	m, err := r.mangas.GetMangaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.RefreshManga(ctx, *m, true)
}
