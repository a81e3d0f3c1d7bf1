package manga

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// UpdateStore applies sparse patches, reporting failure as false.
type UpdateStore interface {
	Update(ctx context.Context, update entities.MangaUpdate) bool
	UpdateAll(ctx context.Context, updates []entities.MangaUpdate) bool
}

// CoverCache is the part of the cover cache a source refresh touches.
type CoverCache interface {
	HasCustomCover(mangaID int64) bool
	InvalidateCover(mangaID int64) error
}

// DownloadRenamer moves downloaded chapters when a manga title changes.
type DownloadRenamer interface {
	RenameManga(sourceID int64, oldTitle, newTitle string) error
}

// Updater wraps partial updates with the domain rules around them.
type Updater struct {
	store     UpdateStore
	covers    CoverCache
	downloads DownloadRenamer
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewUpdater(store UpdateStore, log logrus.FieldLogger) *Updater {
	return &Updater{store: store, log: log, now: time.Now}
}

// SetCoverCache sets the cover cache invalidated on cover changes (optional).
func (u *Updater) SetCoverCache(covers CoverCache) {
	u.covers = covers
}

// SetDownloads sets the download store renamed on title changes (optional).
func (u *Updater) SetDownloads(downloads DownloadRenamer) {
	u.downloads = downloads
}

func (u *Updater) Await(ctx context.Context, update entities.MangaUpdate) bool {
	return u.store.Update(ctx, update)
}

func (u *Updater) AwaitAll(ctx context.Context, updates []entities.MangaUpdate) bool {
	return u.store.UpdateAll(ctx, updates)
}

// AwaitUpdateFromSource refreshes the source-owned fields of local from remote.
// Custom fields are never touched. The title only follows the source while the
// manga is outside the library, and missing remote values keep the stored ones.
// Entries marked fetch-once are skipped after their first refresh unless the
// user asked for it.
func (u *Updater) AwaitUpdateFromSource(ctx context.Context, local entities.Manga, remote entities.SourceManga, manualFetch bool) bool {
	if !manualFetch && local.Initialized && local.UpdateStrategy == entities.UpdateStrategyOnlyFetchOnce {
		return true
	}

	update := entities.MangaUpdate{
		ID:             local.ID,
		OgStatus:       entities.Some(remote.Status),
		UpdateStrategy: entities.Some(remote.UpdateStrategy),
		Initialized:    entities.Some(true),
	}

	var newTitle string
	if remote.Title != "" && !local.Favorite {
		newTitle = remote.Title
		update.OgTitle = entities.Some(remote.Title)
	}
	if remote.Author != nil {
		update.OgAuthor = entities.Some(remote.Author)
	}
	if remote.Artist != nil {
		update.OgArtist = entities.Some(remote.Artist)
	}
	if remote.Description != nil {
		update.OgDescription = entities.Some(remote.Description)
	}
	if genres := remote.Genres(); genres != nil {
		update.OgGenre = entities.Some(genres)
	}

	if remote.ThumbnailURL != nil && *remote.ThumbnailURL != "" {
		update.OgThumbnailURL = entities.Some(remote.ThumbnailURL)
		unchanged := local.OgThumbnailURL != nil && *local.OgThumbnailURL == *remote.ThumbnailURL
		if manualFetch || !unchanged {
			u.invalidateCover(local.ID)
			if u.covers == nil || !u.covers.HasCustomCover(local.ID) {
				update.CoverLastModified = entities.Some(u.now().UnixMilli())
			}
		}
	}

	if !u.store.Update(ctx, update) {
		return false
	}

	// Downloads are filed under the displayed title, which a custom title pins.
	if newTitle != "" && newTitle != local.OgTitle && local.CustomTitle == nil && u.downloads != nil {
		if err := u.downloads.RenameManga(local.Source, local.OgTitle, newTitle); err != nil {
			u.log.WithError(err).WithField("manga_id", local.ID).Warn("Failed to rename downloads")
		}
	}
	return true
}

// AwaitUpdateFavorite adds the manga to or removes it from the library.
// Adding stamps the date added; removing clears it.
func (u *Updater) AwaitUpdateFavorite(ctx context.Context, mangaID int64, favorite bool) bool {
	var dateAdded int64
	if favorite {
		dateAdded = u.now().UnixMilli()
	}
	return u.store.Update(ctx, entities.MangaUpdate{
		ID:        mangaID,
		Favorite:  entities.Some(favorite),
		DateAdded: entities.Some(dateAdded),
	})
}

// AwaitUpdateFetchInterval recomputes when m should next be checked from its
// chapters. A user-fixed (negative) interval is kept. Nothing is written when
// the schedule is unchanged.
func (u *Updater) AwaitUpdateFetchInterval(ctx context.Context, m entities.Manga, chapters []entities.Chapter) bool {
	now := u.now()
	interval := m.FetchInterval
	if interval >= 0 {
		interval = CalculateInterval(chapters, now.Location())
	}
	next := NextUpdate(m, interval, now)
	if next == m.NextUpdate && interval == m.FetchInterval {
		return true
	}
	return u.store.Update(ctx, entities.MangaUpdate{
		ID:            m.ID,
		NextUpdate:    entities.Some(next),
		FetchInterval: entities.Some(interval),
	})
}

// AwaitUpdateLastUpdate records that new chapters were found now.
func (u *Updater) AwaitUpdateLastUpdate(ctx context.Context, mangaID int64) bool {
	return u.store.Update(ctx, entities.MangaUpdate{
		ID:         mangaID,
		LastUpdate: entities.Some(u.now().UnixMilli()),
	})
}

// AwaitSetNotes replaces the free-text notes of a manga.
func (u *Updater) AwaitSetNotes(ctx context.Context, mangaID int64, notes string) bool {
	return u.store.Update(ctx, entities.MangaUpdate{ID: mangaID, Notes: entities.Some(notes)})
}

func (u *Updater) invalidateCover(mangaID int64) {
	if u.covers == nil {
		return
	}
	if err := u.covers.InvalidateCover(mangaID); err != nil {
		u.log.WithError(err).WithField("manga_id", mangaID).Warn("Failed to invalidate cover")
	}
}
