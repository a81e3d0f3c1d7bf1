package manga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// ErrNoChapters is returned when a source lists no chapters for a manga.
var ErrNoChapters = errors.New("no chapters found")

// ChapterStore persists the chapter list of a manga.
type ChapterStore interface {
	GetChaptersByMangaID(ctx context.Context, mangaID int64) ([]entities.Chapter, error)
	Upsert(ctx context.Context, chapters []entities.Chapter) error
	DeleteByMangaIDExcept(ctx context.Context, mangaID int64, keep []string) (int64, error)
}

// SyncChaptersWithSource makes the stored chapters of a manga match the
// source list while keeping reading progress of chapters that survive.
type SyncChaptersWithSource struct {
	store ChapterStore
	now   func() time.Time
}

func NewSyncChaptersWithSource(store ChapterStore) *SyncChaptersWithSource {
	return &SyncChaptersWithSource{store: store, now: time.Now}
}

// Await stores remote as the chapter list of m and returns the chapters that
// were not known before. Chapters the source no longer lists are removed.
func (s *SyncChaptersWithSource) Await(ctx context.Context, m entities.Manga, remote []entities.SourceChapter) ([]entities.Chapter, error) {
	if len(remote) == 0 {
		return nil, ErrNoChapters
	}

	existing, err := s.store.GetChaptersByMangaID(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load chapters of manga %d: %w", m.ID, err)
	}
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.URL] = true
	}

	now := s.now().UnixMilli()
	seen := make(map[string]bool, len(remote))
	chapters := make([]entities.Chapter, 0, len(remote))
	urls := make([]string, 0, len(remote))
	var added []entities.Chapter
	for i, sc := range remote {
		if sc.URL == "" || seen[sc.URL] {
			continue
		}
		seen[sc.URL] = true

		chapter := entities.Chapter{
			MangaID:        m.ID,
			URL:            sc.URL,
			Name:           sc.Name,
			Scanlator:      sc.Scanlator,
			ChapterNumber:  sc.ChapterNumber,
			SourceOrder:    int64(i),
			DateUpload:     sc.DateUpload,
			DateFetch:      now,
			LastModifiedAt: now,
		}
		chapters = append(chapters, chapter)
		urls = append(urls, sc.URL)
		if !known[sc.URL] {
			added = append(added, chapter)
		}
	}

	if err := s.store.Upsert(ctx, chapters); err != nil {
		return nil, fmt.Errorf("store chapters of manga %d: %w", m.ID, err)
	}
	if _, err := s.store.DeleteByMangaIDExcept(ctx, m.ID, urls); err != nil {
		return nil, fmt.Errorf("prune chapters of manga %d: %w", m.ID, err)
	}
	return added, nil
}
