package source

import (
	"context"
	"fmt"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// PageSize is the number of results a catalogue page is expected to hold.
const PageSize = 25

// Page is one page of catalogue results after reconciliation with the library.
type Page struct {
	Mangas      []entities.Manga `json:"mangas"`
	Page        int              `json:"page"`
	HasNextPage bool             `json:"has_next_page"`
}

// SourceWithCount pairs a catalogue with the number of stored entries from it.
type SourceWithCount struct {
	Source Info  `json:"source"`
	Count  int64 `json:"count"`
}

// CountStore counts stored manga per source.
type CountStore interface {
	SourceIDsWithFavoriteCount(ctx context.Context) ([]entities.SourceCount, error)
	SourceIDsWithNonLibraryManga(ctx context.Context) ([]entities.SourceCount, error)
}

// Reconciler resolves fetched manga to their local records.
type Reconciler interface {
	AwaitAll(ctx context.Context, mangas []entities.Manga) ([]entities.Manga, error)
}

// Repository browses catalogues and keeps every result in the local library cache.
type Repository struct {
	manager    *Manager
	counts     CountStore
	reconciler Reconciler
}

func NewRepository(manager *Manager, counts CountStore, reconciler Reconciler) *Repository {
	return &Repository{manager: manager, counts: counts, reconciler: reconciler}
}

func (r *Repository) SourcesWithFavoriteCount(ctx context.Context) ([]SourceWithCount, error) {
	counts, err := r.counts.SourceIDsWithFavoriteCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("count favorites per source: %w", err)
	}
	return r.withInfo(counts), nil
}

func (r *Repository) SourcesWithNonLibraryManga(ctx context.Context) ([]SourceWithCount, error) {
	counts, err := r.counts.SourceIDsWithNonLibraryManga(ctx)
	if err != nil {
		return nil, fmt.Errorf("count non-library manga per source: %w", err)
	}
	return r.withInfo(counts), nil
}

func (r *Repository) withInfo(counts []entities.SourceCount) []SourceWithCount {
	result := make([]SourceWithCount, 0, len(counts))
	for _, c := range counts {
		result = append(result, SourceWithCount{
			Source: InfoOf(r.manager.GetOrStub(c.SourceID)),
			Count:  c.Count,
		})
	}
	return result
}

func (r *Repository) Search(ctx context.Context, sourceID int64, query string, page int) (Page, error) {
	return r.fetch(ctx, sourceID, page, func(c Catalogue, page int) (entities.MangasPage, error) {
		return c.Search(ctx, query, page)
	})
}

func (r *Repository) Popular(ctx context.Context, sourceID int64, page int) (Page, error) {
	return r.fetch(ctx, sourceID, page, func(c Catalogue, page int) (entities.MangasPage, error) {
		return c.Popular(ctx, page)
	})
}

func (r *Repository) Latest(ctx context.Context, sourceID int64, page int) (Page, error) {
	return r.fetch(ctx, sourceID, page, func(c Catalogue, page int) (entities.MangasPage, error) {
		if !c.SupportsLatest() {
			return entities.MangasPage{}, ErrLatestUnsupported
		}
		return c.Latest(ctx, page)
	})
}

func (r *Repository) fetch(ctx context.Context, sourceID int64, page int, load func(Catalogue, int) (entities.MangasPage, error)) (Page, error) {
	if page < 1 {
		page = 1
	}
	catalogue, err := r.manager.Get(sourceID)
	if err != nil {
		return Page{}, err
	}

	result, err := load(catalogue, page)
	if err != nil {
		return Page{}, err
	}

	mangas := make([]entities.Manga, 0, len(result.Mangas))
	for _, sm := range result.Mangas {
		mangas = append(mangas, sm.ToDomainManga(sourceID))
	}
	local, err := r.reconciler.AwaitAll(ctx, mangas)
	if err != nil {
		return Page{}, fmt.Errorf("reconcile page %d of source %d: %w", page, sourceID, err)
	}

	return Page{Mangas: local, Page: page, HasNextPage: result.HasNextPage}, nil
}
