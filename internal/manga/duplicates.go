package manga

import (
	"context"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// DefaultDuplicateSimilarity is the title similarity from which two library
// entries count as likely duplicates.
const DefaultDuplicateSimilarity = 0.8

// DuplicateStore finds library entries that may duplicate a manga.
type DuplicateStore interface {
	GetDuplicateLibraryManga(ctx context.Context, id int64, title string) ([]entities.DuplicateManga, error)
	GetLibraryManga(ctx context.Context) ([]entities.LibraryManga, error)
}

// GetDuplicates lists library entries that look like the same series as a
// given manga: titles containing its title plus near matches by edit distance.
type GetDuplicates struct {
	store     DuplicateStore
	threshold float64
}

func NewGetDuplicates(store DuplicateStore, threshold float64) *GetDuplicates {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDuplicateSimilarity
	}
	return &GetDuplicates{store: store, threshold: threshold}
}

// Await returns the duplicates of m, closest titles first. m itself is never included.
func (g *GetDuplicates) Await(ctx context.Context, m entities.Manga) ([]entities.DuplicateManga, error) {
	title := m.Title()
	normalized := NormalizeTitle(title)

	exact, err := g.store.GetDuplicateLibraryManga(ctx, m.ID, title)
	if err != nil {
		return nil, fmt.Errorf("find duplicates of manga %d: %w", m.ID, err)
	}

	seen := map[int64]bool{m.ID: true}
	duplicates := make([]entities.DuplicateManga, 0, len(exact))
	for _, d := range exact {
		seen[d.Manga.ID] = true
		d.TitleDistance = levenshtein.ComputeDistance(normalized, NormalizeTitle(d.Manga.Title()))
		duplicates = append(duplicates, d)
	}

	library, err := g.store.GetLibraryManga(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	for _, entry := range library {
		if seen[entry.Manga.ID] {
			continue
		}
		seen[entry.Manga.ID] = true
		if TitleSimilarity(title, entry.Manga.Title()) < g.threshold {
			continue
		}
		duplicates = append(duplicates, entities.DuplicateManga{
			Manga:         entry.Manga,
			ChapterCount:  entry.TotalChapters,
			TitleDistance: levenshtein.ComputeDistance(normalized, NormalizeTitle(entry.Manga.Title())),
		})
	}

	sort.SliceStable(duplicates, func(i, j int) bool {
		if duplicates[i].TitleDistance != duplicates[j].TitleDistance {
			return duplicates[i].TitleDistance < duplicates[j].TitleDistance
		}
		return duplicates[i].Manga.Title() < duplicates[j].Manga.Title()
	})
	return duplicates, nil
}
