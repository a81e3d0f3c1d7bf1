package migration

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/manga"
	"github.com/mrlokans/mangashelf/internal/source"
)

// DefaultMatchThreshold is the lowest title similarity accepted as a match.
const DefaultMatchThreshold = 0.8

// ErrNoMatch is returned when no selected source has a close enough title.
var ErrNoMatch = errors.New("no matching manga found")

// CatalogueGetter resolves a source id to its catalogue.
type CatalogueGetter interface {
	Get(id int64) (source.Catalogue, error)
}

// Reconciler resolves a fetched manga to its local record.
type Reconciler interface {
	Await(ctx context.Context, m entities.Manga) (entities.Manga, error)
}

// Match is the result of a smart search.
type Match struct {
	Manga    entities.Manga `json:"manga"`
	SourceID int64          `json:"source_id"`
	Score    float64        `json:"score"`
}

// SmartSearch looks a title up in several sources and picks the closest one.
type SmartSearch struct {
	catalogues CatalogueGetter
	reconciler Reconciler
	threshold  float64
	workers    int
	log        logrus.FieldLogger
}

func NewSmartSearch(catalogues CatalogueGetter, reconciler Reconciler, threshold float64, workers int, log logrus.FieldLogger) *SmartSearch {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}
	if workers < 1 {
		workers = 1
	}
	return &SmartSearch{
		catalogues: catalogues,
		reconciler: reconciler,
		threshold:  threshold,
		workers:    workers,
		log:        log,
	}
}

var bracketed = regexp.MustCompile(`\s*[(\[{][^)\]}]*[)\]}]\s*`)

// searchQueries returns the title as is, followed by a variant without
// bracketed parts such as "(Official)" or "[Colored]".
func searchQueries(title string) []string {
	title = strings.TrimSpace(title)
	queries := []string{title}
	if cleaned := strings.TrimSpace(bracketed.ReplaceAllString(title, " ")); cleaned != "" && cleaned != title {
		queries = append(queries, cleaned)
	}
	return queries
}

type candidate struct {
	manga entities.SourceManga
	score float64
}

// Search queries sourceIDs concurrently for title. Sources earlier in
// sourceIDs win over later ones; within a source the highest score wins.
// Failing sources are logged and skipped. The chosen manga is reconciled with
// the local library before it is returned.
func (s *SmartSearch) Search(ctx context.Context, title string, sourceIDs []int64) (Match, error) {
	if strings.TrimSpace(title) == "" || len(sourceIDs) == 0 {
		return Match{}, ErrNoMatch
	}

	best := make([]*candidate, len(sourceIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range sourceIDs {
		g.Go(func() error {
			c, err := s.searchSource(gctx, id, title)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.log.WithError(err).WithField("source_id", id).Warn("Smart search failed for source")
				return nil
			}
			best[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Match{}, err
	}

	for i, c := range best {
		if c == nil {
			continue
		}
		sourceID := sourceIDs[i]
		local, err := s.reconciler.Await(ctx, c.manga.ToDomainManga(sourceID))
		if err != nil {
			return Match{}, fmt.Errorf("reconcile match from source %d: %w", sourceID, err)
		}
		return Match{Manga: local, SourceID: sourceID, Score: c.score}, nil
	}
	return Match{}, ErrNoMatch
}

func (s *SmartSearch) searchSource(ctx context.Context, id int64, title string) (*candidate, error) {
	catalogue, err := s.catalogues.Get(id)
	if err != nil {
		return nil, err
	}

	var best *candidate
	for _, query := range searchQueries(title) {
		page, err := catalogue.Search(ctx, query, 1)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Mangas {
			score := manga.TitleSimilarity(query, m.Title)
			if score < s.threshold {
				continue
			}
			if best == nil || score > best.score {
				best = &candidate{manga: m, score: score}
			}
		}
		if best != nil {
			return best, nil
		}
	}
	return nil, nil
}
