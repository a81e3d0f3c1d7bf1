// Package manga holds the manga interactors: reconciling records fetched from
// a source with the local library, partial updates and custom info edits.
package manga

import (
	"context"
	"errors"
	"fmt"

	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/metrics"
)

// LocalStore looks up and inserts manga records by natural key.
type LocalStore interface {
	GetMangaByURLAndSourceID(ctx context.Context, url string, sourceID int64) (*entities.Manga, error)
	Insert(ctx context.Context, m entities.Manga) (int64, error)
}

// NetworkToLocal resolves a manga fetched from a source to the single local
// record for its (url, source) pair, creating it on first sight.
type NetworkToLocal struct {
	store LocalStore
}

func NewNetworkToLocal(store LocalStore) *NetworkToLocal {
	return &NetworkToLocal{store: store}
}

// Await returns the record to operate on for m:
//   - no local record: m is inserted and returned with its new id;
//   - local record outside the library: m is returned with the local id;
//   - local favorite: the local record is returned untouched.
//
// An insert that loses a race on (url, source) resolves against the winner.
// ErrNoIdentity from the store is returned as is.
func (n *NetworkToLocal) Await(ctx context.Context, m entities.Manga) (entities.Manga, error) {
	local, err := n.store.GetMangaByURLAndSourceID(ctx, m.URL, m.Source)
	if err != nil {
		return entities.Manga{}, fmt.Errorf("look up manga %q from source %d: %w", m.URL, m.Source, err)
	}

	if local == nil {
		id, err := n.store.Insert(ctx, m)
		if err == nil {
			metrics.Reconciliations.WithLabelValues("inserted").Inc()
			m.ID = id
			return m, nil
		}
		if !errors.Is(err, mangadb.ErrAlreadyExists) {
			return entities.Manga{}, err
		}

		local, err = n.store.GetMangaByURLAndSourceID(ctx, m.URL, m.Source)
		if err != nil {
			return entities.Manga{}, fmt.Errorf("re-read manga %q from source %d: %w", m.URL, m.Source, err)
		}
		if local == nil {
			return entities.Manga{}, fmt.Errorf("manga %q from source %d vanished after conflict: %w", m.URL, m.Source, mangadb.ErrAlreadyExists)
		}
	}

	if local.Favorite {
		metrics.Reconciliations.WithLabelValues("kept").Inc()
		return *local, nil
	}
	metrics.Reconciliations.WithLabelValues("refreshed").Inc()
	m.ID = local.ID
	return m, nil
}

// AwaitAll reconciles mangas in order and stops at the first failure.
func (n *NetworkToLocal) AwaitAll(ctx context.Context, mangas []entities.Manga) ([]entities.Manga, error) {
	resolved := make([]entities.Manga, 0, len(mangas))
	for _, m := range mangas {
		local, err := n.Await(ctx, m)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, local)
	}
	return resolved, nil
}
