// Package source talks to the catalogues manga come from.
//
// A Catalogue is one content source. The Manager holds the configured
// catalogues and hands out stubs for ids it does not know, so entries from a
// removed source stay browsable in the library. Repository pages through a
// catalogue and reconciles every result with the local library.
package source

import (
	"context"
	"errors"

	"github.com/mrlokans/mangashelf/internal/entities"
)

var (
	// ErrSourceNotFound is returned when no catalogue is registered for an id.
	ErrSourceNotFound = errors.New("source not found")
	// ErrStubSource is returned by every call on a stub catalogue.
	ErrStubSource = errors.New("source is not installed")
	// ErrLatestUnsupported is returned by Latest on catalogues without a latest listing.
	ErrLatestUnsupported = errors.New("source does not support latest updates")
)

// Catalogue is a remote content source.
type Catalogue interface {
	ID() int64
	Name() string
	Lang() string
	SupportsLatest() bool

	Search(ctx context.Context, query string, page int) (entities.MangasPage, error)
	Popular(ctx context.Context, page int) (entities.MangasPage, error)
	Latest(ctx context.Context, page int) (entities.MangasPage, error)
	MangaDetails(ctx context.Context, url string) (entities.SourceManga, error)
	ChapterList(ctx context.Context, url string) ([]entities.SourceChapter, error)
}

// Info describes a catalogue for listings.
type Info struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Lang           string `json:"lang"`
	SupportsLatest bool   `json:"supports_latest"`
	Stub           bool   `json:"stub"`
}

func InfoOf(c Catalogue) Info {
	_, stub := c.(*StubCatalogue)
	return Info{
		ID:             c.ID(),
		Name:           c.Name(),
		Lang:           c.Lang(),
		SupportsLatest: c.SupportsLatest(),
		Stub:           stub,
	}
}
