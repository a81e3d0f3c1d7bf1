package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// StubCatalogue stands in for a source id with no configured catalogue.
type StubCatalogue struct {
	id int64
}

func NewStubCatalogue(id int64) *StubCatalogue {
	return &StubCatalogue{id: id}
}

func (s *StubCatalogue) ID() int64            { return s.id }
func (s *StubCatalogue) Name() string         { return strconv.FormatInt(s.id, 10) }
func (s *StubCatalogue) Lang() string         { return "" }
func (s *StubCatalogue) SupportsLatest() bool { return false }

func (s *StubCatalogue) Search(ctx context.Context, query string, page int) (entities.MangasPage, error) {
	return entities.MangasPage{}, s.err()
}

func (s *StubCatalogue) Popular(ctx context.Context, page int) (entities.MangasPage, error) {
	return entities.MangasPage{}, s.err()
}

func (s *StubCatalogue) Latest(ctx context.Context, page int) (entities.MangasPage, error) {
	return entities.MangasPage{}, s.err()
}

func (s *StubCatalogue) MangaDetails(ctx context.Context, url string) (entities.SourceManga, error) {
	return entities.SourceManga{}, s.err()
}

func (s *StubCatalogue) ChapterList(ctx context.Context, url string) ([]entities.SourceChapter, error) {
	return nil, s.err()
}

func (s *StubCatalogue) err() error {
	return fmt.Errorf("%w: %d", ErrStubSource, s.id)
}
