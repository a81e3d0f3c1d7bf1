// Package sourcetest provides an in-memory catalogue for tests.
package sourcetest

import (
	"context"
	"strings"
	"sync"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/source"
)

// Catalogue serves manga and chapters from memory. Search matches titles
// case-insensitively; Popular and Latest return everything in insertion order.
type Catalogue struct {
	id     int64
	name   string
	lang   string
	latest bool

	mu       sync.Mutex
	mangas   []entities.SourceManga
	chapters map[string][]entities.SourceChapter
	failures map[string]error
	calls    map[string]int
}

func New(id int64, name, lang string) *Catalogue {
	return &Catalogue{
		id:       id,
		name:     name,
		lang:     lang,
		latest:   true,
		chapters: make(map[string][]entities.SourceChapter),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Add stores a manga with its chapters.
func (c *Catalogue) Add(m entities.SourceManga, chapters ...entities.SourceChapter) *Catalogue {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mangas = append(c.mangas, m)
	c.chapters[m.URL] = chapters
	return c
}

// Fail makes every call to method return err.
func (c *Catalogue) Fail(method string, err error) *Catalogue {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[method] = err
	return c
}

func (c *Catalogue) WithoutLatest() *Catalogue {
	c.latest = false
	return c
}

// Calls reports how many times method was called.
func (c *Catalogue) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Catalogue) ID() int64            { return c.id }
func (c *Catalogue) Name() string         { return c.name }
func (c *Catalogue) Lang() string         { return c.lang }
func (c *Catalogue) SupportsLatest() bool { return c.latest }

func (c *Catalogue) Search(ctx context.Context, query string, page int) (entities.MangasPage, error) {
	if err := c.enter("Search"); err != nil {
		return entities.MangasPage{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	query = strings.ToLower(query)
	var found []entities.SourceManga
	for _, m := range c.mangas {
		if strings.Contains(strings.ToLower(m.Title), query) {
			found = append(found, m)
		}
	}
	return paginate(found, page), nil
}

func (c *Catalogue) Popular(ctx context.Context, page int) (entities.MangasPage, error) {
	if err := c.enter("Popular"); err != nil {
		return entities.MangasPage{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return paginate(c.mangas, page), nil
}

func (c *Catalogue) Latest(ctx context.Context, page int) (entities.MangasPage, error) {
	if !c.latest {
		return entities.MangasPage{}, source.ErrLatestUnsupported
	}
	if err := c.enter("Latest"); err != nil {
		return entities.MangasPage{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return paginate(c.mangas, page), nil
}

func (c *Catalogue) MangaDetails(ctx context.Context, url string) (entities.SourceManga, error) {
	if err := c.enter("MangaDetails"); err != nil {
		return entities.SourceManga{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.mangas {
		if m.URL == url {
			return m, nil
		}
	}
	return entities.SourceManga{}, source.ErrNotFound
}

func (c *Catalogue) ChapterList(ctx context.Context, url string) ([]entities.SourceChapter, error) {
	if err := c.enter("ChapterList"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	chapters, ok := c.chapters[url]
	if !ok {
		return nil, source.ErrNotFound
	}
	return append([]entities.SourceChapter(nil), chapters...), nil
}

func (c *Catalogue) enter(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	return c.failures[method]
}

func paginate(mangas []entities.SourceManga, page int) entities.MangasPage {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * source.PageSize
	if start >= len(mangas) {
		return entities.MangasPage{}
	}
	end := start + source.PageSize
	if end > len(mangas) {
		end = len(mangas)
	}
	return entities.MangasPage{
		Mangas:      append([]entities.SourceManga(nil), mangas[start:end]...),
		HasNextPage: end < len(mangas),
	}
}
