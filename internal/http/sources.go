package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/source"
)

// SourceBrowser browses catalogues through the source repository.
type SourceBrowser interface {
	SourcesWithFavoriteCount(ctx context.Context) ([]source.SourceWithCount, error)
	SourcesWithNonLibraryManga(ctx context.Context) ([]source.SourceWithCount, error)
	Search(ctx context.Context, sourceID int64, query string, page int) (source.Page, error)
	Popular(ctx context.Context, sourceID int64, page int) (source.Page, error)
	Latest(ctx context.Context, sourceID int64, page int) (source.Page, error)
}

type CatalogueRegistry interface {
	Catalogues() []source.Catalogue
	Get(id int64) (source.Catalogue, error)
}

type SourceFavoritesStore interface {
	GetFavoritesBySourceID(ctx context.Context, sourceID int64) ([]entities.Manga, error)
}

type SourcesController struct {
	browser   SourceBrowser
	registry  CatalogueRegistry
	favorites SourceFavoritesStore
}

func NewSourcesController(browser SourceBrowser, registry CatalogueRegistry, favorites SourceFavoritesStore) *SourcesController {
	return &SourcesController{browser: browser, registry: registry, favorites: favorites}
}

// ListSources handles GET /api/sources. With ?with=favorites or
// ?with=non_library it lists the sources holding such entries together with
// their counts, including sources that are no longer installed.
func (sc *SourcesController) ListSources(c *gin.Context) {
	var (
		counted []source.SourceWithCount
		err     error
	)
	switch c.Query("with") {
	case "":
		catalogues := sc.registry.Catalogues()
		infos := make([]source.Info, 0, len(catalogues))
		for _, cat := range catalogues {
			infos = append(infos, source.InfoOf(cat))
		}
		c.JSON(http.StatusOK, gin.H{"sources": infos})
		return
	case "favorites":
		counted, err = sc.browser.SourcesWithFavoriteCount(c.Request.Context())
	case "non_library":
		counted, err = sc.browser.SourcesWithNonLibraryManga(c.Request.Context())
	default:
		respondBadRequest(c, "with must be favorites or non_library")
		return
	}
	if err != nil {
		respondInternalError(c, err, "count sources")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": counted})
}

func (sc *SourcesController) catalogueParams(c *gin.Context) (int64, int, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	if _, err := sc.registry.Get(id); err != nil {
		respondDomainError(c, err, "resolve source")
		return 0, 0, false
	}
	page, ok := parsePageQuery(c)
	if !ok {
		return 0, 0, false
	}
	return id, page, true
}

// Search handles GET /api/sources/:id/search?q=&page=
func (sc *SourcesController) Search(c *gin.Context) {
	id, page, ok := sc.catalogueParams(c)
	if !ok {
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondBadRequest(c, "q is required")
		return
	}
	result, err := sc.browser.Search(c.Request.Context(), id, query, page)
	respondPage(c, result, err)
}

// Popular handles GET /api/sources/:id/popular?page=
func (sc *SourcesController) Popular(c *gin.Context) {
	id, page, ok := sc.catalogueParams(c)
	if !ok {
		return
	}
	result, err := sc.browser.Popular(c.Request.Context(), id, page)
	respondPage(c, result, err)
}

// Latest handles GET /api/sources/:id/latest?page=
func (sc *SourcesController) Latest(c *gin.Context) {
	id, page, ok := sc.catalogueParams(c)
	if !ok {
		return
	}
	result, err := sc.browser.Latest(c.Request.Context(), id, page)
	respondPage(c, result, err)
}

// Favorites handles GET /api/sources/:id/favorites. Uninstalled sources are
// allowed so their entries can be found and migrated away.
func (sc *SourcesController) Favorites(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	mangas, err := sc.favorites.GetFavoritesBySourceID(c.Request.Context(), id)
	respondMangaList(c, mangas, err, "load source favorites")
}

func respondPage(c *gin.Context, page source.Page, err error) {
	if err != nil {
		respondDomainError(c, err, "browse source")
		return
	}
	if page.Mangas == nil {
		page.Mangas = []entities.Manga{}
	}
	c.JSON(http.StatusOK, page)
}
