package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/manga"
	"github.com/mrlokans/mangashelf/internal/source"
	"github.com/mrlokans/mangashelf/internal/source/sourcetest"
)

func setupSourcesTest(t *testing.T, catalogues ...source.Catalogue) (*gin.Engine, *mangadb.Repository, func()) {
	t.Helper()
	db, cleanup := setupTestDB(t)
	mangas := mangadb.NewRepository(db.Handler, testLogger())
	manager, err := source.NewManager(catalogues...)
	require.NoError(t, err)

	controller := NewSourcesController(source.NewRepository(manager, mangas, manga.NewNetworkToLocal(mangas)), manager, mangas)
	router := gin.New()
	router.GET("/api/sources", controller.ListSources)
	router.GET("/api/sources/:id/search", controller.Search)
	router.GET("/api/sources/:id/popular", controller.Popular)
	router.GET("/api/sources/:id/latest", controller.Latest)
	router.GET("/api/sources/:id/favorites", controller.Favorites)
	return router, mangas, cleanup
}

func TestSourcesController_Browse(t *testing.T) {
	catalogue := sourcetest.New(1, "Alpha", "en").
		Add(entities.SourceManga{URL: "/m/1", Title: "Berserk"}).
		Add(entities.SourceManga{URL: "/m/2", Title: "Monster"}).
		WithoutLatest()
	router, mangas, cleanup := setupSourcesTest(t, catalogue)
	defer cleanup()

	w := performRequest(router, "GET", "/api/sources/1/search?q=berserk", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[source.Page](t, w)
	require.Len(t, page.Mangas, 1)
	assert.NotZero(t, page.Mangas[0].ID)
	assert.Equal(t, 1, page.Page)

	stored, err := mangas.GetMangaByURLAndSourceID(context.Background(), "/m/1", 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, page.Mangas[0].ID, stored.ID)

	w = performRequest(router, "GET", "/api/sources/1/popular", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[source.Page](t, w).Mangas, 2)

	t.Run("search needs a query", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/sources/1/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("latest unsupported", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/sources/1/latest", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "latest_unsupported", decode[ErrorResponse](t, w).Code)
	})

	t.Run("unknown source", func(t *testing.T) {
		w := performRequest(router, "GET", "/api/sources/9/popular", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "source_not_found", decode[ErrorResponse](t, w).Code)
	})
}

func TestSourcesController_UpstreamFailure(t *testing.T) {
	catalogue := sourcetest.New(1, "Alpha", "en").Fail("Popular", &source.StatusError{Code: 503})
	router, _, cleanup := setupSourcesTest(t, catalogue)
	defer cleanup()

	w := performRequest(router, "GET", "/api/sources/1/popular", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSourcesController_ListSources(t *testing.T) {
	router, mangas, cleanup := setupSourcesTest(t, sourcetest.New(1, "Alpha", "en"), sourcetest.New(2, "Beta", "ja"))
	defer cleanup()
	ctx := context.Background()

	for _, m := range []entities.Manga{
		{URL: "/m/1", Source: 1, OgTitle: "A", Favorite: true},
		{URL: "/m/2", Source: 7, OgTitle: "B", Favorite: true},
		{URL: "/m/3", Source: 2, OgTitle: "C"},
	} {
		_, err := mangas.Insert(ctx, m)
		require.NoError(t, err)
	}

	w := performRequest(router, "GET", "/api/sources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[struct {
		Sources []source.Info `json:"sources"`
	}](t, w)
	assert.Len(t, all.Sources, 2)

	w = performRequest(router, "GET", "/api/sources?with=favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counted := decode[struct {
		Sources []source.SourceWithCount `json:"sources"`
	}](t, w)
	require.Len(t, counted.Sources, 2)
	assert.Equal(t, int64(1), counted.Sources[0].Source.ID)
	assert.Equal(t, int64(7), counted.Sources[1].Source.ID)
	assert.True(t, counted.Sources[1].Source.Stub)

	w = performRequest(router, "GET", "/api/sources?with=non_library", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counted = decode[struct {
		Sources []source.SourceWithCount `json:"sources"`
	}](t, w)
	require.Len(t, counted.Sources, 1)
	assert.Equal(t, int64(2), counted.Sources[0].Source.ID)

	w = performRequest(router, "GET", "/api/sources?with=everything", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "GET", "/api/sources/7/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[mangaListBody](t, w).Total)
}
