package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/covers"
	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/downloads"
	"github.com/mrlokans/mangashelf/internal/entities"
)

type filesTestEnv struct {
	router    *gin.Engine
	mangas    *mangadb.Repository
	covers    *covers.Cache
	downloads *downloads.Store
	auditor   *fakeEditAuditor
}

func setupFilesTest(t *testing.T) (*filesTestEnv, func()) {
	t.Helper()
	db, cleanup := setupTestDB(t)

	dir := t.TempDir()
	coverCache, err := covers.NewCache(filepath.Join(dir, "covers"))
	require.NoError(t, err)
	store, err := downloads.NewStore(filepath.Join(dir, "downloads"))
	require.NoError(t, err)

	mangas := mangadb.NewRepository(db.Handler, testLogger())
	controller := NewFilesController(mangas, coverCache, store)
	auditor := &fakeEditAuditor{}
	controller.SetAuditor(auditor)

	router := gin.New()
	router.GET("/api/manga/:id/cover", controller.GetCover)
	router.PUT("/api/manga/:id/cover", controller.SetCover)
	router.DELETE("/api/manga/:id/cover", controller.DeleteCover)
	router.GET("/api/manga/:id/downloads", controller.GetDownloads)
	router.DELETE("/api/manga/:id/downloads", controller.DeleteDownloads)

	return &filesTestEnv{router: router, mangas: mangas, covers: coverCache, downloads: store, auditor: auditor}, cleanup
}

func (e *filesTestEnv) insert(t *testing.T, m entities.Manga) int64 {
	t.Helper()
	id, err := e.mangas.Insert(context.Background(), m)
	require.NoError(t, err)
	return id
}

func TestFilesController_CustomCover(t *testing.T) {
	env, cleanup := setupFilesTest(t)
	defer cleanup()
	id := env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk"})

	w := performRequest(env.router, "GET", "/api/manga/1/cover", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no custom cover and no thumbnail")

	w = performRequest(env.router, "PUT", "/api/manga/1/cover", "image-bytes")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.covers.HasCustomCover(id))

	w = performRequest(env.router, "GET", "/api/manga/1/cover", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image-bytes", w.Body.String())

	w = performRequest(env.router, "DELETE", "/api/manga/1/cover", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.covers.HasCustomCover(id))

	assert.Equal(t, []string{"set_custom_cover", "delete_custom_cover"}, env.auditor.actions)
}

func TestFilesController_SourceCover(t *testing.T) {
	env, cleanup := setupFilesTest(t)
	defer cleanup()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cover.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("source-cover"))
	}))
	defer upstream.Close()

	env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", OgThumbnailURL: entities.Ptr(upstream.URL + "/cover.jpg")})
	env.insert(t, entities.Manga{URL: "/m/2", Source: 1, OgTitle: "Claymore", OgThumbnailURL: entities.Ptr(upstream.URL + "/missing.jpg")})

	w := performRequest(env.router, "GET", "/api/manga/1/cover", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "source-cover", w.Body.String())

	w = performRequest(env.router, "GET", "/api/manga/2/cover", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, upstream.URL+"/missing.jpg", w.Header().Get("Location"))

	w = performRequest(env.router, "GET", "/api/manga/3/cover", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilesController_Downloads(t *testing.T) {
	env, cleanup := setupFilesTest(t)
	defer cleanup()
	env.insert(t, entities.Manga{URL: "/m/1", Source: 7, OgTitle: "Berserk"})

	for _, name := range []string{"Ch. 1", "Ch. 2", "Ch. 3"} {
		require.NoError(t, os.MkdirAll(env.downloads.ChapterDir(7, "Berserk", name), 0755))
	}

	w := performRequest(env.router, "GET", "/api/manga/1/downloads", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Ch. 1", "Ch. 2", "Ch. 3"}, decode[DownloadsResponse](t, w).Chapters)

	w = performRequest(env.router, "DELETE", "/api/manga/1/downloads", map[string]any{"chapters": []string{"Ch. 2"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(env.router, "GET", "/api/manga/1/downloads", nil)
	assert.Equal(t, []string{"Ch. 1", "Ch. 3"}, decode[DownloadsResponse](t, w).Chapters)

	w = performRequest(env.router, "DELETE", "/api/manga/1/downloads", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(env.router, "GET", "/api/manga/1/downloads", nil)
	assert.Empty(t, decode[DownloadsResponse](t, w).Chapters)
}
