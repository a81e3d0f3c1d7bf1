package http

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	categoriesdb "github.com/mrlokans/mangashelf/internal/database/categories"
	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/manga"
)

type mangaTestEnv struct {
	router     *gin.Engine
	controller *MangaController
	mangas     *mangadb.Repository
	categories *categoriesdb.Repository
	auditor    *fakeEditAuditor
}

type fakeEditAuditor struct {
	actions []string
}

func (f *fakeEditAuditor) LogMangaEdit(mangaID int64, action, description string, err error) {
	f.actions = append(f.actions, action)
}

type fakeRefreshQueue struct {
	ids []int64
	err error
}

func (f *fakeRefreshQueue) EnqueueRefreshManga(mangaID int64) (string, error) {
	f.ids = append(f.ids, mangaID)
	return "task-1", f.err
}

type fakeMangaRefresher struct {
	added []entities.Chapter
	err   error
}

func (f *fakeMangaRefresher) RefreshMangaByID(ctx context.Context, id int64) ([]entities.Chapter, error) {
	return f.added, f.err
}

func setupMangaTest(t *testing.T) (*mangaTestEnv, func()) {
	t.Helper()
	db, cleanup := setupTestDB(t)

	mangas := mangadb.NewRepository(db.Handler, testLogger())
	categories := categoriesdb.NewRepository(db.Handler)
	controller := NewMangaController(mangas, categories, manga.NewGetDuplicates(mangas, 0), manga.NewSetCustomInfo(mangas))
	auditor := &fakeEditAuditor{}
	controller.SetAuditor(auditor)

	router := gin.New()
	router.GET("/api/manga/:id", controller.GetManga)
	router.GET("/api/manga/:id/subscribe", controller.SubscribeManga)
	router.PATCH("/api/manga/:id", controller.PatchManga)
	router.PATCH("/api/manga", controller.PatchMangas)
	router.PUT("/api/manga/:id/custom", controller.SetCustomInfo)
	router.PUT("/api/manga/:id/categories", controller.SetCategories)
	router.GET("/api/manga/:id/duplicates", controller.GetDuplicates)
	router.POST("/api/manga/:id/refresh", controller.RefreshManga)

	return &mangaTestEnv{
		router:     router,
		controller: controller,
		mangas:     mangas,
		categories: categories,
		auditor:    auditor,
	}, cleanup
}

func (e *mangaTestEnv) insert(t *testing.T, m entities.Manga) int64 {
	t.Helper()
	id, err := e.mangas.Insert(context.Background(), m)
	require.NoError(t, err)
	return id
}

type mangaBody struct {
	Manga      entities.Manga      `json:"manga"`
	Title      string              `json:"title"`
	Categories []entities.Category `json:"categories"`
}

func TestMangaController_GetManga(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	id := env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", Favorite: true})

	w := performRequest(env.router, "GET", "/api/manga/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[mangaBody](t, w)
	assert.Equal(t, id, body.Manga.ID)
	assert.Equal(t, "Berserk", body.Title)
	assert.Empty(t, body.Categories)

	w = performRequest(env.router, "GET", "/api/manga/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "manga_not_found", decode[ErrorResponse](t, w).Code)

	w = performRequest(env.router, "GET", "/api/manga/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMangaController_PatchManga(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", OgArtist: entities.Ptr("Miura"), Favorite: true, Notes: "keep"})

	w := performRequest(env.router, "PATCH", "/api/manga/1", `{"favorite": false, "custom_title": "Berserk Deluxe", "og_artist": null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[mangaBody](t, w)
	assert.False(t, body.Manga.Favorite)
	assert.Equal(t, "Berserk Deluxe", body.Title)
	assert.Nil(t, body.Manga.OgArtist)
	assert.Equal(t, "keep", body.Manga.Notes)
	assert.NotNil(t, body.Manga.FavoriteModifiedAt)
	assert.Equal(t, []string{"patch"}, env.auditor.actions)

	t.Run("rejects a mismatched id", func(t *testing.T) {
		w := performRequest(env.router, "PATCH", "/api/manga/1", `{"id": 2, "notes": "x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown manga", func(t *testing.T) {
		w := performRequest(env.router, "PATCH", "/api/manga/42", `{"notes": "x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMangaController_PatchManga_NullKeepsRequiredFields(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", OgArtist: entities.Ptr("Miura"), Favorite: true, Initialized: true})

	w := performRequest(env.router, "PATCH", "/api/manga/1", `{"favorite": null, "url": null, "source": null, "og_title": null, "initialized": null, "og_artist": null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[mangaBody](t, w)
	assert.True(t, body.Manga.Favorite)
	assert.Equal(t, "/m/1", body.Manga.URL)
	assert.Equal(t, int64(1), body.Manga.Source)
	assert.Equal(t, "Berserk", body.Manga.OgTitle)
	assert.True(t, body.Manga.Initialized)
	assert.Nil(t, body.Manga.OgArtist, "nullable columns are cleared")
}

func TestMangaController_PatchMangas(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	ctx := context.Background()
	first := env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "A"})
	second := env.insert(t, entities.Manga{URL: "/m/2", Source: 1, OgTitle: "B"})

	w := performRequest(env.router, "PATCH", "/api/manga", []map[string]any{
		{"id": first, "notes": "one"},
		{"id": second, "notes": "two"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	t.Run("applies nothing when one patch fails", func(t *testing.T) {
		w := performRequest(env.router, "PATCH", "/api/manga", []map[string]any{
			{"id": first, "notes": "changed"},
			{"id": 999, "notes": "missing"},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		m, err := env.mangas.GetMangaByID(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "one", m.Notes)
	})

	t.Run("rejects patches without id", func(t *testing.T) {
		w := performRequest(env.router, "PATCH", "/api/manga", `[{"notes": "x"}]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an empty list", func(t *testing.T) {
		w := performRequest(env.router, "PATCH", "/api/manga", `[]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMangaController_SetCustomInfo(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk"})

	w := performRequest(env.router, "PUT", "/api/manga/1/custom", `{"title": "Guts"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Guts", decode[mangaBody](t, w).Title)

	w = performRequest(env.router, "PUT", "/api/manga/1/custom", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Berserk", decode[mangaBody](t, w).Title)
}

func TestMangaController_SetCategories(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	ctx := context.Background()
	env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", Favorite: true})
	category, err := env.categories.Create(ctx, "Reading")
	require.NoError(t, err)

	w := performRequest(env.router, "PUT", "/api/manga/1/categories", map[string]any{"category_ids": []int64{category.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(env.router, "GET", "/api/manga/1", nil)
	body := decode[mangaBody](t, w)
	require.Len(t, body.Categories, 1)
	assert.Equal(t, "Reading", body.Categories[0].Name)
}

func TestMangaController_RefreshManga(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", Favorite: true})

	w := performRequest(env.router, "POST", "/api/manga/1/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	refresher := &fakeMangaRefresher{added: make([]entities.Chapter, 2)}
	env.controller.SetRefresh(nil, refresher)
	w = performRequest(env.router, "POST", "/api/manga/1/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode[map[string]any](t, w)["new_chapters"])

	refresher.err = errors.New("source down")
	w = performRequest(env.router, "POST", "/api/manga/1/refresh", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	queue := &fakeRefreshQueue{}
	env.controller.SetRefresh(queue, refresher)
	w = performRequest(env.router, "POST", "/api/manga/1/refresh", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decode[SuccessResponse](t, w)
	assert.Equal(t, map[string]any{"task_id": "task-1"}, resp.Data)
	assert.Equal(t, []int64{1}, queue.ids)
}

func TestMangaController_SubscribeManga(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	ctx := context.Background()
	id := env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", Favorite: true})

	server := httptest.NewServer(env.router)
	defer server.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, "GET", server.URL+"/api/manga/1/subscribe", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	nextData := func() string {
		t.Helper()
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data:") {
				return line
			}
		}
	}

	assert.Contains(t, nextData(), `"og_title":"Berserk"`)

	require.True(t, env.mangas.Update(ctx, entities.MangaUpdate{ID: id, Notes: entities.Some("chapter 364")}))
	assert.Contains(t, nextData(), `"notes":"chapter 364"`)

	t.Run("unknown manga", func(t *testing.T) {
		w := performRequest(env.router, "GET", "/api/manga/42/subscribe", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMangaController_GetDuplicates(t *testing.T) {
	env, cleanup := setupMangaTest(t)
	defer cleanup()
	id := env.insert(t, entities.Manga{URL: "/m/1", Source: 1, OgTitle: "Berserk", Favorite: true})
	env.insert(t, entities.Manga{URL: "/b/1", Source: 2, OgTitle: "Berserk", Favorite: true})

	w := performRequest(env.router, "GET", "/api/manga/1/duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[struct {
		Duplicates []entities.DuplicateManga `json:"duplicates"`
	}](t, w)
	require.Len(t, body.Duplicates, 1)
	assert.NotEqual(t, id, body.Duplicates[0].Manga.ID)
}
