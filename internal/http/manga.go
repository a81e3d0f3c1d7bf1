package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/manga"
)

// MangaStore is the part of the manga repository the controller uses.
type MangaStore interface {
	GetMangaByID(ctx context.Context, id int64) (*entities.Manga, error)
	SubscribeMangaByID(ctx context.Context, id int64) <-chan entities.Manga
	Update(ctx context.Context, update entities.MangaUpdate) bool
	UpdateAll(ctx context.Context, updates []entities.MangaUpdate) bool
	SetMangaCategories(ctx context.Context, mangaID int64, categoryIDs []int64) error
}

type CategoryReader interface {
	GetCategoriesByMangaID(ctx context.Context, mangaID int64) ([]entities.Category, error)
}

type DuplicateFinder interface {
	Await(ctx context.Context, m entities.Manga) ([]entities.DuplicateManga, error)
}

type CustomInfoSetter interface {
	Await(ctx context.Context, m entities.Manga, info manga.CustomInfo) bool
}

// RefreshQueue hands a manga refresh to the task queue.
type RefreshQueue interface {
	EnqueueRefreshManga(mangaID int64) (string, error)
}

// MangaRefresher refreshes a manga in process.
type MangaRefresher interface {
	RefreshMangaByID(ctx context.Context, id int64) ([]entities.Chapter, error)
}

// EditAuditor records edits made through the API.
type EditAuditor interface {
	LogMangaEdit(mangaID int64, action, description string, err error)
}

type MangaController struct {
	mangas     MangaStore
	categories CategoryReader
	duplicates DuplicateFinder
	custom     CustomInfoSetter
	queue      RefreshQueue
	refresher  MangaRefresher
	auditor    EditAuditor
}

func NewMangaController(mangas MangaStore, categories CategoryReader, duplicates DuplicateFinder, custom CustomInfoSetter) *MangaController {
	return &MangaController{
		mangas:     mangas,
		categories: categories,
		duplicates: duplicates,
		custom:     custom,
	}
}

// SetRefresh configures how POST /api/manga/:id/refresh runs. A queue wins
// over the in-process refresher.
func (mc *MangaController) SetRefresh(queue RefreshQueue, refresher MangaRefresher) {
	mc.queue = queue
	mc.refresher = refresher
}

func (mc *MangaController) SetAuditor(auditor EditAuditor) { mc.auditor = auditor }

type MangaResponse struct {
	Manga      entities.Manga      `json:"manga"`
	Title      string              `json:"title"`
	Categories []entities.Category `json:"categories"`
}

func (mc *MangaController) load(c *gin.Context) (*entities.Manga, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	m, err := mc.mangas.GetMangaByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "load manga")
		return nil, false
	}
	return m, true
}

// GetManga handles GET /api/manga/:id
func (mc *MangaController) GetManga(c *gin.Context) {
	m, ok := mc.load(c)
	if !ok {
		return
	}
	categories, err := mc.categories.GetCategoriesByMangaID(c.Request.Context(), m.ID)
	if err != nil {
		respondInternalError(c, err, "load categories")
		return
	}
	if categories == nil {
		categories = []entities.Category{}
	}
	c.JSON(http.StatusOK, MangaResponse{Manga: *m, Title: m.Title(), Categories: categories})
}

// SubscribeManga handles GET /api/manga/:id/subscribe as a server-sent
// event stream. A "manga" event is sent right away and after every change;
// the stream ends when the client leaves or the record is deleted.
func (mc *MangaController) SubscribeManga(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := mc.mangas.GetMangaByID(c.Request.Context(), id); err != nil {
		respondDomainError(c, err, "subscribe manga")
		return
	}

	stream := mc.mangas.SubscribeMangaByID(c.Request.Context(), id)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		m, ok := <-stream
		if !ok {
			return false
		}
		c.SSEvent("manga", m)
		return true
	})
}

// PatchManga handles PATCH /api/manga/:id with a sparse MangaUpdate body.
// Keys left out keep their stored value; null clears nullable fields.
func (mc *MangaController) PatchManga(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var update entities.MangaUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if update.ID != 0 && update.ID != id {
		respondBadRequest(c, "id in body does not match path")
		return
	}
	update.ID = id

	if _, err := mc.mangas.GetMangaByID(c.Request.Context(), id); err != nil {
		respondDomainError(c, err, "patch manga")
		return
	}
	if !mc.mangas.Update(c.Request.Context(), update) {
		mc.audit(id, "patch", "Partial update failed", fmt.Errorf("update rejected"))
		respondError(c, http.StatusInternalServerError, "update failed")
		return
	}
	mc.audit(id, "patch", "Partial update applied", nil)
	mc.respondManga(c, id)
}

// PatchMangas handles PATCH /api/manga with a list of updates applied
// all together or not at all.
func (mc *MangaController) PatchMangas(c *gin.Context) {
	var updates []entities.MangaUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(updates) == 0 {
		respondBadRequest(c, "no updates given")
		return
	}
	for i, u := range updates {
		if u.ID <= 0 {
			respondBadRequest(c, fmt.Sprintf("update %d has no id", i))
			return
		}
	}
	if !mc.mangas.UpdateAll(c.Request.Context(), updates) {
		respondError(c, http.StatusUnprocessableEntity, "updates were not applied")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(updates)})
}

// SetCustomInfo handles PUT /api/manga/:id/custom. The body replaces every
// override at once.
func (mc *MangaController) SetCustomInfo(c *gin.Context) {
	m, ok := mc.load(c)
	if !ok {
		return
	}
	var info manga.CustomInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !mc.custom.Await(c.Request.Context(), *m, info) {
		mc.audit(m.ID, "custom_info", "Custom info update failed", fmt.Errorf("update rejected"))
		respondError(c, http.StatusInternalServerError, "update failed")
		return
	}
	mc.audit(m.ID, "custom_info", "Custom info updated", nil)
	mc.respondManga(c, m.ID)
}

type setCategoriesRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

// SetCategories handles PUT /api/manga/:id/categories
func (mc *MangaController) SetCategories(c *gin.Context) {
	m, ok := mc.load(c)
	if !ok {
		return
	}
	var req setCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	err := mc.mangas.SetMangaCategories(c.Request.Context(), m.ID, req.CategoryIDs)
	mc.audit(m.ID, "categories", fmt.Sprintf("Assigned %d categories", len(req.CategoryIDs)), err)
	if err != nil {
		respondInternalError(c, err, "set categories")
		return
	}
	mc.respondManga(c, m.ID)
}

// GetDuplicates handles GET /api/manga/:id/duplicates
func (mc *MangaController) GetDuplicates(c *gin.Context) {
	m, ok := mc.load(c)
	if !ok {
		return
	}
	duplicates, err := mc.duplicates.Await(c.Request.Context(), *m)
	if err != nil {
		respondInternalError(c, err, "find duplicates")
		return
	}
	if duplicates == nil {
		duplicates = []entities.DuplicateManga{}
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": duplicates})
}

// RefreshManga handles POST /api/manga/:id/refresh
func (mc *MangaController) RefreshManga(c *gin.Context) {
	m, ok := mc.load(c)
	if !ok {
		return
	}
	switch {
	case mc.queue != nil:
		taskID, err := mc.queue.EnqueueRefreshManga(m.ID)
		if err != nil {
			respondInternalError(c, err, "enqueue refresh")
			return
		}
		respondAccepted(c, "refresh enqueued", gin.H{"task_id": taskID})
	case mc.refresher != nil:
		added, err := mc.refresher.RefreshMangaByID(c.Request.Context(), m.ID)
		if err != nil {
			respondDomainError(c, err, "refresh manga")
			return
		}
		c.JSON(http.StatusOK, gin.H{"new_chapters": len(added)})
	default:
		respondError(c, http.StatusServiceUnavailable, "refresh not available")
	}
}

func (mc *MangaController) respondManga(c *gin.Context, id int64) {
	m, err := mc.mangas.GetMangaByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "reload manga")
		return
	}
	c.JSON(http.StatusOK, gin.H{"manga": m, "title": m.Title()})
}

func (mc *MangaController) audit(mangaID int64, action, description string, err error) {
	if mc.auditor != nil {
		mc.auditor.LogMangaEdit(mangaID, action, description, err)
	}
}
