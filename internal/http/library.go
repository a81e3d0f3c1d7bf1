package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// LibraryStore lists library views of the manga repository.
type LibraryStore interface {
	GetLibraryManga(ctx context.Context) ([]entities.LibraryManga, error)
	GetFavorites(ctx context.Context) ([]entities.Manga, error)
	GetUpcomingManga(ctx context.Context, statuses []entities.MangaStatus) ([]entities.Manga, error)
	GetReadMangaNotInLibrary(ctx context.Context) ([]entities.Manga, error)
	ResetViewerFlags(ctx context.Context) bool
}

// defaultUpcomingStatuses are the statuses that still expect new chapters.
var defaultUpcomingStatuses = []entities.MangaStatus{
	entities.MangaStatusOngoing,
	entities.MangaStatusOnHiatus,
	entities.MangaStatusUnknown,
}

type LibraryController struct {
	store LibraryStore
}

func NewLibraryController(store LibraryStore) *LibraryController {
	return &LibraryController{store: store}
}

// GetLibrary handles GET /api/library
func (lc *LibraryController) GetLibrary(c *gin.Context) {
	entries, err := lc.store.GetLibraryManga(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "load library")
		return
	}
	if entries == nil {
		entries = []entities.LibraryManga{}
	}
	c.JSON(http.StatusOK, gin.H{"library": entries, "total": len(entries)})
}

// GetFavorites handles GET /api/library/favorites
func (lc *LibraryController) GetFavorites(c *gin.Context) {
	mangas, err := lc.store.GetFavorites(c.Request.Context())
	respondMangaList(c, mangas, err, "load favorites")
}

// GetUpcoming handles GET /api/library/upcoming?status=1,6
func (lc *LibraryController) GetUpcoming(c *gin.Context) {
	statuses := defaultUpcomingStatuses
	if raw := c.Query("status"); raw != "" {
		statuses = nil
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 0 {
				respondBadRequest(c, "invalid status")
				return
			}
			statuses = append(statuses, entities.MangaStatus(n))
		}
	}
	mangas, err := lc.store.GetUpcomingManga(c.Request.Context(), statuses)
	respondMangaList(c, mangas, err, "load upcoming")
}

// GetReadNotInLibrary handles GET /api/library/read-not-in-library
func (lc *LibraryController) GetReadNotInLibrary(c *gin.Context) {
	mangas, err := lc.store.GetReadMangaNotInLibrary(c.Request.Context())
	respondMangaList(c, mangas, err, "load read manga")
}

// ResetViewerFlags handles POST /api/library/reset-viewer-flags
func (lc *LibraryController) ResetViewerFlags(c *gin.Context) {
	if !lc.store.ResetViewerFlags(c.Request.Context()) {
		respondError(c, http.StatusInternalServerError, "failed to reset viewer flags")
		return
	}
	respondSuccess(c, "viewer flags reset")
}

func respondMangaList(c *gin.Context, mangas []entities.Manga, err error, context string) {
	if err != nil {
		respondInternalError(c, err, context)
		return
	}
	if mangas == nil {
		mangas = []entities.Manga{}
	}
	c.JSON(http.StatusOK, gin.H{"mangas": mangas, "total": len(mangas)})
}
