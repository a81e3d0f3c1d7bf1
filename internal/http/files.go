package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// maxCoverBytes caps uploaded custom covers.
const maxCoverBytes = 10 << 20

type MangaGetter interface {
	GetMangaByID(ctx context.Context, id int64) (*entities.Manga, error)
}

// CoverFiles is the cover cache as seen by the API.
type CoverFiles interface {
	GetCover(mangaID int64, coverURL string) (string, error)
	CustomCoverPath(mangaID int64) string
	HasCustomCover(mangaID int64) bool
	SetCustomCover(mangaID int64, r io.Reader) error
	DeleteCustomCover(mangaID int64) error
}

// DownloadFiles is the download store as seen by the API.
type DownloadFiles interface {
	DownloadedChapters(sourceID int64, title string) ([]string, error)
	DeleteManga(sourceID int64, title string) error
	DeleteChapters(sourceID int64, title string, chapterNames []string) error
}

// FilesController serves covers and downloaded chapters of library entries.
type FilesController struct {
	mangas    MangaGetter
	covers    CoverFiles
	downloads DownloadFiles
	auditor   EditAuditor
}

func NewFilesController(mangas MangaGetter, covers CoverFiles, downloads DownloadFiles) *FilesController {
	return &FilesController{mangas: mangas, covers: covers, downloads: downloads}
}

func (fc *FilesController) SetAuditor(auditor EditAuditor) { fc.auditor = auditor }

func (fc *FilesController) load(c *gin.Context) (*entities.Manga, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	m, err := fc.mangas.GetMangaByID(c.Request.Context(), id)
	if err != nil {
		respondDomainError(c, err, "load manga")
		return nil, false
	}
	return m, true
}

// GetCover handles GET /api/manga/:id/cover. A custom cover wins; otherwise
// the source cover is served from the cache, falling back to a redirect when
// it cannot be fetched.
func (fc *FilesController) GetCover(c *gin.Context) {
	m, ok := fc.load(c)
	if !ok {
		return
	}
	if fc.covers.HasCustomCover(m.ID) {
		c.File(fc.covers.CustomCoverPath(m.ID))
		return
	}

	coverURL := m.ThumbnailURL()
	if coverURL == nil || *coverURL == "" {
		respondNotFound(c, "cover")
		return
	}
	path, err := fc.covers.GetCover(m.ID, *coverURL)
	if err != nil || path == "" {
		requestLogger(c).WithError(err).WithField("manga_id", m.ID).Debug("Cover not cached, redirecting")
		c.Redirect(http.StatusTemporaryRedirect, *coverURL)
		return
	}
	c.File(path)
}

// SetCover handles PUT /api/manga/:id/cover with the image as the raw body.
func (fc *FilesController) SetCover(c *gin.Context) {
	m, ok := fc.load(c)
	if !ok {
		return
	}
	if c.Request.ContentLength == 0 {
		respondBadRequest(c, "empty cover")
		return
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxCoverBytes)
	err := fc.covers.SetCustomCover(m.ID, body)
	fc.audit(m.ID, "set_custom_cover", err)
	if err != nil {
		respondInternalError(c, err, "store custom cover")
		return
	}
	respondSuccess(c, "custom cover stored")
}

// DeleteCover handles DELETE /api/manga/:id/cover. Only the custom cover is removed.
func (fc *FilesController) DeleteCover(c *gin.Context) {
	m, ok := fc.load(c)
	if !ok {
		return
	}
	err := fc.covers.DeleteCustomCover(m.ID)
	fc.audit(m.ID, "delete_custom_cover", err)
	if err != nil {
		respondInternalError(c, err, "delete custom cover")
		return
	}
	respondSuccess(c, "custom cover removed")
}

type DownloadsResponse struct {
	MangaID  int64    `json:"manga_id"`
	Chapters []string `json:"chapters"`
}

// GetDownloads handles GET /api/manga/:id/downloads
func (fc *FilesController) GetDownloads(c *gin.Context) {
	m, ok := fc.load(c)
	if !ok {
		return
	}
	chapters, err := fc.downloads.DownloadedChapters(m.Source, m.Title())
	if err != nil {
		respondInternalError(c, err, "list downloads")
		return
	}
	c.JSON(http.StatusOK, DownloadsResponse{MangaID: m.ID, Chapters: chapters})
}

type deleteDownloadsRequest struct {
	Chapters []string `json:"chapters"`
}

// DeleteDownloads handles DELETE /api/manga/:id/downloads. Without a body
// every download of the manga is removed.
func (fc *FilesController) DeleteDownloads(c *gin.Context) {
	m, ok := fc.load(c)
	if !ok {
		return
	}
	var req deleteDownloadsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	var err error
	if len(req.Chapters) == 0 {
		err = fc.downloads.DeleteManga(m.Source, m.Title())
	} else {
		err = fc.downloads.DeleteChapters(m.Source, m.Title(), req.Chapters)
	}
	fc.audit(m.ID, "delete_downloads", err)
	if err != nil {
		respondInternalError(c, err, "delete downloads")
		return
	}
	respondSuccess(c, "downloads deleted")
}

func (fc *FilesController) audit(mangaID int64, action string, err error) {
	if fc.auditor != nil {
		fc.auditor.LogMangaEdit(mangaID, action, action, err)
	}
}
