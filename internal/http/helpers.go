package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	mangadb "github.com/mrlokans/mangashelf/internal/database/manga"
	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/migration"
	"github.com/mrlokans/mangashelf/internal/source"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	requestLogger(c).WithError(err).WithField("context", context).Error("Internal error")
	respondError(c, http.StatusInternalServerError, "internal server error")
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message, RequestID: c.GetString(ContextKeyRequestID)})
}

// domainErrors maps sentinel errors to a status and a machine-readable code.
var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{mangadb.ErrMangaNotFound, http.StatusNotFound, "manga_not_found"},
	{source.ErrSourceNotFound, http.StatusNotFound, "source_not_found"},
	{source.ErrNotFound, http.StatusNotFound, "not_found_in_source"},
	{source.ErrStubSource, http.StatusServiceUnavailable, "source_not_installed"},
	{source.ErrLatestUnsupported, http.StatusBadRequest, "latest_unsupported"},
	{migration.ErrUnknownFacet, http.StatusBadRequest, "unknown_facet"},
	{migration.ErrSameManga, http.StatusBadRequest, "same_manga"},
	{migration.ErrNoTargetSources, http.StatusBadRequest, "no_target_sources"},
	{migration.ErrNoMatch, http.StatusNotFound, "no_match"},
	{migration.ErrIndexOutOfRange, http.StatusBadRequest, "index_out_of_range"},
	{migration.ErrBatchRunning, http.StatusConflict, "migration_running"},
	{library.ErrUpdateRunning, http.StatusConflict, "library_update_running"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// respondDomainError translates known errors into client responses and
// treats everything else as an internal error.
func respondDomainError(c *gin.Context, err error, context string) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			c.JSON(d.status, ErrorResponse{Error: err.Error(), Code: d.code, RequestID: c.GetString(ContextKeyRequestID)})
			return
		}
	}
	var statusErr *source.StatusError
	if errors.As(err, &statusErr) {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "source_error", RequestID: c.GetString(ContextKeyRequestID)})
		return
	}
	respondInternalError(c, err, context)
}

// --- Success Response Helpers ---

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts a positive id from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return id, true
}

// parsePageQuery reads the 1-based "page" query parameter, defaulting to 1.
func parsePageQuery(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		respondBadRequest(c, "invalid page")
		return 0, false
	}
	return page, true
}

func requestLogger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(ContextKeyLogger); ok {
		if log, ok := v.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}
