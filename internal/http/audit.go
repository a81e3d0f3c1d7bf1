package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	auditRepo "github.com/mrlokans/mangashelf/internal/database/audit"
	"github.com/mrlokans/mangashelf/internal/entities"
)

type AuditReader interface {
	GetEvents(ctx context.Context, filter auditRepo.EventFilter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type AuditController struct {
	events AuditReader
}

func NewAuditController(events AuditReader) *AuditController {
	return &AuditController{events: events}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&entity_type=&entity_id=&since=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, ok := parsePageQuery(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if limit < 1 || limit > 100 {
		limit = 25
	}

	filter := auditRepo.EventFilter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
	}
	if raw := c.Query("entity_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondBadRequest(c, "invalid entity_id")
			return
		}
		filter.EntityID = &id
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondBadRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}

	events, total, err := ac.events.GetEvents(c.Request.Context(), filter, limit, (page-1)*limit)
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
