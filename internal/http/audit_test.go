package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/audit"
	auditRepo "github.com/mrlokans/mangashelf/internal/database/audit"
	"github.com/mrlokans/mangashelf/internal/entities"
)

type auditBody struct {
	Events      []entities.AuditEvent `json:"events"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int                   `json:"total_pages"`
	TotalEvents int64                 `json:"total_events"`
}

func TestAuditController_GetAuditEvents(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	service := audit.NewService(auditRepo.NewRepository(db.DB), testLogger())
	mangaID := int64(7)
	for _, event := range []*entities.AuditEvent{
		{EventType: entities.AuditEventMigration, Action: "migrate_manga", EntityType: "manga", EntityID: &mangaID, Status: entities.AuditStatusSuccess},
		{EventType: entities.AuditEventSettings, Action: "backup_interval", EntityType: "setting", Status: entities.AuditStatusSuccess},
		{EventType: entities.AuditEventMigration, Action: "migrate_manga", EntityType: "manga", Status: entities.AuditStatusFailed},
	} {
		require.NoError(t, service.Log(ctx, event))
	}

	router := gin.New()
	router.GET("/api/audit", NewAuditController(service).GetAuditEvents)

	w := performRequest(router, "GET", "/api/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[auditBody](t, w)
	assert.Equal(t, int64(3), body.TotalEvents)
	assert.Equal(t, 25, body.Limit)
	assert.Equal(t, 1, body.TotalPages)

	w = performRequest(router, "GET", "/api/audit?type=migration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[auditBody](t, w).TotalEvents)

	w = performRequest(router, "GET", "/api/audit?entity_type=manga&entity_id=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[auditBody](t, w)
	require.Len(t, body.Events, 1)
	assert.Equal(t, &mangaID, body.Events[0].EntityID)

	w = performRequest(router, "GET", "/api/audit?limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[auditBody](t, w)
	assert.Len(t, body.Events, 1)
	assert.Equal(t, 2, body.TotalPages)

	w = performRequest(router, "GET", "/api/audit?entity_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "GET", "/api/audit?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
