package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/mangashelf/internal/tasks"
)

// TaskQueue is the part of the task client the API drives.
type TaskQueue interface {
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
	EnqueueLibraryUpdate(trigger string) (string, error)
	EnqueueRefreshManga(mangaID int64) (string, error)
	EnqueueAuditCleanup(retentionDays int) (string, error)
}

// LibraryUpdateTrigger starts a library update outside the schedule.
type LibraryUpdateTrigger interface {
	RunNow() (string, error)
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	client  TaskQueue
	trigger LibraryUpdateTrigger
}

func NewTasksController(client TaskQueue, trigger LibraryUpdateTrigger) *TasksController {
	return &TasksController{client: client, trigger: trigger}
}

type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

var taskTypes = []TaskTypeInfo{
	{
		Type:        "library_update",
		Description: "Refresh every library entry that is due",
		Queue:       tasks.LibraryUpdateTask{}.Config().Name,
	},
	{
		Type:        "refresh_manga",
		Description: "Refresh details and chapters of one manga",
		Queue:       tasks.RefreshMangaTask{}.Config().Name,
	},
	{
		Type:        "cleanup_audit_events",
		Description: "Delete audit events past the retention period",
		Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
	},
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": taskTypes})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	if tc.client == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "load task status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

type RunTaskRequest struct {
	// MangaID is required for refresh_manga.
	MangaID int64 `json:"manga_id,omitempty"`
	// RetentionDays overrides the cleanup default.
	RetentionDays int `json:"retention_days,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	if tc.client == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	var (
		id  string
		err error
	)
	switch taskType {
	case "library_update":
		id, err = tc.client.EnqueueLibraryUpdate("manual")
	case "refresh_manga":
		if req.MangaID <= 0 {
			respondBadRequest(c, "manga_id is required for refresh_manga")
			return
		}
		id, err = tc.client.EnqueueRefreshManga(req.MangaID)
	case "cleanup_audit_events":
		days := req.RetentionDays
		if days <= 0 {
			days = tasks.DefaultAuditRetentionDays
		}
		id, err = tc.client.EnqueueAuditCleanup(days)
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}
	respondAccepted(c, "task enqueued", gin.H{"task_id": id, "type": taskType})
}

// RunLibraryUpdate handles POST /api/library/update. It goes through the
// scheduler so inline runs are guarded the same way as scheduled ones.
func (tc *TasksController) RunLibraryUpdate(c *gin.Context) {
	if tc.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "library updates are not configured"})
		return
	}
	id, err := tc.trigger.RunNow()
	if err != nil {
		respondDomainError(c, err, "start library update")
		return
	}
	data := gin.H{}
	if id != "" {
		data["task_id"] = id
	}
	respondAccepted(c, "library update started", data)
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
