package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/tasks"
)

type fakeTaskQueue struct {
	enqueued []string
	refresh  []int64
	days     []int
	status   backlite.TaskStatus
	err      error
}

func (f *fakeTaskQueue) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, f.err
}

func (f *fakeTaskQueue) EnqueueLibraryUpdate(trigger string) (string, error) {
	f.enqueued = append(f.enqueued, "library_update:"+trigger)
	return "t-lib", f.err
}

func (f *fakeTaskQueue) EnqueueRefreshManga(mangaID int64) (string, error) {
	f.refresh = append(f.refresh, mangaID)
	return "t-refresh", f.err
}

func (f *fakeTaskQueue) EnqueueAuditCleanup(retentionDays int) (string, error) {
	f.days = append(f.days, retentionDays)
	return "t-audit", f.err
}

type fakeTrigger struct {
	id  string
	err error
}

func (f *fakeTrigger) RunNow() (string, error) { return f.id, f.err }

func setupTasksRouter(controller *TasksController) *gin.Engine {
	router := gin.New()
	router.POST("/api/library/update", controller.RunLibraryUpdate)
	router.GET("/api/tasks/types", controller.ListTaskTypes)
	router.GET("/api/tasks/:id", controller.GetTaskStatus)
	router.POST("/api/tasks/:type/run", controller.RunTask)
	return router
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	router := setupTasksRouter(NewTasksController(&fakeTaskQueue{}, nil))

	w := performRequest(router, "GET", "/api/tasks/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		TaskTypes []TaskTypeInfo `json:"task_types"`
	}](t, w)
	require.Len(t, body.TaskTypes, 3)
	assert.Equal(t, "library_update", body.TaskTypes[0].Queue)
	assert.Equal(t, "refresh_manga", body.TaskTypes[1].Queue)
	assert.Equal(t, "cleanup_audit_events", body.TaskTypes[2].Queue)
}

func TestTasksController_RunTask(t *testing.T) {
	queue := &fakeTaskQueue{}
	router := setupTasksRouter(NewTasksController(queue, nil))

	w := performRequest(router, "POST", "/api/tasks/library_update/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"library_update:manual"}, queue.enqueued)

	w = performRequest(router, "POST", "/api/tasks/refresh_manga/run", `{"manga_id": 4}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int64{4}, queue.refresh)
	resp := decode[SuccessResponse](t, w)
	assert.Equal(t, "t-refresh", resp.Data.(map[string]any)["task_id"])

	w = performRequest(router, "POST", "/api/tasks/refresh_manga/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", "/api/tasks/cleanup_audit_events/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	w = performRequest(router, "POST", "/api/tasks/cleanup_audit_events/run", `{"retention_days": 7}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []int{tasks.DefaultAuditRetentionDays, 7}, queue.days)

	w = performRequest(router, "POST", "/api/tasks/download_chapters/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	queue.err = errors.New("queue closed")
	w = performRequest(router, "POST", "/api/tasks/library_update/run", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	queue := &fakeTaskQueue{status: backlite.TaskStatusRunning}
	router := setupTasksRouter(NewTasksController(queue, nil))

	w := performRequest(router, "GET", "/api/tasks/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id": "abc", "status": "running"}`, w.Body.String())

	disabled := setupTasksRouter(NewTasksController(nil, nil))
	w = performRequest(disabled, "GET", "/api/tasks/abc", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTasksController_RunLibraryUpdate(t *testing.T) {
	trigger := &fakeTrigger{id: "t-1"}
	router := setupTasksRouter(NewTasksController(nil, trigger))

	w := performRequest(router, "POST", "/api/library/update", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "t-1", decode[SuccessResponse](t, w).Data.(map[string]any)["task_id"])

	trigger.id = ""
	w = performRequest(router, "POST", "/api/library/update", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, decode[SuccessResponse](t, w).Data)

	trigger.err = library.ErrUpdateRunning
	w = performRequest(router, "POST", "/api/library/update", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	none := setupTasksRouter(NewTasksController(nil, nil))
	w = performRequest(none, "POST", "/api/library/update", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTaskStatusToString(t *testing.T) {
	assert.Equal(t, "pending", taskStatusToString(backlite.TaskStatusPending))
	assert.Equal(t, "success", taskStatusToString(backlite.TaskStatusSuccess))
	assert.Equal(t, "failure", taskStatusToString(backlite.TaskStatusFailure))
	assert.Equal(t, "not_found", taskStatusToString(backlite.TaskStatusNotFound))
}
