package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mangashelf/internal/settingsstore"
)

type LibraryUpdateSettings interface {
	GetLibraryUpdateConfigInfo(ctx context.Context) settingsstore.LibraryUpdateConfigInfo
	GetLibraryUpdateStatus(ctx context.Context) settingsstore.LibraryUpdateStatus
	SetLibraryUpdateEnabled(ctx context.Context, enabled bool) error
	SetLibraryUpdateSchedule(ctx context.Context, schedule string) error
}

type BackupSettings interface {
	GetBackupSettingsInfo(ctx context.Context) settingsstore.BackupSettingsInfo
	SetBackupInterval(ctx context.Context, hours int64) error
}

// UpdateScheduler is the running library update schedule.
type UpdateScheduler interface {
	Reschedule(ctx context.Context) error
	IsRunning() bool
	GetNextRunTime() *time.Time
}

type SettingsController struct {
	library   LibraryUpdateSettings
	backup    BackupSettings
	scheduler UpdateScheduler
	auditor   SettingsAuditor
}

func NewSettingsController(library LibraryUpdateSettings, backup BackupSettings) *SettingsController {
	return &SettingsController{library: library, backup: backup}
}

// SetScheduler makes library update changes take effect without a restart.
func (sc *SettingsController) SetScheduler(s UpdateScheduler) { sc.scheduler = s }

func (sc *SettingsController) SetAuditor(a SettingsAuditor) { sc.auditor = a }

type LibraryUpdateResponse struct {
	Config           settingsstore.LibraryUpdateConfigInfo `json:"config"`
	Status           settingsstore.LibraryUpdateStatus     `json:"status"`
	SchedulerRunning bool                                  `json:"scheduler_running"`
	NextRunAt        *time.Time                            `json:"next_run_at,omitempty"`
}

// GetLibraryUpdate handles GET /api/settings/library-update
func (sc *SettingsController) GetLibraryUpdate(c *gin.Context) {
	c.JSON(http.StatusOK, sc.libraryUpdateResponse(c.Request.Context()))
}

func (sc *SettingsController) libraryUpdateResponse(ctx context.Context) LibraryUpdateResponse {
	resp := LibraryUpdateResponse{
		Config: sc.library.GetLibraryUpdateConfigInfo(ctx),
		Status: sc.library.GetLibraryUpdateStatus(ctx),
	}
	if sc.scheduler != nil {
		resp.SchedulerRunning = sc.scheduler.IsRunning()
		resp.NextRunAt = sc.scheduler.GetNextRunTime()
	}
	return resp
}

type updateLibraryUpdateRequest struct {
	Enabled  *bool   `json:"enabled"`
	Schedule *string `json:"schedule"`
}

// UpdateLibraryUpdate handles PUT /api/settings/library-update. The schedule
// is validated before anything is stored.
func (sc *SettingsController) UpdateLibraryUpdate(c *gin.Context) {
	ctx := c.Request.Context()
	var req updateLibraryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var changed []string
	if req.Schedule != nil {
		schedule := strings.TrimSpace(*req.Schedule)
		if err := settingsstore.ValidateCronSchedule(schedule); err != nil {
			respondBadRequest(c, fmt.Sprintf("invalid schedule %q: %v", schedule, err))
			return
		}
		if err := sc.library.SetLibraryUpdateSchedule(ctx, schedule); err != nil {
			respondInternalError(c, err, "save library update schedule")
			return
		}
		changed = append(changed, "schedule="+schedule)
	}
	if req.Enabled != nil {
		if err := sc.library.SetLibraryUpdateEnabled(ctx, *req.Enabled); err != nil {
			respondInternalError(c, err, "save library update enabled")
			return
		}
		changed = append(changed, fmt.Sprintf("enabled=%t", *req.Enabled))
	}

	if len(changed) > 0 {
		if sc.scheduler != nil {
			if err := sc.scheduler.Reschedule(ctx); err != nil {
				respondInternalError(c, err, "reschedule library update")
				return
			}
		}
		if sc.auditor != nil {
			sc.auditor.LogSettings("library_update", "Updated "+strings.Join(changed, ", "), c.ClientIP(), c.Request.UserAgent())
		}
	}
	c.JSON(http.StatusOK, sc.libraryUpdateResponse(ctx))
}

// GetBackup handles GET /api/settings/backup
func (sc *SettingsController) GetBackup(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings":  sc.backup.GetBackupSettingsInfo(c.Request.Context()),
		"intervals": settingsstore.BackupIntervals,
	})
}

type updateBackupRequest struct {
	IntervalHours *int64 `json:"interval_hours" binding:"required"`
}

// UpdateBackup handles PUT /api/settings/backup
func (sc *SettingsController) UpdateBackup(c *gin.Context) {
	var req updateBackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "interval_hours is required")
		return
	}
	if err := sc.backup.SetBackupInterval(c.Request.Context(), *req.IntervalHours); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if sc.auditor != nil {
		sc.auditor.LogSettings("backup_interval", fmt.Sprintf("Backup interval set to %dh", *req.IntervalHours), c.ClientIP(), c.Request.UserAgent())
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":  sc.backup.GetBackupSettingsInfo(c.Request.Context()),
		"intervals": settingsstore.BackupIntervals,
	})
}
