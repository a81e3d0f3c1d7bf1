package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/migration"
	"github.com/mrlokans/mangashelf/internal/settingsstore"
)

// MigrationSettings is the part of the settings store behind the migration screens.
type MigrationSettings interface {
	GetMigrateFlagsInfo(ctx context.Context) settingsstore.MigrationFlagsInfo
	SetMigrateFlags(ctx context.Context, flags migration.Flags) error
	GetPinnedSources(ctx context.Context) []int64
	SetPinnedSources(ctx context.Context, ids []int64) error
	GetDisabledSources(ctx context.Context) []int64
	SetDisabledSources(ctx context.Context, ids []int64) error
	GetEnabledLanguages(ctx context.Context) []string
	SetEnabledLanguages(ctx context.Context, langs []string) error
}

type MigrationSourceSelector interface {
	Sources(ctx context.Context) []migration.MigrationSource
	SelectedIDs(ctx context.Context) []int64
	Toggle(ctx context.Context, id int64) ([]migration.MigrationSource, error)
	Select(ctx context.Context, config migration.SelectionConfig) ([]migration.MigrationSource, error)
	Move(ctx context.Context, from, to int) ([]migration.MigrationSource, error)
}

type MatchSearcher interface {
	Search(ctx context.Context, title string, sourceIDs []int64) (migration.Match, error)
}

type MangaMigrator interface {
	Migrate(ctx context.Context, oldID, newID int64, flags migration.Flags, replace bool) (migration.Result, error)
}

type SourceBatchMigrator interface {
	MigrateSource(ctx context.Context, sourceID int64, flags migration.Flags, replace bool) (migration.BatchResult, error)
}

// BatchProgressReader reads the stored progress of source migrations.
type BatchProgressReader interface {
	GetSyncProgress(ctx context.Context) (*entities.SyncProgress, error)
}

// SettingsAuditor records settings changes.
type SettingsAuditor interface {
	LogSettings(action, description, ipAddr, userAgent string)
}

type MigrationController struct {
	settings MigrationSettings
	selector MigrationSourceSelector
	search   MatchSearcher
	migrator MangaMigrator
	batch    SourceBatchMigrator
	progress BatchProgressReader
	auditor  SettingsAuditor

	mu        sync.Mutex
	lastBatch *migration.BatchResult
	lastError string
}

func NewMigrationController(settings MigrationSettings, selector MigrationSourceSelector, search MatchSearcher, migrator MangaMigrator, batch SourceBatchMigrator) *MigrationController {
	return &MigrationController{
		settings: settings,
		selector: selector,
		search:   search,
		migrator: migrator,
		batch:    batch,
	}
}

// SetProgressReader enables GET /api/migration/source/status (optional).
func (mc *MigrationController) SetProgressReader(p BatchProgressReader) { mc.progress = p }

func (mc *MigrationController) SetAuditor(a SettingsAuditor) { mc.auditor = a }

// flagsRequest selects migration facets either by name or by bit mask.
// Names win when both are given; neither means the stored default.
type flagsRequest struct {
	Flags  *int     `json:"flags"`
	Facets []string `json:"facets"`
}

func (r flagsRequest) resolve(ctx context.Context, settings MigrationSettings) (migration.Flags, error) {
	if r.Facets != nil {
		return migration.FlagsFromNames(r.Facets)
	}
	if r.Flags != nil {
		return migration.Flags(*r.Flags).Known(), nil
	}
	return settings.GetMigrateFlagsInfo(ctx).Flags, nil
}

type FacetInfo struct {
	Name    string `json:"name"`
	Bit     int    `json:"bit"`
	Enabled bool   `json:"enabled"`
}

// GetFlags handles GET /api/migration/flags: every facet with its bit and
// whether the stored default includes it.
func (mc *MigrationController) GetFlags(c *gin.Context) {
	info := mc.settings.GetMigrateFlagsInfo(c.Request.Context())
	facets := make([]FacetInfo, 0, len(migration.AllFacets))
	for _, f := range migration.AllFacets {
		facets = append(facets, FacetInfo{Name: f.Name, Bit: int(f.Flag), Enabled: info.Flags&f.Flag != 0})
	}
	c.JSON(http.StatusOK, gin.H{
		"flags":   info.Flags,
		"source":  info.Source,
		"default": migration.DefaultFlags,
		"facets":  facets,
	})
}

type MigrationSettingsResponse struct {
	Flags           settingsstore.MigrationFlagsInfo `json:"flags"`
	PinnedSources   []int64                          `json:"pinned_sources"`
	DisabledSources []int64                          `json:"disabled_sources"`
	Languages       []string                         `json:"languages"`
}

// GetSettings handles GET /api/migration/settings
func (mc *MigrationController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, mc.settingsResponse(c.Request.Context()))
}

func (mc *MigrationController) settingsResponse(ctx context.Context) MigrationSettingsResponse {
	resp := MigrationSettingsResponse{
		Flags:           mc.settings.GetMigrateFlagsInfo(ctx),
		PinnedSources:   mc.settings.GetPinnedSources(ctx),
		DisabledSources: mc.settings.GetDisabledSources(ctx),
		Languages:       mc.settings.GetEnabledLanguages(ctx),
	}
	if resp.PinnedSources == nil {
		resp.PinnedSources = []int64{}
	}
	if resp.DisabledSources == nil {
		resp.DisabledSources = []int64{}
	}
	return resp
}

type updateMigrationSettingsRequest struct {
	flagsRequest
	PinnedSources   []int64  `json:"pinned_sources"`
	DisabledSources []int64  `json:"disabled_sources"`
	Languages       []string `json:"languages"`
}

// UpdateSettings handles PUT /api/migration/settings. Only given keys change.
func (mc *MigrationController) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()
	var req updateMigrationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var changed []string
	if req.Facets != nil || req.Flags != nil {
		flags, err := req.resolve(ctx, mc.settings)
		if err != nil {
			respondDomainError(c, err, "parse flags")
			return
		}
		if err := mc.settings.SetMigrateFlags(ctx, flags); err != nil {
			respondInternalError(c, err, "save migrate flags")
			return
		}
		changed = append(changed, "flags="+flags.String())
	}
	if req.PinnedSources != nil {
		if err := mc.settings.SetPinnedSources(ctx, req.PinnedSources); err != nil {
			respondInternalError(c, err, "save pinned sources")
			return
		}
		changed = append(changed, "pinned sources")
	}
	if req.DisabledSources != nil {
		if err := mc.settings.SetDisabledSources(ctx, req.DisabledSources); err != nil {
			respondInternalError(c, err, "save disabled sources")
			return
		}
		changed = append(changed, "disabled sources")
	}
	if req.Languages != nil {
		if err := mc.settings.SetEnabledLanguages(ctx, req.Languages); err != nil {
			respondInternalError(c, err, "save languages")
			return
		}
		changed = append(changed, "languages")
	}

	if len(changed) > 0 && mc.auditor != nil {
		mc.auditor.LogSettings("migration_settings", "Updated "+strings.Join(changed, ", "), c.ClientIP(), c.Request.UserAgent())
	}
	c.JSON(http.StatusOK, mc.settingsResponse(ctx))
}

// GetSources handles GET /api/migration/sources
func (mc *MigrationController) GetSources(c *gin.Context) {
	respondSources(c, mc.selector.Sources(c.Request.Context()), nil)
}

type toggleSourceRequest struct {
	SourceID int64 `json:"source_id" binding:"required"`
}

// ToggleSource handles POST /api/migration/sources/toggle
func (mc *MigrationController) ToggleSource(c *gin.Context) {
	var req toggleSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "source_id is required")
		return
	}
	list, err := mc.selector.Toggle(c.Request.Context(), req.SourceID)
	respondSources(c, list, err)
}

type selectSourcesRequest struct {
	Config migration.SelectionConfig `json:"config" binding:"required"`
}

// SelectSources handles POST /api/migration/sources/select with config
// all, none, pinned or enabled.
func (mc *MigrationController) SelectSources(c *gin.Context) {
	var req selectSourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "config is required")
		return
	}
	switch req.Config {
	case migration.SelectAll, migration.SelectNone, migration.SelectPinned, migration.SelectEnabled:
	default:
		respondBadRequest(c, "config must be all, none, pinned or enabled")
		return
	}
	list, err := mc.selector.Select(c.Request.Context(), req.Config)
	respondSources(c, list, err)
}

type moveSourceRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// MoveSource handles POST /api/migration/sources/move
func (mc *MigrationController) MoveSource(c *gin.Context) {
	var req moveSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "from and to are required")
		return
	}
	list, err := mc.selector.Move(c.Request.Context(), *req.From, *req.To)
	respondSources(c, list, err)
}

func respondSources(c *gin.Context, list []migration.MigrationSource, err error) {
	if err != nil {
		respondDomainError(c, err, "migration sources")
		return
	}
	if list == nil {
		list = []migration.MigrationSource{}
	}
	c.JSON(http.StatusOK, gin.H{"sources": list})
}

type searchRequest struct {
	Title     string  `json:"title" binding:"required"`
	SourceIDs []int64 `json:"source_ids"`
}

// Search handles POST /api/migration/search. Without source_ids the
// selected migration sources are searched in their saved order.
func (mc *MigrationController) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title is required")
		return
	}
	ids := req.SourceIDs
	if len(ids) == 0 {
		ids = mc.selector.SelectedIDs(c.Request.Context())
	}
	match, err := mc.search.Search(c.Request.Context(), req.Title, ids)
	if err != nil {
		respondDomainError(c, err, "smart search")
		return
	}
	c.JSON(http.StatusOK, match)
}

type migrateRequest struct {
	flagsRequest
	OldID   int64 `json:"old_id" binding:"required"`
	NewID   int64 `json:"new_id" binding:"required"`
	Replace bool  `json:"replace"`
}

// Migrate handles POST /api/migration
func (mc *MigrationController) Migrate(c *gin.Context) {
	var req migrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "old_id and new_id are required")
		return
	}
	flags, err := req.resolve(c.Request.Context(), mc.settings)
	if err != nil {
		respondDomainError(c, err, "parse flags")
		return
	}
	result, err := mc.migrator.Migrate(c.Request.Context(), req.OldID, req.NewID, flags, req.Replace)
	if err != nil {
		respondDomainError(c, err, "migrate manga")
		return
	}
	c.JSON(http.StatusOK, result)
}

type migrateSourceRequest struct {
	flagsRequest
	Replace bool `json:"replace"`
	Async   bool `json:"async"`
}

// MigrateSource handles POST /api/migration/source/:id. With async set the
// batch keeps running after the response; its progress is served by
// GetSourceMigrationStatus.
func (mc *MigrationController) MigrateSource(c *gin.Context) {
	sourceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req migrateSourceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}
	flags, err := req.resolve(c.Request.Context(), mc.settings)
	if err != nil {
		respondDomainError(c, err, "parse flags")
		return
	}

	if req.Async {
		ctx := context.WithoutCancel(c.Request.Context())
		go func() {
			result, err := mc.batch.MigrateSource(ctx, sourceID, flags, req.Replace)
			mc.remember(result, err)
		}()
		respondAccepted(c, "source migration started", gin.H{"source_id": sourceID, "flags": flags})
		return
	}

	result, err := mc.batch.MigrateSource(c.Request.Context(), sourceID, flags, req.Replace)
	mc.remember(result, err)
	if err != nil {
		respondDomainError(c, err, "migrate source")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (mc *MigrationController) remember(result migration.BatchResult, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if errors.Is(err, migration.ErrBatchRunning) {
		return
	}
	mc.lastBatch = &result
	mc.lastError = ""
	if err != nil {
		mc.lastError = err.Error()
	}
}

// GetSourceMigrationStatus handles GET /api/migration/source/status
func (mc *MigrationController) GetSourceMigrationStatus(c *gin.Context) {
	resp := gin.H{}
	if mc.progress != nil {
		progress, err := mc.progress.GetSyncProgress(c.Request.Context())
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			respondInternalError(c, err, "load migration progress")
			return
		default:
			resp["progress"] = progress
		}
	}
	mc.mu.Lock()
	if mc.lastBatch != nil {
		resp["last_result"] = mc.lastBatch
	}
	if mc.lastError != "" {
		resp["last_error"] = mc.lastError
	}
	mc.mu.Unlock()
	c.JSON(http.StatusOK, resp)
}
