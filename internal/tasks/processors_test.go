package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/library"
	"github.com/mrlokans/mangashelf/internal/utils"
)

type fakeRunner struct {
	report library.Report
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context) (library.Report, error) {
	f.calls++
	return f.report, f.err
}

type fakeRefresher struct {
	ids []int64
	err error
}

func (f *fakeRefresher) RefreshMangaByID(ctx context.Context, id int64) ([]entities.Chapter, error) {
	f.ids = append(f.ids, id)
	return nil, f.err
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 4, nil
}

func TestLibraryUpdateProcessor(t *testing.T) {
	ctx := context.Background()
	log := utils.NewTestLogger()

	runner := &fakeRunner{report: library.Report{Updated: 2}}
	assert.NoError(t, LibraryUpdateProcessor(runner, log)(ctx, LibraryUpdateTask{Trigger: "manual"}))
	assert.Equal(t, 1, runner.calls)

	busy := &fakeRunner{err: library.ErrUpdateRunning}
	assert.NoError(t, LibraryUpdateProcessor(busy, log)(ctx, LibraryUpdateTask{}))

	boom := errors.New("boom")
	failing := &fakeRunner{err: boom}
	assert.ErrorIs(t, LibraryUpdateProcessor(failing, log)(ctx, LibraryUpdateTask{}), boom)

	assert.Error(t, LibraryUpdateProcessor(nil, log)(ctx, LibraryUpdateTask{}))
}

func TestRefreshMangaProcessor(t *testing.T) {
	ctx := context.Background()
	log := utils.NewTestLogger()

	refresher := &fakeRefresher{}
	assert.NoError(t, RefreshMangaProcessor(refresher, log)(ctx, RefreshMangaTask{MangaID: 7}))
	assert.Equal(t, []int64{7}, refresher.ids)

	boom := errors.New("boom")
	assert.ErrorIs(t, RefreshMangaProcessor(&fakeRefresher{err: boom}, log)(ctx, RefreshMangaTask{MangaID: 7}), boom)
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	ctx := context.Background()
	log := utils.NewTestLogger()

	cleaner := &fakeCleaner{}
	assert.NoError(t, CleanupAuditEventsProcessor(cleaner, log)(ctx, CleanupAuditEventsTask{RetentionDays: 10}))
	assert.Equal(t, 10*24*time.Hour, cleaner.retention)

	assert.NoError(t, CleanupAuditEventsProcessor(cleaner, log)(ctx, CleanupAuditEventsTask{}))
	assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)

	assert.Error(t, CleanupAuditEventsProcessor(nil, log)(ctx, CleanupAuditEventsTask{}))
}
