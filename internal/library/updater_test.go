package library

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/utils"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeFavorites []entities.Manga

func (f fakeFavorites) GetFavorites(ctx context.Context) ([]entities.Manga, error) {
	return f, nil
}

type fakeRefresher struct {
	mu      sync.Mutex
	seen    []int64
	added   map[int64]int
	failing map[int64]error
}

func (f *fakeRefresher) RefreshManga(ctx context.Context, m entities.Manga, manual bool) ([]entities.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, m.ID)
	if err := f.failing[m.ID]; err != nil {
		return nil, err
	}
	return make([]entities.Chapter, f.added[m.ID]), nil
}

type fakeProgress struct {
	mu        sync.Mutex
	running   bool
	total     int
	updates   int
	completed bool
	succeeded bool
}

func (f *fakeProgress) IsSyncRunning(ctx context.Context) (bool, error) { return f.running, nil }

func (f *fakeProgress) StartSync(ctx context.Context, totalItems int) error {
	f.total = totalItems
	return nil
}

func (f *fakeProgress) UpdateProgress(ctx context.Context, processed, succeeded, failed, skipped int, currentItem string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return nil
}

func (f *fakeProgress) CompleteSync(ctx context.Context, succeeded bool, errorMsg string) error {
	f.completed = true
	f.succeeded = succeeded
	return nil
}

type fakeStatus struct {
	status  string
	message string
	count   int
	calls   int
}

func (f *fakeStatus) SetLibraryUpdateStatus(ctx context.Context, status, message string, mangaCount int) error {
	f.calls++
	f.status, f.message, f.count = status, message, mangaCount
	return nil
}

type fakeAudit struct {
	updated, failed int
	calls           int
}

func (f *fakeAudit) LogLibraryUpdate(description string, updated, failed int, err error) {
	f.calls++
	f.updated, f.failed = updated, failed
}

func libraryEntry(id int64, nextUpdate int64, strategy entities.UpdateStrategy, initialized bool) entities.Manga {
	m := entities.NewManga()
	m.ID = id
	m.OgTitle = "Manga"
	m.Favorite = true
	m.NextUpdate = nextUpdate
	m.UpdateStrategy = strategy
	m.Initialized = initialized
	return m
}

func newTestUpdater(favorites fakeFavorites, refresher *fakeRefresher) *Updater {
	u := NewUpdater(favorites, refresher, 2, utils.NewTestLogger())
	u.now = func() time.Time { return fixedNow }
	return u
}

func TestUpdater_Candidates(t *testing.T) {
	past := fixedNow.Add(-time.Hour).UnixMilli()
	future := fixedNow.Add(time.Hour).UnixMilli()
	favorites := fakeFavorites{
		libraryEntry(1, 0, entities.UpdateStrategyAlwaysUpdate, true),
		libraryEntry(2, past, entities.UpdateStrategyAlwaysUpdate, true),
		libraryEntry(3, future, entities.UpdateStrategyAlwaysUpdate, true),
		libraryEntry(4, 0, entities.UpdateStrategyOnlyFetchOnce, true),
		libraryEntry(5, 0, entities.UpdateStrategyOnlyFetchOnce, false),
	}
	u := newTestUpdater(favorites, &fakeRefresher{})

	due, err := u.Candidates(context.Background())
	require.NoError(t, err)

	var ids []int64
	for _, m := range due {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{1, 2, 5}, ids)
}

func TestUpdater_Run(t *testing.T) {
	favorites := fakeFavorites{
		libraryEntry(1, 0, entities.UpdateStrategyAlwaysUpdate, true),
		libraryEntry(2, 0, entities.UpdateStrategyAlwaysUpdate, true),
		libraryEntry(3, 0, entities.UpdateStrategyAlwaysUpdate, true),
		libraryEntry(4, 0, entities.UpdateStrategyOnlyFetchOnce, true),
	}
	refresher := &fakeRefresher{
		added:   map[int64]int{1: 3, 2: 1},
		failing: map[int64]error{3: errors.New("source down")},
	}
	progress := &fakeProgress{}
	status := &fakeStatus{}
	audit := &fakeAudit{}

	u := newTestUpdater(favorites, refresher)
	u.SetProgressTracker(progress)
	u.SetStatusRecorder(status)
	u.SetAuditLogger(audit)

	report, err := u.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, report.NewChapters)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "source down")

	sort.Slice(refresher.seen, func(i, j int) bool { return refresher.seen[i] < refresher.seen[j] })
	assert.Equal(t, []int64{1, 2, 3}, refresher.seen)

	assert.Equal(t, 3, progress.total)
	assert.Equal(t, 3, progress.updates)
	assert.True(t, progress.completed)
	assert.True(t, progress.succeeded)

	assert.Equal(t, StatusPartial, status.status)
	assert.Equal(t, 2, status.count)
	assert.Equal(t, 1, audit.calls)
	assert.Equal(t, 1, audit.failed)
	assert.False(t, u.IsRunning())
}

func TestUpdater_Run_AllSucceed(t *testing.T) {
	status := &fakeStatus{}
	u := newTestUpdater(fakeFavorites{libraryEntry(1, 0, entities.UpdateStrategyAlwaysUpdate, true)}, &fakeRefresher{})
	u.SetStatusRecorder(status)

	report, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, StatusSuccess, status.status)
	assert.Equal(t, "Updated 1 of 1 entries, 0 new chapters", status.message)
}

func TestUpdater_Run_AlreadyRunning(t *testing.T) {
	status := &fakeStatus{}
	refresher := &fakeRefresher{}
	u := newTestUpdater(fakeFavorites{libraryEntry(1, 0, entities.UpdateStrategyAlwaysUpdate, true)}, refresher)
	u.SetProgressTracker(&fakeProgress{running: true})
	u.SetStatusRecorder(status)

	_, err := u.Run(context.Background())
	assert.ErrorIs(t, err, ErrUpdateRunning)
	assert.Empty(t, refresher.seen)
	assert.Zero(t, status.calls)
}

func TestUpdater_Run_Cancelled(t *testing.T) {
	status := &fakeStatus{}
	u := newTestUpdater(fakeFavorites{libraryEntry(1, 0, entities.UpdateStrategyAlwaysUpdate, true)}, &fakeRefresher{})
	u.SetStatusRecorder(status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := u.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, status.status)
}
