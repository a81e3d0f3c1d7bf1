package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/utils"
)

type fakeFavorites struct {
	bySource map[int64][]entities.Manga
	err      error
}

func (f *fakeFavorites) GetFavoritesBySourceID(ctx context.Context, sourceID int64) ([]entities.Manga, error) {
	return f.bySource[sourceID], f.err
}

type fakeSearcher struct {
	matches map[string]Match
	errs    map[string]error
	targets [][]int64
}

func (f *fakeSearcher) Search(ctx context.Context, title string, sourceIDs []int64) (Match, error) {
	f.targets = append(f.targets, sourceIDs)
	if err, ok := f.errs[title]; ok {
		return Match{}, err
	}
	if m, ok := f.matches[title]; ok {
		return m, nil
	}
	return Match{}, ErrNoMatch
}

type fakeSelected []int64

func (f fakeSelected) SelectedIDs(ctx context.Context) []int64 {
	return append([]int64(nil), f...)
}

type migrateCall struct {
	oldID, newID int64
	flags        Flags
	replace      bool
}

type fakeSingleMigrator struct {
	calls []migrateCall
	fail  map[int64]error
}

func (f *fakeSingleMigrator) Migrate(ctx context.Context, oldID, newID int64, flags Flags, replace bool) (Result, error) {
	f.calls = append(f.calls, migrateCall{oldID, newID, flags, replace})
	if err := f.fail[oldID]; err != nil {
		return Result{}, err
	}
	return Result{OldID: oldID, NewID: newID}, nil
}

type fakeProgress struct {
	running   bool
	started   int
	updates   []string
	completed bool
	succeeded bool
	message   string
}

func (f *fakeProgress) IsSyncRunning(ctx context.Context) (bool, error) { return f.running, nil }

func (f *fakeProgress) StartSync(ctx context.Context, totalItems int) error {
	f.started = totalItems
	return nil
}

func (f *fakeProgress) UpdateProgress(ctx context.Context, processed, succeeded, failed, skipped int, currentItem string) error {
	f.updates = append(f.updates, currentItem)
	return nil
}

func (f *fakeProgress) CompleteSync(ctx context.Context, succeeded bool, errorMsg string) error {
	f.completed = true
	f.succeeded = succeeded
	f.message = errorMsg
	return nil
}

func favorite(id int64, title string) entities.Manga {
	m := entities.NewManga()
	m.ID = id
	m.Source = 5
	m.URL = title
	m.OgTitle = title
	m.Favorite = true
	return m
}

func TestMigrateSource(t *testing.T) {
	favorites := &fakeFavorites{bySource: map[int64][]entities.Manga{
		5: {favorite(1, "Berserk"), favorite(2, "Claymore"), favorite(3, "Dorohedoro")},
	}}
	search := &fakeSearcher{
		matches: map[string]Match{
			"Berserk":    {Manga: entities.Manga{ID: 11}, SourceID: 7, Score: 1},
			"Dorohedoro": {Manga: entities.Manga{ID: 13}, SourceID: 8, Score: 0.9},
		},
	}
	migrator := &fakeSingleMigrator{fail: map[int64]error{3: errors.New("write failed")}}
	progress := &fakeProgress{}

	sm := NewSourceMigrator(favorites, search, fakeSelected{5, 7, 8}, migrator, utils.NewTestLogger())
	sm.SetProgressTracker(progress)

	result, err := sm.MigrateSource(context.Background(), 5, FlagChapters|FlagCategories, true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Migrated)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Items, 3)
	assert.Equal(t, ItemMigrated, result.Items[0].Status)
	assert.Equal(t, int64(11), result.Items[0].NewMangaID)
	assert.Equal(t, int64(7), result.Items[0].NewSource)
	assert.Equal(t, ItemSkipped, result.Items[1].Status)
	assert.Equal(t, ItemFailed, result.Items[2].Status)
	assert.Equal(t, "write failed", result.Items[2].Error)

	for _, targets := range search.targets {
		assert.Equal(t, []int64{7, 8}, targets, "the migrated source is never a target")
	}
	require.Len(t, migrator.calls, 2)
	assert.Equal(t, migrateCall{1, 11, FlagChapters | FlagCategories, true}, migrator.calls[0])

	assert.Equal(t, 3, progress.started)
	assert.Equal(t, []string{"Berserk", "Claymore", "Dorohedoro"}, progress.updates)
	assert.True(t, progress.completed)
	assert.True(t, progress.succeeded)
	assert.Equal(t, "1 of 3 entries failed", progress.message)
}

func TestMigrateSource_SearchErrorMarksFailed(t *testing.T) {
	favorites := &fakeFavorites{bySource: map[int64][]entities.Manga{5: {favorite(1, "Berserk")}}}
	search := &fakeSearcher{errs: map[string]error{"Berserk": errors.New("db down")}}
	migrator := &fakeSingleMigrator{}

	sm := NewSourceMigrator(favorites, search, fakeSelected{7}, migrator, utils.NewTestLogger())
	result, err := sm.MigrateSource(context.Background(), 5, DefaultFlags, false)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, "db down", result.Items[0].Error)
	assert.Empty(t, migrator.calls)
}

func TestMigrateSource_Refusals(t *testing.T) {
	ctx := context.Background()
	log := utils.NewTestLogger()

	sm := NewSourceMigrator(&fakeFavorites{}, &fakeSearcher{}, fakeSelected{5}, &fakeSingleMigrator{}, log)
	_, err := sm.MigrateSource(ctx, 5, DefaultFlags, true)
	assert.ErrorIs(t, err, ErrNoTargetSources)

	sm = NewSourceMigrator(&fakeFavorites{}, &fakeSearcher{}, fakeSelected{7}, &fakeSingleMigrator{}, log)
	sm.SetProgressTracker(&fakeProgress{running: true})
	_, err = sm.MigrateSource(ctx, 5, DefaultFlags, true)
	assert.ErrorIs(t, err, ErrBatchRunning)

	boom := errors.New("boom")
	sm = NewSourceMigrator(&fakeFavorites{err: boom}, &fakeSearcher{}, fakeSelected{7}, &fakeSingleMigrator{}, log)
	_, err = sm.MigrateSource(ctx, 5, DefaultFlags, true)
	assert.ErrorIs(t, err, boom)
}

func TestMigrateSource_CancelledContext(t *testing.T) {
	favorites := &fakeFavorites{bySource: map[int64][]entities.Manga{5: {favorite(1, "Berserk")}}}
	progress := &fakeProgress{}
	sm := NewSourceMigrator(favorites, &fakeSearcher{}, fakeSelected{7}, &fakeSingleMigrator{}, utils.NewTestLogger())
	sm.SetProgressTracker(progress)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sm.MigrateSource(ctx, 5, DefaultFlags, true)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, progress.completed)
	assert.False(t, progress.succeeded)
}
