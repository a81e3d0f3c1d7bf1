package manga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/database/chapters"
	"github.com/mrlokans/mangashelf/internal/entities"
)

func TestSyncChaptersWithSource_Await(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()
	store := chapters.NewRepository(db.Handler)
	sync := NewSyncChaptersWithSource(store)

	first := fixedNow
	sync.now = func() time.Time { return first }

	m := storeManga(t, repo, remoteManga("/m/1", 1, "Title"))

	added, err := sync.Await(ctx, m, []entities.SourceChapter{
		{URL: "/c/2", Name: "Chapter 2", ChapterNumber: 2},
		{URL: "/c/1", Name: "Chapter 1", ChapterNumber: 1},
		{URL: "/c/1", Name: "Duplicate", ChapterNumber: 1},
	})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	stored, err := store.GetChaptersByMangaID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "/c/2", stored[0].URL)
	assert.Equal(t, first.UnixMilli(), stored[0].DateFetch)

	require.NoError(t, store.UpdateAll(ctx, []entities.ChapterUpdate{
		{ID: stored[1].ID, Read: entities.Some(true)},
	}))

	sync.now = func() time.Time { return first.Add(time.Hour) }
	added, err = sync.Await(ctx, m, []entities.SourceChapter{
		{URL: "/c/3", Name: "Chapter 3", ChapterNumber: 3},
		{URL: "/c/1", Name: "Chapter 1 (renamed)", ChapterNumber: 1},
	})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "/c/3", added[0].URL)

	stored, err = store.GetChaptersByMangaID(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "/c/3", stored[0].URL)
	assert.Equal(t, "/c/1", stored[1].URL)
	assert.Equal(t, "Chapter 1 (renamed)", stored[1].Name)
	assert.True(t, stored[1].Read)
	assert.Equal(t, first.UnixMilli(), stored[1].DateFetch)
}

func TestSyncChaptersWithSource_EmptyList(t *testing.T) {
	db, repo := setupTestDB(t)
	sync := NewSyncChaptersWithSource(chapters.NewRepository(db.Handler))
	m := storeManga(t, repo, remoteManga("/m/1", 1, "Title"))

	_, err := sync.Await(context.Background(), m, nil)
	assert.ErrorIs(t, err, ErrNoChapters)
}
