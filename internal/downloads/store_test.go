package downloads

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "downloads"))
	require.NoError(t, err)
	return store
}

func download(t *testing.T, store *Store, sourceID int64, title string, chapters ...string) {
	t.Helper()
	for _, chapter := range chapters {
		dir := store.ChapterDir(sourceID, title, chapter)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "001.jpg"), []byte("page"), 0644))
	}
}

func TestStore_Layout(t *testing.T) {
	store := setupStore(t)

	assert.Equal(t, filepath.Join(store.Dir(), "12", "Re_Zero"), store.MangaDir(12, "Re:Zero"))
	assert.Equal(t, filepath.Join(store.Dir(), "12", "Re_Zero", "Ch. 1_ Start"), store.ChapterDir(12, "Re:Zero", "Ch. 1? Start"))
}

func TestStore_DownloadedChapters(t *testing.T) {
	store := setupStore(t)
	download(t, store, 1, "Berserk", "Ch. 2", "Ch. 1")

	chapters, err := store.DownloadedChapters(1, "Berserk")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ch. 1", "Ch. 2"}, chapters)
	assert.True(t, store.IsChapterDownloaded(1, "Berserk", "Ch. 1"))
	assert.False(t, store.IsChapterDownloaded(1, "Berserk", "Ch. 3"))

	none, err := store.DownloadedChapters(2, "Berserk")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_DeleteManga(t *testing.T) {
	store := setupStore(t)
	download(t, store, 1, "Berserk", "Ch. 1")
	download(t, store, 2, "Berserk", "Ch. 1")

	require.NoError(t, store.DeleteManga(1, "Berserk"))

	assert.NoDirExists(t, store.MangaDir(1, "Berserk"))
	assert.DirExists(t, store.MangaDir(2, "Berserk"))
	assert.NoError(t, store.DeleteManga(3, "Nothing"))
}

func TestStore_DeleteChapters(t *testing.T) {
	store := setupStore(t)
	download(t, store, 1, "Berserk", "Ch. 1", "Ch. 2")

	require.NoError(t, store.DeleteChapters(1, "Berserk", []string{"Ch. 1", "Ch. 9"}))

	chapters, err := store.DownloadedChapters(1, "Berserk")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ch. 2"}, chapters)
}

func TestStore_RenameManga(t *testing.T) {
	store := setupStore(t)
	download(t, store, 1, "Old", "Ch. 1")

	require.NoError(t, store.RenameManga(1, "Old", "New"))
	assert.NoDirExists(t, store.MangaDir(1, "Old"))
	assert.True(t, store.IsChapterDownloaded(1, "New", "Ch. 1"))

	assert.NoError(t, store.RenameManga(1, "Missing", "Other"))

	download(t, store, 1, "Taken", "Ch. 1")
	assert.Error(t, store.RenameManga(1, "New", "Taken"))
}
