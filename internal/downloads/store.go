// Package downloads manages chapters downloaded to disk, laid out as
// <dir>/<source id>/<manga title>/<chapter name>. Title and chapter segments
// are sanitized with utils.SanitizeFilename.
package downloads

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/mrlokans/mangashelf/internal/utils"
)

// Store resolves and manipulates download directories.
type Store struct {
	dir string
}

// NewStore creates the download root if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// MangaDir is where the chapters of a manga are stored, whether or not it exists.
func (s *Store) MangaDir(sourceID int64, title string) string {
	return filepath.Join(s.dir, strconv.FormatInt(sourceID, 10), utils.SanitizeFilename(title))
}

func (s *Store) ChapterDir(sourceID int64, title, chapterName string) string {
	return filepath.Join(s.MangaDir(sourceID, title), utils.SanitizeFilename(chapterName))
}

func (s *Store) IsChapterDownloaded(sourceID int64, title, chapterName string) bool {
	info, err := os.Stat(s.ChapterDir(sourceID, title, chapterName))
	return err == nil && info.IsDir()
}

// DownloadedChapters lists the chapter directories of a manga, sorted by name.
// A manga without downloads yields an empty list.
func (s *Store) DownloadedChapters(sourceID int64, title string) ([]string, error) {
	entries, err := os.ReadDir(s.MangaDir(sourceID, title))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	chapters := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			chapters = append(chapters, entry.Name())
		}
	}
	sort.Strings(chapters)
	return chapters, nil
}

// DeleteManga removes every downloaded chapter of a manga.
func (s *Store) DeleteManga(sourceID int64, title string) error {
	if err := os.RemoveAll(s.MangaDir(sourceID, title)); err != nil {
		return fmt.Errorf("delete downloads of %q: %w", title, err)
	}
	return nil
}

// DeleteChapters removes the named chapters of a manga. Missing chapters are ignored.
func (s *Store) DeleteChapters(sourceID int64, title string, chapterNames []string) error {
	for _, name := range chapterNames {
		if err := os.RemoveAll(s.ChapterDir(sourceID, title, name)); err != nil {
			return fmt.Errorf("delete chapter %q of %q: %w", name, title, err)
		}
	}
	return nil
}

// RenameManga moves the downloads of a manga to its new title. It is a no-op
// when nothing was downloaded; an existing target directory is an error.
func (s *Store) RenameManga(sourceID int64, oldTitle, newTitle string) error {
	from := s.MangaDir(sourceID, oldTitle)
	to := s.MangaDir(sourceID, newTitle)
	if from == to {
		return nil
	}
	if _, err := os.Stat(from); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("rename downloads of %q: %s already exists", oldTitle, to)
	}
	return os.Rename(from, to)
}
