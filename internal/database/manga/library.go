package manga

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/database"
	"github.com/mrlokans/mangashelf/internal/entities"
)

var libraryTables = []string{database.TableMangas, database.TableChapters, database.TableMangasCategories}

type chapterStats struct {
	MangaID        int64
	Total          int64
	ReadCount      int64
	BookmarkCount  int64
	LatestUpload   int64
	ChapterFetched int64
}

type categoryLink struct {
	MangaID    int64
	CategoryID int64
}

// GetLibraryManga returns one row per (favorite, category) pair. Favorites
// without a category land in the default category.
func (r *Repository) GetLibraryManga(ctx context.Context) ([]entities.LibraryManga, error) {
	return libraryManga(r.h.DB(ctx))
}

func (r *Repository) SubscribeLibraryManga(ctx context.Context) <-chan []entities.LibraryManga {
	return database.Subscribe(ctx, r.h, libraryTables, libraryManga)
}

func libraryManga(db *gorm.DB) ([]entities.LibraryManga, error) {
	var favorites []entities.Manga
	if err := db.Where("favorite = ?", true).Order("title ASC").Find(&favorites).Error; err != nil {
		return nil, err
	}
	if len(favorites) == 0 {
		return []entities.LibraryManga{}, nil
	}

	ids := make([]int64, len(favorites))
	for i, m := range favorites {
		ids[i] = m.ID
	}

	stats, err := statsByManga(db, ids)
	if err != nil {
		return nil, err
	}

	var links []categoryLink
	if err := db.Model(&entities.MangaCategory{}).
		Select("manga_id, category_id").
		Where("manga_id IN ?", ids).
		Order("category_id ASC").
		Scan(&links).Error; err != nil {
		return nil, err
	}
	categories := make(map[int64][]int64)
	for _, link := range links {
		categories[link.MangaID] = append(categories[link.MangaID], link.CategoryID)
	}

	library := make([]entities.LibraryManga, 0, len(favorites))
	for _, m := range favorites {
		s := stats[m.ID]
		categoryIDs := categories[m.ID]
		if len(categoryIDs) == 0 {
			categoryIDs = []int64{entities.DefaultCategoryID}
		}
		for _, categoryID := range categoryIDs {
			library = append(library, entities.LibraryManga{
				Manga:          m,
				CategoryID:     categoryID,
				TotalChapters:  s.Total,
				ReadCount:      s.ReadCount,
				BookmarkCount:  s.BookmarkCount,
				LatestUpload:   s.LatestUpload,
				ChapterFetched: s.ChapterFetched,
			})
		}
	}
	return library, nil
}

func statsByManga(db *gorm.DB, ids []int64) (map[int64]chapterStats, error) {
	var rows []chapterStats
	err := db.Model(&entities.Chapter{}).
		Select(`manga_id,
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN read THEN 1 ELSE 0 END), 0) AS read_count,
			COALESCE(SUM(CASE WHEN bookmark THEN 1 ELSE 0 END), 0) AS bookmark_count,
			COALESCE(MAX(date_upload), 0) AS latest_upload,
			COALESCE(MAX(date_fetch), 0) AS chapter_fetched`).
		Where("manga_id IN ?", ids).
		Group("manga_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[int64]chapterStats, len(rows))
	for _, row := range rows {
		stats[row.MangaID] = row
	}
	return stats, nil
}

// GetDuplicateLibraryManga returns other favorites whose displayed title
// contains title, ignoring case.
func (r *Repository) GetDuplicateLibraryManga(ctx context.Context, id int64, title string) ([]entities.DuplicateManga, error) {
	db := r.h.DB(ctx)

	var mangas []entities.Manga
	err := db.
		Where("favorite = ? AND id != ?", true, id).
		Where("LOWER(COALESCE(custom_title, title)) LIKE '%' || LOWER(?) || '%'", title).
		Order("title ASC").
		Find(&mangas).Error
	if err != nil || len(mangas) == 0 {
		return nil, err
	}

	ids := make([]int64, len(mangas))
	for i, m := range mangas {
		ids[i] = m.ID
	}
	stats, err := statsByManga(db, ids)
	if err != nil {
		return nil, err
	}

	duplicates := make([]entities.DuplicateManga, len(mangas))
	for i, m := range mangas {
		duplicates[i] = entities.DuplicateManga{Manga: m, ChapterCount: stats[m.ID].Total}
	}
	return duplicates, nil
}
