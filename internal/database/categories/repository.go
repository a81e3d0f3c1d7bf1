// Package categories provides database operations for library categories.
package categories

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/mangashelf/internal/database"
	"github.com/mrlokans/mangashelf/internal/entities"
)

// Repository handles all category database operations.
type Repository struct {
	h *database.Handler
}

// NewRepository creates a new categories repository.
func NewRepository(h *database.Handler) *Repository {
	return &Repository{h: h}
}

func (r *Repository) GetAll(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.h.DB(ctx).Order("sort ASC, name ASC").Find(&categories).Error
	return categories, err
}

// Create adds a category at the end of the current order.
func (r *Repository) Create(ctx context.Context, name string) (*entities.Category, error) {
	category := entities.Category{Name: name}
	err := r.h.AwaitInTransaction(ctx, func(tx *gorm.DB) error {
		var maxOrder int64
		if err := tx.Model(&entities.Category{}).Select("COALESCE(MAX(sort), -1)").Row().Scan(&maxOrder); err != nil {
			return err
		}
		category.Order = maxOrder + 1
		return tx.Create(&category).Error
	}, database.TableCategories)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategoriesByMangaID returns the categories a manga is assigned to.
func (r *Repository) GetCategoriesByMangaID(ctx context.Context, mangaID int64) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.h.DB(ctx).
		Joins("JOIN mangas_categories ON mangas_categories.category_id = categories.id").
		Where("mangas_categories.manga_id = ?", mangaID).
		Order("categories.sort ASC").
		Find(&categories).Error
	return categories, err
}
