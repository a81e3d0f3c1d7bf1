package entities

// DefaultCategoryID is the implicit category of mangas with no assignment.
const DefaultCategoryID int64 = 0

type Category struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null;uniqueIndex" json:"name"`
	Order int64  `gorm:"column:sort" json:"order"`
	Flags int64  `json:"flags"`
}

func (Category) TableName() string {
	return "categories"
}

type MangaCategory struct {
	MangaID    int64 `gorm:"primaryKey;autoIncrement:false" json:"manga_id"`
	CategoryID int64 `gorm:"primaryKey;autoIncrement:false;index" json:"category_id"`
}

func (MangaCategory) TableName() string {
	return "mangas_categories"
}
