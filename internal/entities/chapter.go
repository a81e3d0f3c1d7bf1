package entities

type Chapter struct {
	ID             int64   `gorm:"primaryKey" json:"id"`
	MangaID        int64   `gorm:"not null;uniqueIndex:idx_chapters_manga_url,priority:1;index" json:"manga_id"`
	URL            string  `gorm:"not null;uniqueIndex:idx_chapters_manga_url,priority:2" json:"url"`
	Name           string  `json:"name"`
	Scanlator      *string `json:"scanlator"`
	Read           bool    `gorm:"not null;default:false" json:"read"`
	Bookmark       bool    `gorm:"not null;default:false" json:"bookmark"`
	LastPageRead   int64   `json:"last_page_read"`
	ChapterNumber  float64 `json:"chapter_number"`
	SourceOrder    int64   `json:"source_order"`
	DateFetch      int64   `json:"date_fetch"`
	DateUpload     int64   `json:"date_upload"`
	LastModifiedAt int64   `json:"last_modified_at"`
	Version        int64   `json:"version"`
}

func (Chapter) TableName() string {
	return "chapters"
}

// IsRecognizedNumber reports whether the source gave the chapter a usable number.
func (c Chapter) IsRecognizedNumber() bool {
	return c.ChapterNumber >= 0
}

// ChapterUpdate is a sparse patch for a stored Chapter.
type ChapterUpdate struct {
	ID           int64            `json:"id"`
	Read         Optional[bool]   `json:"read,omitzero"`
	Bookmark     Optional[bool]   `json:"bookmark,omitzero"`
	LastPageRead Optional[int64]  `json:"last_page_read,omitzero"`
	DateFetch    Optional[int64]  `json:"date_fetch,omitzero"`
	Name         Optional[string] `json:"name,omitzero"`
}

func (u ChapterUpdate) Apply(c Chapter) Chapter {
	c.Read = u.Read.Or(c.Read)
	c.Bookmark = u.Bookmark.Or(c.Bookmark)
	c.LastPageRead = u.LastPageRead.Or(c.LastPageRead)
	c.DateFetch = u.DateFetch.Or(c.DateFetch)
	c.Name = u.Name.Or(c.Name)
	return c
}
