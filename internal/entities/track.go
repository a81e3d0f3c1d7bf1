package entities

// Track links a manga to an entry on an external tracking service.
type Track struct {
	ID              int64   `gorm:"primaryKey" json:"id"`
	MangaID         int64   `gorm:"not null;uniqueIndex:idx_tracks_manga_tracker,priority:1" json:"manga_id"`
	TrackerID       int64   `gorm:"not null;uniqueIndex:idx_tracks_manga_tracker,priority:2" json:"tracker_id"`
	RemoteID        int64   `json:"remote_id"`
	LibraryID       *int64  `json:"library_id"`
	Title           string  `json:"title"`
	LastChapterRead float64 `json:"last_chapter_read"`
	TotalChapters   int64   `json:"total_chapters"`
	Status          int64   `json:"status"`
	Score           float64 `json:"score"`
	RemoteURL       string  `json:"remote_url"`
	StartDate       int64   `json:"start_date"`
	FinishDate      int64   `json:"finish_date"`
}

func (Track) TableName() string {
	return "manga_sync"
}
