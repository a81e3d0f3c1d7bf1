package entities

import "time"

// MangaStatus mirrors the publication status reported by a source.
type MangaStatus int64

const (
	MangaStatusUnknown            MangaStatus = 0
	MangaStatusOngoing            MangaStatus = 1
	MangaStatusCompleted          MangaStatus = 2
	MangaStatusLicensed           MangaStatus = 3
	MangaStatusPublishingFinished MangaStatus = 4
	MangaStatusCancelled          MangaStatus = 5
	MangaStatusOnHiatus           MangaStatus = 6
)

type UpdateStrategy int

const (
	UpdateStrategyAlwaysUpdate  UpdateStrategy = 0
	UpdateStrategyOnlyFetchOnce UpdateStrategy = 1
)

// TriState is the state of a three-way chapter filter.
type TriState int

const (
	TriStateDisabled TriState = iota
	TriStateEnabledIs
	TriStateEnabledNot
)

// Chapter flag bits stored in Manga.ChapterFlags.
const (
	ShowAll int64 = 0x00000000

	ChapterSortDesc    int64 = 0x00000000
	ChapterSortAsc     int64 = 0x00000001
	ChapterSortDirMask int64 = 0x00000001

	ChapterShowUnread int64 = 0x00000002
	ChapterShowRead   int64 = 0x00000004
	ChapterUnreadMask int64 = 0x00000006

	ChapterShowDownloaded    int64 = 0x00000008
	ChapterShowNotDownloaded int64 = 0x00000010
	ChapterDownloadedMask    int64 = 0x00000018

	ChapterShowBookmarked    int64 = 0x00000020
	ChapterShowNotBookmarked int64 = 0x00000040
	ChapterBookmarkedMask    int64 = 0x00000060

	ChapterSortingSource     int64 = 0x00000000
	ChapterSortingNumber     int64 = 0x00000100
	ChapterSortingUploadDate int64 = 0x00000200
	ChapterSortingAlphabet   int64 = 0x00000300
	ChapterSortingMask       int64 = 0x00000300

	ChapterDisplayName   int64 = 0x00000000
	ChapterDisplayNumber int64 = 0x00100000
	ChapterDisplayMask   int64 = 0x00100000
)

// Manga is a library entry keyed by (url, source). The og* columns hold what the
// source reported; the custom* columns hold user overrides and win in getters.
// All timestamps are unix milliseconds, 0 meaning unset.
type Manga struct {
	ID                int64  `gorm:"primaryKey" json:"id"`
	Source            int64  `gorm:"not null;uniqueIndex:idx_mangas_url_source,priority:2;index" json:"source"`
	URL               string `gorm:"not null;uniqueIndex:idx_mangas_url_source,priority:1" json:"url"`
	Favorite          bool   `gorm:"index;not null;default:false" json:"favorite"`
	LastUpdate        int64  `json:"last_update"`
	NextUpdate        int64  `json:"next_update"`
	FetchInterval     int    `json:"fetch_interval"`
	DateAdded         int64  `json:"date_added"`
	ViewerFlags       int64  `json:"viewer_flags"`
	ChapterFlags      int64  `json:"chapter_flags"`
	CoverLastModified int64  `json:"cover_last_modified"`

	OgTitle        string      `gorm:"column:title;not null" json:"og_title"`
	OgArtist       *string     `gorm:"column:artist" json:"og_artist"`
	OgAuthor       *string     `gorm:"column:author" json:"og_author"`
	OgDescription  *string     `gorm:"column:description;type:text" json:"og_description"`
	OgGenre        []string    `gorm:"column:genre;serializer:json" json:"og_genre"`
	OgStatus       MangaStatus `gorm:"column:status" json:"og_status"`
	OgThumbnailURL *string     `gorm:"column:thumbnail_url" json:"og_thumbnail_url"`

	CustomTitle        *string      `json:"custom_title"`
	CustomArtist       *string      `json:"custom_artist"`
	CustomAuthor       *string      `json:"custom_author"`
	CustomDescription  *string      `gorm:"type:text" json:"custom_description"`
	CustomGenre        []string     `gorm:"serializer:json" json:"custom_genre"`
	CustomStatus       *MangaStatus `json:"custom_status"`
	CustomThumbnailURL *string      `json:"custom_thumbnail_url"`

	UpdateStrategy     UpdateStrategy `json:"update_strategy"`
	Initialized        bool           `gorm:"not null;default:false" json:"initialized"`
	LastModifiedAt     int64          `json:"last_modified_at"`
	FavoriteModifiedAt *int64         `json:"favorite_modified_at"`
	Version            int64          `json:"version"`
	Notes              string         `gorm:"type:text" json:"notes"`
}

func (Manga) TableName() string {
	return "mangas"
}

// NewManga returns an empty record with no identity yet.
func NewManga() Manga {
	return Manga{UpdateStrategy: UpdateStrategyAlwaysUpdate}
}

func (m Manga) Title() string {
	if m.CustomTitle != nil {
		return *m.CustomTitle
	}
	return m.OgTitle
}

func (m Manga) Author() *string {
	if m.CustomAuthor != nil {
		return m.CustomAuthor
	}
	return m.OgAuthor
}

func (m Manga) Artist() *string {
	if m.CustomArtist != nil {
		return m.CustomArtist
	}
	return m.OgArtist
}

func (m Manga) Description() *string {
	if m.CustomDescription != nil {
		return m.CustomDescription
	}
	return m.OgDescription
}

func (m Manga) Genre() []string {
	if m.CustomGenre != nil {
		return m.CustomGenre
	}
	return m.OgGenre
}

func (m Manga) Status() MangaStatus {
	if m.CustomStatus != nil {
		return *m.CustomStatus
	}
	return m.OgStatus
}

func (m Manga) ThumbnailURL() *string {
	if m.CustomThumbnailURL != nil {
		return m.CustomThumbnailURL
	}
	return m.OgThumbnailURL
}

// ExpectedNextUpdate is nil for completed series.
func (m Manga) ExpectedNextUpdate() *time.Time {
	if m.Status() == MangaStatusCompleted {
		return nil
	}
	t := time.UnixMilli(m.NextUpdate)
	return &t
}

func (m Manga) Sorting() int64 {
	return m.ChapterFlags & ChapterSortingMask
}

func (m Manga) DisplayMode() int64 {
	return m.ChapterFlags & ChapterDisplayMask
}

func (m Manga) SortDescending() bool {
	return m.ChapterFlags&ChapterSortDirMask == ChapterSortDesc
}

func (m Manga) UnreadFilter() TriState {
	return triState(m.ChapterFlags&ChapterUnreadMask, ChapterShowUnread, ChapterShowRead)
}

func (m Manga) DownloadedFilter() TriState {
	return triState(m.ChapterFlags&ChapterDownloadedMask, ChapterShowDownloaded, ChapterShowNotDownloaded)
}

func (m Manga) BookmarkedFilter() TriState {
	return triState(m.ChapterFlags&ChapterBookmarkedMask, ChapterShowBookmarked, ChapterShowNotBookmarked)
}

func triState(raw, is, not int64) TriState {
	switch raw {
	case is:
		return TriStateEnabledIs
	case not:
		return TriStateEnabledNot
	default:
		return TriStateDisabled
	}
}

// HasCustomThumbnail reports whether the user replaced the source cover URL.
func (m Manga) HasCustomThumbnail() bool {
	return m.CustomThumbnailURL != nil
}

// LibraryManga is a favorite together with its chapter counters.
type LibraryManga struct {
	Manga          Manga `json:"manga"`
	CategoryID     int64 `json:"category_id"`
	TotalChapters  int64 `json:"total_chapters"`
	ReadCount      int64 `json:"read_count"`
	BookmarkCount  int64 `json:"bookmark_count"`
	LatestUpload   int64 `json:"latest_upload"`
	ChapterFetched int64 `json:"chapter_fetched_at"`
}

func (l LibraryManga) UnreadCount() int64 {
	return l.TotalChapters - l.ReadCount
}

// DuplicateManga is a library entry sharing a title with another entry.
type DuplicateManga struct {
	Manga         Manga `json:"manga"`
	ChapterCount  int64 `json:"chapter_count"`
	TitleDistance int   `json:"title_distance"`
}

// SourceCount pairs a source id with how many mangas it holds.
type SourceCount struct {
	SourceID int64 `json:"source_id"`
	Count    int64 `json:"count"`
}
