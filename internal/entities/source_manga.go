package entities

import "strings"

// SourceManga is a manga as a catalogue source reports it.
type SourceManga struct {
	URL            string         `json:"url"`
	Title          string         `json:"title"`
	Artist         *string        `json:"artist,omitempty"`
	Author         *string        `json:"author,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Genre          string         `json:"genre,omitempty"`
	Status         MangaStatus    `json:"status"`
	ThumbnailURL   *string        `json:"thumbnail_url,omitempty"`
	UpdateStrategy UpdateStrategy `json:"update_strategy"`
	Initialized    bool           `json:"initialized"`
}

// Genres splits the comma separated genre string, dropping blanks and duplicates.
func (s SourceManga) Genres() []string {
	if strings.TrimSpace(s.Genre) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var genres []string
	for _, g := range strings.Split(s.Genre, ",") {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}
	return genres
}

// ToDomainManga maps the network model onto a Manga without identity.
func (s SourceManga) ToDomainManga(sourceID int64) Manga {
	m := NewManga()
	m.URL = s.URL
	m.Source = sourceID
	m.OgTitle = s.Title
	m.OgArtist = s.Artist
	m.OgAuthor = s.Author
	m.OgDescription = s.Description
	m.OgGenre = s.Genres()
	m.OgStatus = s.Status
	m.OgThumbnailURL = s.ThumbnailURL
	m.UpdateStrategy = s.UpdateStrategy
	m.Initialized = s.Initialized
	return m
}

// MangasPage is one page of catalogue results.
type MangasPage struct {
	Mangas      []SourceManga `json:"mangas"`
	HasNextPage bool          `json:"has_next_page"`
}

// SourceChapter is a chapter as a catalogue source reports it.
type SourceChapter struct {
	URL           string  `json:"url"`
	Name          string  `json:"name"`
	DateUpload    int64   `json:"date_upload"`
	ChapterNumber float64 `json:"chapter_number"`
	Scanlator     *string `json:"scanlator,omitempty"`
}
