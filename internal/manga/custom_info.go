package manga

import (
	"context"
	"slices"
	"strings"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// CustomInfo is the full set of user overrides for one manga. A nil or blank
// value removes the override.
type CustomInfo struct {
	Title        *string               `json:"title"`
	Author       *string               `json:"author"`
	Artist       *string               `json:"artist"`
	Description  *string               `json:"description"`
	Genre        []string              `json:"genre"`
	Status       *entities.MangaStatus `json:"status"`
	ThumbnailURL *string               `json:"thumbnail_url"`
}

// SetCustomInfo stores user overrides for the displayed metadata of a manga.
type SetCustomInfo struct {
	store UpdateStore
}

func NewSetCustomInfo(store UpdateStore) *SetCustomInfo {
	return &SetCustomInfo{store: store}
}

// Await replaces every custom field of m with info. Values equal to what the
// source reports are stored as cleared, so the entry keeps following the source.
func (s *SetCustomInfo) Await(ctx context.Context, m entities.Manga, info CustomInfo) bool {
	return s.store.Update(ctx, CustomInfoUpdate(m, info))
}

// CustomInfoUpdate builds the patch Await applies.
func CustomInfoUpdate(m entities.Manga, info CustomInfo) entities.MangaUpdate {
	return entities.MangaUpdate{
		ID:                 m.ID,
		CustomTitle:        entities.Some(customString(info.Title, &m.OgTitle)),
		CustomAuthor:       entities.Some(customString(info.Author, m.OgAuthor)),
		CustomArtist:       entities.Some(customString(info.Artist, m.OgArtist)),
		CustomDescription:  entities.Some(customString(info.Description, m.OgDescription)),
		CustomGenre:        entities.Some(customGenre(info.Genre, m.OgGenre)),
		CustomStatus:       entities.Some(customStatus(info.Status, m.OgStatus)),
		CustomThumbnailURL: entities.Some(customString(info.ThumbnailURL, m.OgThumbnailURL)),
	}
}

func customString(value, original *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" || (original != nil && trimmed == *original) {
		return nil
	}
	return &trimmed
}

func customGenre(genre, original []string) []string {
	var cleaned []string
	for _, g := range genre {
		if g = strings.TrimSpace(g); g != "" && !slices.Contains(cleaned, g) {
			cleaned = append(cleaned, g)
		}
	}
	if len(cleaned) == 0 || slices.Equal(cleaned, original) {
		return nil
	}
	return cleaned
}

func customStatus(status *entities.MangaStatus, original entities.MangaStatus) *entities.MangaStatus {
	if status == nil || *status == original {
		return nil
	}
	s := *status
	return &s
}
