package entities

// MangaUpdate is a sparse patch for a stored Manga. Unset fields keep their
// stored value; set fields replace it, including false, 0, "" and nil.
type MangaUpdate struct {
	ID int64 `json:"id"`

	Source            Optional[int64]  `json:"source,omitzero"`
	Favorite          Optional[bool]   `json:"favorite,omitzero"`
	LastUpdate        Optional[int64]  `json:"last_update,omitzero"`
	NextUpdate        Optional[int64]  `json:"next_update,omitzero"`
	FetchInterval     Optional[int]    `json:"fetch_interval,omitzero"`
	DateAdded         Optional[int64]  `json:"date_added,omitzero"`
	ViewerFlags       Optional[int64]  `json:"viewer_flags,omitzero"`
	ChapterFlags      Optional[int64]  `json:"chapter_flags,omitzero"`
	CoverLastModified Optional[int64]  `json:"cover_last_modified,omitzero"`
	URL               Optional[string] `json:"url,omitzero"`

	OgTitle        Optional[string]      `json:"og_title,omitzero"`
	OgArtist       Optional[*string]     `json:"og_artist,omitzero"`
	OgAuthor       Optional[*string]     `json:"og_author,omitzero"`
	OgDescription  Optional[*string]     `json:"og_description,omitzero"`
	OgGenre        Optional[[]string]    `json:"og_genre,omitzero"`
	OgStatus       Optional[MangaStatus] `json:"og_status,omitzero"`
	OgThumbnailURL Optional[*string]     `json:"og_thumbnail_url,omitzero"`

	CustomTitle        Optional[*string]      `json:"custom_title,omitzero"`
	CustomArtist       Optional[*string]      `json:"custom_artist,omitzero"`
	CustomAuthor       Optional[*string]      `json:"custom_author,omitzero"`
	CustomDescription  Optional[*string]      `json:"custom_description,omitzero"`
	CustomGenre        Optional[[]string]     `json:"custom_genre,omitzero"`
	CustomStatus       Optional[*MangaStatus] `json:"custom_status,omitzero"`
	CustomThumbnailURL Optional[*string]      `json:"custom_thumbnail_url,omitzero"`

	UpdateStrategy Optional[UpdateStrategy] `json:"update_strategy,omitzero"`
	Initialized    Optional[bool]           `json:"initialized,omitzero"`
	Version        Optional[int64]          `json:"version,omitzero"`
	Notes          Optional[string]         `json:"notes,omitzero"`
}

// Apply merges the set fields of u into m and returns the result. m is not modified.
func (u MangaUpdate) Apply(m Manga) Manga {
	m.Source = u.Source.Or(m.Source)
	m.Favorite = u.Favorite.Or(m.Favorite)
	m.LastUpdate = u.LastUpdate.Or(m.LastUpdate)
	m.NextUpdate = u.NextUpdate.Or(m.NextUpdate)
	m.FetchInterval = u.FetchInterval.Or(m.FetchInterval)
	m.DateAdded = u.DateAdded.Or(m.DateAdded)
	m.ViewerFlags = u.ViewerFlags.Or(m.ViewerFlags)
	m.ChapterFlags = u.ChapterFlags.Or(m.ChapterFlags)
	m.CoverLastModified = u.CoverLastModified.Or(m.CoverLastModified)
	m.URL = u.URL.Or(m.URL)

	m.OgTitle = u.OgTitle.Or(m.OgTitle)
	m.OgArtist = u.OgArtist.Or(m.OgArtist)
	m.OgAuthor = u.OgAuthor.Or(m.OgAuthor)
	m.OgDescription = u.OgDescription.Or(m.OgDescription)
	m.OgGenre = u.OgGenre.Or(m.OgGenre)
	m.OgStatus = u.OgStatus.Or(m.OgStatus)
	m.OgThumbnailURL = u.OgThumbnailURL.Or(m.OgThumbnailURL)

	m.CustomTitle = u.CustomTitle.Or(m.CustomTitle)
	m.CustomArtist = u.CustomArtist.Or(m.CustomArtist)
	m.CustomAuthor = u.CustomAuthor.Or(m.CustomAuthor)
	m.CustomDescription = u.CustomDescription.Or(m.CustomDescription)
	m.CustomGenre = u.CustomGenre.Or(m.CustomGenre)
	m.CustomStatus = u.CustomStatus.Or(m.CustomStatus)
	m.CustomThumbnailURL = u.CustomThumbnailURL.Or(m.CustomThumbnailURL)

	m.UpdateStrategy = u.UpdateStrategy.Or(m.UpdateStrategy)
	m.Initialized = u.Initialized.Or(m.Initialized)
	m.Version = u.Version.Or(m.Version)
	m.Notes = u.Notes.Or(m.Notes)
	return m
}

// IsEmpty reports whether the patch sets no field at all.
func (u MangaUpdate) IsEmpty() bool {
	return !u.anySet()
}

func (u MangaUpdate) anySet() bool {
	return u.Source.Set || u.Favorite.Set || u.LastUpdate.Set || u.NextUpdate.Set ||
		u.FetchInterval.Set || u.DateAdded.Set || u.ViewerFlags.Set || u.ChapterFlags.Set ||
		u.CoverLastModified.Set || u.URL.Set || u.OgTitle.Set || u.OgArtist.Set ||
		u.OgAuthor.Set || u.OgDescription.Set || u.OgGenre.Set || u.OgStatus.Set ||
		u.OgThumbnailURL.Set || u.CustomTitle.Set || u.CustomArtist.Set || u.CustomAuthor.Set ||
		u.CustomDescription.Set || u.CustomGenre.Set || u.CustomStatus.Set ||
		u.CustomThumbnailURL.Set || u.UpdateStrategy.Set || u.Initialized.Set ||
		u.Version.Set || u.Notes.Set
}

// ToUpdate builds a patch that sets every field of m.
func (m Manga) ToUpdate() MangaUpdate {
	return MangaUpdate{
		ID:                 m.ID,
		Source:             Some(m.Source),
		Favorite:           Some(m.Favorite),
		LastUpdate:         Some(m.LastUpdate),
		NextUpdate:         Some(m.NextUpdate),
		FetchInterval:      Some(m.FetchInterval),
		DateAdded:          Some(m.DateAdded),
		ViewerFlags:        Some(m.ViewerFlags),
		ChapterFlags:       Some(m.ChapterFlags),
		CoverLastModified:  Some(m.CoverLastModified),
		URL:                Some(m.URL),
		OgTitle:            Some(m.OgTitle),
		OgArtist:           Some(m.OgArtist),
		OgAuthor:           Some(m.OgAuthor),
		OgDescription:      Some(m.OgDescription),
		OgGenre:            Some(m.OgGenre),
		OgStatus:           Some(m.OgStatus),
		OgThumbnailURL:     Some(m.OgThumbnailURL),
		CustomTitle:        Some(m.CustomTitle),
		CustomArtist:       Some(m.CustomArtist),
		CustomAuthor:       Some(m.CustomAuthor),
		CustomDescription:  Some(m.CustomDescription),
		CustomGenre:        Some(m.CustomGenre),
		CustomStatus:       Some(m.CustomStatus),
		CustomThumbnailURL: Some(m.CustomThumbnailURL),
		UpdateStrategy:     Some(m.UpdateStrategy),
		Initialized:        Some(m.Initialized),
		Version:            Some(m.Version),
		Notes:              Some(m.Notes),
	}
}
