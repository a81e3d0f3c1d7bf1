package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_UnmarshalNull(t *testing.T) {
	var u MangaUpdate
	require.NoError(t, json.Unmarshal([]byte(`{
		"favorite": null,
		"url": null,
		"source": null,
		"og_title": null,
		"initialized": null,
		"og_artist": null,
		"og_genre": null
	}`), &u))

	assert.False(t, u.Favorite.Set, "null leaves value types unchanged")
	assert.False(t, u.URL.Set)
	assert.False(t, u.Source.Set)
	assert.False(t, u.OgTitle.Set)
	assert.False(t, u.Initialized.Set)

	assert.True(t, u.OgArtist.Set, "null clears nullable columns")
	assert.Nil(t, u.OgArtist.Value)
	assert.True(t, u.OgGenre.Set)
	assert.Nil(t, u.OgGenre.Value)

	stored := Manga{ID: 5, URL: "/m/1", Source: 10, OgTitle: "T", Favorite: true, Initialized: true, OgArtist: Ptr("Miura"), OgGenre: []string{"Action"}}
	merged := u.Apply(stored)
	assert.True(t, merged.Favorite)
	assert.Equal(t, "/m/1", merged.URL)
	assert.Equal(t, int64(10), merged.Source)
	assert.Equal(t, "T", merged.OgTitle)
	assert.True(t, merged.Initialized)
	assert.Nil(t, merged.OgArtist)
	assert.Nil(t, merged.OgGenre)
}

func TestOptional_UnmarshalValues(t *testing.T) {
	var u MangaUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"favorite": false, "og_title": "", "custom_author": "Jane"}`), &u))

	assert.Equal(t, Some(false), u.Favorite)
	assert.Equal(t, Some(""), u.OgTitle)
	require.True(t, u.CustomAuthor.Set)
	assert.Equal(t, "Jane", *u.CustomAuthor.Value)
	assert.False(t, u.Notes.Set, "absent keys stay unset")

	merged := u.Apply(Manga{ID: 5, OgTitle: "T", Favorite: true})
	assert.False(t, merged.Favorite)
	assert.Equal(t, "", merged.OgTitle)
	assert.Equal(t, "Jane", *merged.CustomAuthor)
}

func TestOptional_UnmarshalInvalid(t *testing.T) {
	var u MangaUpdate
	err := json.Unmarshal([]byte(`{"favorite": "yes"}`), &u)
	assert.Error(t, err)
	assert.False(t, u.Favorite.Set)
}
