package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/utils"
)

func newTestHTTPCatalogue(id int64, name, lang string) *HTTPCatalogue {
	def := Definition{ID: id, Name: name, Lang: lang, BaseURL: "http://127.0.0.1:1"}
	return NewHTTPCatalogue(def, DefaultOptions(), utils.NewTestLogger())
}

func TestManager_RegisterAndGet(t *testing.T) {
	m, err := NewManager(newTestHTTPCatalogue(2, "Beta", "en"), newTestHTTPCatalogue(1, "Alpha", "ja"))
	require.NoError(t, err)

	c, err := m.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "Beta", c.Name())

	_, err = m.Get(99)
	assert.ErrorIs(t, err, ErrSourceNotFound)

	names := []string{}
	for _, c := range m.Catalogues() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"Alpha", "Beta"}, names)
}

func TestManager_RejectsDuplicateID(t *testing.T) {
	_, err := NewManager(newTestHTTPCatalogue(1, "A", "en"), newTestHTTPCatalogue(1, "B", "en"))
	assert.Error(t, err)
}

func TestManager_GetOrStub(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	stub := m.GetOrStub(42)
	assert.Equal(t, int64(42), stub.ID())
	assert.Equal(t, "42", stub.Name())
	assert.Same(t, stub, m.GetOrStub(42))
	assert.Len(t, m.Stubs(), 1)

	_, err = stub.Search(context.Background(), "x", 1)
	assert.ErrorIs(t, err, ErrStubSource)
	_, err = stub.ChapterList(context.Background(), "/m/1")
	assert.ErrorIs(t, err, ErrStubSource)

	info := InfoOf(stub)
	assert.True(t, info.Stub)

	require.NoError(t, m.Register(newTestHTTPCatalogue(42, "Now Installed", "en")))
	assert.Equal(t, "Now Installed", m.GetOrStub(42).Name())
	assert.Empty(t, m.Stubs())
	assert.False(t, InfoOf(m.GetOrStub(42)).Stub)
}

func TestManager_Online(t *testing.T) {
	m, err := NewManager(
		newTestHTTPCatalogue(1, "English", "en"),
		newTestHTTPCatalogue(2, "Japanese", "ja"),
		newTestHTTPCatalogue(3, "Multi", "all"),
	)
	require.NoError(t, err)

	assert.Len(t, m.Online(nil), 3)
	assert.Len(t, m.Online([]string{"all"}), 1)

	online := m.Online([]string{"ja", "all"})
	require.Len(t, online, 2)
	assert.Equal(t, "Japanese", online[0].Name())
	assert.Equal(t, "Multi", online[1].Name())
}
