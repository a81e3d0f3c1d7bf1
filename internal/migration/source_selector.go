package migration

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/mrlokans/mangashelf/internal/source"
)

// ErrIndexOutOfRange is returned when a move names a position outside the list.
var ErrIndexOutOfRange = errors.New("position out of range")

// SelectionConfig is a bulk selection preset.
type SelectionConfig string

const (
	SelectAll     SelectionConfig = "all"
	SelectNone    SelectionConfig = "none"
	SelectPinned  SelectionConfig = "pinned"
	SelectEnabled SelectionConfig = "enabled"
)

// SourcePreferences holds the stored source choices migration search reads.
type SourcePreferences interface {
	GetMigrationSources(ctx context.Context) ([]int64, bool)
	SetMigrationSources(ctx context.Context, ids []int64) error
	GetPinnedSources(ctx context.Context) []int64
	GetDisabledSources(ctx context.Context) []int64
	GetEnabledLanguages(ctx context.Context) []string
}

// CatalogueLister lists installed catalogues for a set of languages.
type CatalogueLister interface {
	Online(langs []string) []source.Catalogue
}

// MigrationSource is a catalogue with its selection state.
type MigrationSource struct {
	Source     source.Info `json:"source"`
	IsSelected bool        `json:"is_selected"`
}

// SourceSelector manages which catalogues migration search uses and in which
// order. Every change persists the selected ids in display order.
type SourceSelector struct {
	prefs      SourcePreferences
	catalogues CatalogueLister
}

func NewSourceSelector(prefs SourcePreferences, catalogues CatalogueLister) *SourceSelector {
	return &SourceSelector{prefs: prefs, catalogues: catalogues}
}

// Sources returns the catalogues of the enabled languages: selected ones
// first in saved order, then the rest by name. Without a saved selection the
// pinned catalogues are selected, or failing that every catalogue not disabled.
func (s *SourceSelector) Sources(ctx context.Context) []MigrationSource {
	saved, _ := s.prefs.GetMigrationSources(ctx)
	pinned := s.prefs.GetPinnedSources(ctx)
	disabled := s.prefs.GetDisabledSources(ctx)

	var list []MigrationSource
	for _, c := range s.catalogues.Online(s.prefs.GetEnabledLanguages(ctx)) {
		id := c.ID()
		var selected bool
		switch {
		case len(saved) > 0:
			selected = slices.Contains(saved, id)
		case len(pinned) > 0:
			selected = slices.Contains(pinned, id)
		default:
			selected = !slices.Contains(disabled, id)
		}
		list = append(list, MigrationSource{Source: source.InfoOf(c), IsSelected: selected})
	}

	sortSources(list, saved)
	return list
}

// SelectedIDs returns the ids migration search should try, in order.
func (s *SourceSelector) SelectedIDs(ctx context.Context) []int64 {
	return selectedIDs(s.Sources(ctx))
}

// Toggle flips the selection of one catalogue.
func (s *SourceSelector) Toggle(ctx context.Context, id int64) ([]MigrationSource, error) {
	list := s.Sources(ctx)
	idx := slices.IndexFunc(list, func(m MigrationSource) bool { return m.Source.ID == id })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %d", source.ErrSourceNotFound, id)
	}
	list[idx].IsSelected = !list[idx].IsSelected
	return s.save(ctx, list)
}

// Select applies a bulk preset to every catalogue.
func (s *SourceSelector) Select(ctx context.Context, config SelectionConfig) ([]MigrationSource, error) {
	pinned := s.prefs.GetPinnedSources(ctx)
	disabled := s.prefs.GetDisabledSources(ctx)

	var isSelected func(id int64) bool
	switch config {
	case SelectAll:
		isSelected = func(int64) bool { return true }
	case SelectNone:
		isSelected = func(int64) bool { return false }
	case SelectPinned:
		isSelected = func(id int64) bool { return slices.Contains(pinned, id) }
	case SelectEnabled:
		isSelected = func(id int64) bool { return !slices.Contains(disabled, id) }
	default:
		return nil, fmt.Errorf("unknown selection %q", config)
	}

	list := s.Sources(ctx)
	for i := range list {
		list[i].IsSelected = isSelected(list[i].Source.ID)
	}
	return s.save(ctx, list)
}

// Move reorders the catalogue at position from to position to.
func (s *SourceSelector) Move(ctx context.Context, from, to int) ([]MigrationSource, error) {
	list := s.Sources(ctx)
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, fmt.Errorf("move %d to %d in [0, %d): %w", from, to, len(list), ErrIndexOutOfRange)
	}
	item := list[from]
	list = slices.Delete(list, from, from+1)
	list = slices.Insert(list, to, item)
	return s.save(ctx, list)
}

func (s *SourceSelector) save(ctx context.Context, list []MigrationSource) ([]MigrationSource, error) {
	ids := selectedIDs(list)
	sortSources(list, ids)
	if err := s.prefs.SetMigrationSources(ctx, ids); err != nil {
		return nil, fmt.Errorf("save migration sources: %w", err)
	}
	return list, nil
}

func selectedIDs(list []MigrationSource) []int64 {
	ids := make([]int64, 0, len(list))
	for _, m := range list {
		if m.IsSelected {
			ids = append(ids, m.Source.ID)
		}
	}
	return ids
}

// sortSources orders selected before unselected, then by position in order,
// then by "name (lang)".
func sortSources(list []MigrationSource, order []int64) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.IsSelected != b.IsSelected {
			return a.IsSelected
		}
		ai, bi := slices.Index(order, a.Source.ID), slices.Index(order, b.Source.ID)
		if ai != bi {
			return ai < bi
		}
		return visualName(a.Source) < visualName(b.Source)
	})
}

func visualName(info source.Info) string {
	return info.Name + " (" + info.Lang + ")"
}
