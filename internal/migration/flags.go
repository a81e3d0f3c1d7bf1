// Package migration moves library entries from one source to another.
//
// Which facets of an entry travel with it is described by Flags, an integer
// bitmask persisted as a single preference value. Bits are stable: new facets
// get new bits and unknown bits in stored values are ignored.
package migration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Flags is a set of migration facets packed into a bitmask.
type Flags int

const (
	FlagChapters       Flags = 0b00000001
	FlagCategories     Flags = 0b00000010
	FlagTracks         Flags = 0b00000100
	FlagCustomCover    Flags = 0b00001000
	FlagExtra          Flags = 0b00010000
	FlagDeleteChapters Flags = 0b00100000
	FlagNotes          Flags = 0b01000000
)

// DefaultFlags carries every facet.
const DefaultFlags = FlagChapters | FlagCategories | FlagTracks | FlagCustomCover | FlagExtra | FlagDeleteChapters | FlagNotes

// ErrUnknownFacet is returned when a facet name does not match any flag.
var ErrUnknownFacet = errors.New("unknown migration facet")

// Facet pairs a flag with its stable name.
type Facet struct {
	Flag Flags
	Name string
}

// AllFacets lists every facet in bit order.
var AllFacets = []Facet{
	{FlagChapters, "chapters"},
	{FlagCategories, "categories"},
	{FlagTracks, "tracks"},
	{FlagCustomCover, "custom_cover"},
	{FlagExtra, "extra"},
	{FlagDeleteChapters, "delete_chapters"},
	{FlagNotes, "notes"},
}

func (f Flags) has(flag Flags) bool { return f&flag != 0 }

func (f Flags) HasChapters() bool       { return f.has(FlagChapters) }
func (f Flags) HasCategories() bool     { return f.has(FlagCategories) }
func (f Flags) HasTracks() bool         { return f.has(FlagTracks) }
func (f Flags) HasCustomCover() bool    { return f.has(FlagCustomCover) }
func (f Flags) HasExtra() bool          { return f.has(FlagExtra) }
func (f Flags) HasDeleteChapters() bool { return f.has(FlagDeleteChapters) }
func (f Flags) HasNotes() bool          { return f.has(FlagNotes) }

// With returns f with flag set or cleared.
func (f Flags) With(flag Flags, on bool) Flags {
	if on {
		return f | flag
	}
	return f &^ flag
}

// Known drops bits that do not belong to any facet.
func (f Flags) Known() Flags {
	return f & DefaultFlags
}

// Facets returns the names of the facets set in f, in bit order.
func (f Flags) Facets() []string {
	names := make([]string, 0, len(AllFacets))
	for _, facet := range AllFacets {
		if f.has(facet.Flag) {
			names = append(names, facet.Name)
		}
	}
	return names
}

func (f Flags) String() string {
	names := f.Facets()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// FlagsFromNames builds a mask from facet names. Names are matched
// case-insensitively and may use dashes or underscores.
func FlagsFromNames(names []string) (Flags, error) {
	var flags Flags
	for _, name := range names {
		name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
		if name == "" {
			continue
		}
		flag, ok := facetByName(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownFacet, name)
		}
		flags |= flag
	}
	return flags, nil
}

// ParseFlags accepts either an integer mask or a comma or pipe separated
// list of facet names.
func ParseFlags(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	if mask, err := strconv.Atoi(s); err == nil {
		return Flags(mask), nil
	}
	return FlagsFromNames(strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }))
}

func facetByName(name string) (Flags, bool) {
	for _, facet := range AllFacets {
		if facet.Name == name {
			return facet.Flag, true
		}
	}
	return 0, false
}
