package manga

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritics are the generic combining mark blocks used by Latin,
// Greek and Cyrillic accents. Script-specific marks such as the kana voicing
// marks U+3099 and U+309A are not in it; they change the letter.
var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0300, Hi: 0x036f, Stride: 1},
		{Lo: 0x1ab0, Hi: 0x1aff, Stride: 1},
		{Lo: 0x1dc0, Hi: 0x1dff, Stride: 1},
		{Lo: 0x20d0, Hi: 0x20ff, Stride: 1},
		{Lo: 0xfe20, Hi: 0xfe2f, Stride: 1},
	},
}

// NormalizeTitle folds case, strips accents and collapses punctuation and
// whitespace into single spaces, so "Shingeki no Kyojin!" and
// "shingeki  no kyōjin" compare equal.
func NormalizeTitle(title string) string {
	stripDiacritics := transform.Chain(norm.NFD, runes.Remove(runes.In(combiningDiacritics)), norm.NFC)
	stripped, _, err := transform.String(stripDiacritics, title)
	if err != nil {
		stripped = title
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	gap := false
	for _, r := range folded {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte(' ')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}

// TitleSimilarity scores two titles between 0 and 1 by Levenshtein distance
// of their normalized forms. Titles that normalize to nothing score 0.
func TitleSimilarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if longest == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(distance)/float64(longest)
}
