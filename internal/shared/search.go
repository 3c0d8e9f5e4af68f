package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTerm folds accents and case so "Orçamento" matches "orcamento".
func NormalizeTerm(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// SearchKey builds the denormalised search column stored next to searchable rows.
func SearchKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := NormalizeTerm(p); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern returns a contains pattern for ILIKE/LIKE with wildcards escaped.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(NormalizeTerm(term)) + "%"
}
