package loader

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const bom = "\ufeff"

// canonicalHeader normalizes a raw header cell to the column name used for
// lookup: BOM and surrounding space stripped, then the configured header map
// applied, then (when folding is on) diacritics removed, lowercased, and
// spaces collapsed to underscores.
func canonicalHeader(raw string, opt Options) string {
	s := strings.TrimPrefix(raw, bom)
	s = trimASCIISpace(s)
	if mapped, ok := opt.HeaderMap[s]; ok && mapped != "" {
		s = mapped
	}
	if opt.FoldHeaders {
		s = foldDiacritics(s)
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// foldDiacritics decomposes the string and drops combining marks, so that
// e.g. "Ciudad" and "Población" headers mapped through localized names still
// compare equal to their ASCII forms. On a transform error the input is
// returned unchanged.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// trimASCIISpace trims spaces and tabs only. Unicode space variants inside
// data values are preserved as-is.
func trimASCIISpace(s string) string {
	return strings.Trim(s, " \t\r")
}
