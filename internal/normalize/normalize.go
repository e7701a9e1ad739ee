// Package normalize provides text normalization for scraped table cells.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Text applies NFKC normalization, collapses runs of whitespace to a single
// space and trims the result. Full-width Latin letters become ASCII and
// half-width katakana become full-width.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Number narrows full-width characters and trims surrounding space so that
// "　２．１ " reads as "2.1". It does not validate the result.
func Number(s string) string {
	s = width.Narrow.String(s)
	return strings.TrimSpace(s)
}
