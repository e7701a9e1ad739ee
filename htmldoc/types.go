package htmldoc

import (
	"strconv"
	"strings"
)

// NavigationExclusionMode controls which tables are dropped because they sit
// inside navigation, menus, sidebars or page chrome.
type NavigationExclusionMode int

const (
	// NavigationExclusionNone keeps every table.
	NavigationExclusionNone NavigationExclusionMode = iota

	// NavigationExclusionExplicit drops tables under <nav> and <aside> and
	// under the navigation and complementary ARIA roles. <header>, <footer>
	// and the banner and contentinfo roles only count at page level: as
	// children of <body> or of its sole wrapper element.
	NavigationExclusionExplicit

	// NavigationExclusionStandard also drops tables under elements whose
	// class or id words name page chrome, such as menubar or sidebar. Wiki
	// skins seldom mark their menus with semantic elements.
	NavigationExclusionStandard

	// NavigationExclusionAggressive also drops block containers that are
	// mostly link text.
	NavigationExclusionAggressive
)

var modeNames = [...]string{"none", "explicit", "standard", "aggressive"}

func (m NavigationExclusionMode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// ParseNavigationExclusion maps a mode name, case-insensitively, to its
// value. The empty name means none.
func ParseNavigationExclusion(name string) (NavigationExclusionMode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return NavigationExclusionNone, true
	}
	for i, n := range modeNames {
		if n == name {
			return NavigationExclusionMode(i), true
		}
	}
	return NavigationExclusionNone, false
}

// ParsedTable represents a table extracted from HTML.
type ParsedTable struct {
	// Index is the table's position among all <table> elements of the
	// document, in document order.
	Index int
	// Rows holds every <tr> of the table, including rows without cells.
	Rows      [][]TableCell
	HasHeader bool
	Caption   string
	ID        string
	Class     string
}

// RowCount returns the number of rows (header and body).
func (t *ParsedTable) RowCount() int {
	return len(t.Rows)
}

// TableCell represents a cell in an HTML table.
type TableCell struct {
	// Text is the trimmed text content of the cell.
	Text string
	// Identifier is the resolved value of the cell: an embedded image's
	// alt or title, else the text. See ResolveIdentifier.
	Identifier string
	// LinkText is the text of the first link in the cell, if any.
	LinkText string
	// HasImage reports whether the cell embeds an image-like element.
	HasImage bool
	IsHeader bool
	RowSpan  int
	ColSpan  int
}

// ToMarkdown renders the table as a markdown grid using each cell's
// Identifier, so icon-only cells stay readable. The first row becomes the
// header line and rows without cells are left out.
func (t *ParsedTable) ToMarkdown() string {
	width := 0
	for _, row := range t.Rows {
		width = max(width, len(row))
	}
	if width == 0 {
		return ""
	}

	var sb strings.Builder
	line := func(cell func(i int) string) {
		sb.WriteByte('|')
		for i := range width {
			sb.WriteString(" " + cell(i) + " |")
		}
		sb.WriteByte('\n')
	}
	row := func(r []TableCell) {
		line(func(i int) string {
			if i >= len(r) {
				return ""
			}
			return markdownEscaper.Replace(r[i].Identifier)
		})
	}

	row(t.Rows[0])
	line(func(int) string { return "---" })
	for _, r := range t.Rows[1:] {
		if len(r) > 0 {
			row(r)
		}
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")
