// Package htmldoc parses HTML pages into tables of resolved cells.
package htmldoc

import (
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sleepwiki/ingredex/internal/normalize"
)

// Reader holds a parsed HTML document.
type Reader struct {
	doc   *html.Node
	title string
	meta  map[string]string
}

// Open parses the HTML file at filename.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return OpenReader(f)
}

// OpenReader parses HTML from r. The parser is lenient, so malformed markup
// only fails on read errors.
func OpenReader(r io.Reader) (*Reader, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	reader := &Reader{doc: doc, meta: make(map[string]string)}
	if head := findAtom(doc, atom.Head); head != nil {
		reader.readHead(head)
	}
	return reader, nil
}

// Close is a no-op; the document is held in memory.
func (r *Reader) Close() error {
	return nil
}

// Title returns the text of the <title> element.
func (r *Reader) Title() string {
	return r.title
}

// Metadata returns a copy of the name and property meta tags of the head.
func (r *Reader) Metadata() map[string]string {
	return maps.Clone(r.meta)
}

func (r *Reader) readHead(head *html.Node) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Title:
			r.title = textOf(c)
		case atom.Meta:
			key := getAttr(c, "name")
			if key == "" {
				key = getAttr(c, "property")
			}
			if v := getAttr(c, "content"); key != "" && v != "" {
				r.meta[key] = v
			}
		}
	}
}

// Tables returns every <table> of the document in document order, nested
// tables included. Tables inside chrome excluded by mode are dropped; the
// rest keep the Index they have among all tables of the document.
func (r *Reader) Tables(mode NavigationExclusionMode) []*ParsedTable {
	filter := newChromeFilter(mode, r.doc)

	var (
		out   []*ParsedTable
		count int
	)
	var visit func(n *html.Node, chrome bool)
	visit = func(n *html.Node, chrome bool) {
		if n.Type == html.ElementNode {
			if opaque(n) {
				return
			}
			chrome = chrome || filter.excludes(n)
			if n.DataAtom == atom.Table {
				if !chrome {
					t := buildTable(n)
					t.Index = count
					out = append(out, t)
				}
				count++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c, chrome)
		}
	}
	visit(r.doc, false)

	return out
}

// buildTable collects the caption and rows of a table element. Rows of
// nested tables belong to those tables and are not collected here.
func buildTable(n *html.Node) *ParsedTable {
	t := &ParsedTable{
		Rows:  [][]TableCell{},
		ID:    getAttr(n, "id"),
		Class: getAttr(n, "class"),
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Caption:
			t.Caption = normalize.Text(textOf(c))
		case atom.Tr:
			t.Rows = append(t.Rows, buildRow(c, false))
		case atom.Thead, atom.Tbody, atom.Tfoot:
			inHead := c.DataAtom == atom.Thead
			t.HasHeader = t.HasHeader || inHead
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.DataAtom == atom.Tr {
					t.Rows = append(t.Rows, buildRow(tr, inHead))
				}
			}
		}
	}

	// Without a thead, a first row containing <th> counts as the header.
	if !t.HasHeader && len(t.Rows) > 0 {
		for _, cell := range t.Rows[0] {
			if cell.IsHeader {
				t.HasHeader = true
				break
			}
		}
	}
	return t
}

// buildRow converts the td and th children of tr. A row without cells
// yields an empty, non-nil slice.
func buildRow(tr *html.Node, inHead bool) []TableCell {
	row := []TableCell{}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			row = append(row, newTableCell(c, inHead))
		}
	}
	return row
}

func newTableCell(c *html.Node, inHead bool) TableCell {
	return TableCell{
		Text:       normalize.Text(textOf(c)),
		Identifier: ResolveIdentifier(c),
		LinkText:   LinkText(c),
		HasImage:   findImage(c) != nil,
		IsHeader:   inHead || c.DataAtom == atom.Th,
		RowSpan:    span(c, "rowspan"),
		ColSpan:    span(c, "colspan"),
	}
}

// span reads a rowspan or colspan attribute. Missing or invalid values
// count as 1.
func span(n *html.Node, key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(getAttr(n, key)))
	if err != nil || v < 1 {
		return 1
	}
	return v
}

// opaque reports elements whose content is never page text.
func opaque(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template,
		atom.Iframe, atom.Object, atom.Embed:
		return true
	}
	return false
}

// findElement returns the first element named tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// textOf returns the trimmed text below n. <br> becomes a newline and block
// elements are followed by a space so adjacent blocks do not run together.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if opaque(n) {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.P, atom.Div, atom.Li, atom.Tr:
				sb.WriteByte(' ')
			}
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}
