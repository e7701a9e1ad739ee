package htmldoc

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sleepwiki/ingredex/internal/normalize"
)

// ResolveIdentifier extracts a plain-text identifier from a table cell.
//
// If the cell embeds an image-like element, its alt attribute is returned,
// falling back to title (and aria-label for role="img" elements). When the
// image carries no label, or there is no image, the cell's trimmed text is
// returned. An empty result means the cell names nothing.
func ResolveIdentifier(n *html.Node) string {
	if n == nil {
		return ""
	}
	if img := findImage(n); img != nil {
		if label := imageLabel(img); label != "" {
			return label
		}
	}
	return normalize.Text(textOf(n))
}

// LinkText returns the text of the first <a> element under n.
func LinkText(n *html.Node) string {
	if n == nil {
		return ""
	}
	a := findAtom(n, atom.A)
	if a == nil {
		return ""
	}
	return normalize.Text(textOf(a))
}

// findImage returns the first image-like descendant of n.
func findImage(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if isImage(c) {
			return c
		}
		if img := findImage(c); img != nil {
			return img
		}
	}
	return nil
}

func isImage(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Img, atom.Image:
		return true
	}
	// SVG <image> keeps its lowercase name without an atom in some parsers.
	if n.Data == "image" {
		return true
	}
	return getAttr(n, "role") == "img"
}

// imageLabel returns the first non-empty of alt, title and aria-label.
func imageLabel(n *html.Node) string {
	for _, key := range []string{"alt", "title", "aria-label"} {
		if v := normalize.Text(getAttr(n, key)); v != "" {
			return v
		}
	}
	return ""
}

// findAtom finds the first element with the given atom, including n itself.
func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findAtom(c, a); result != nil {
			return result
		}
	}
	return nil
}
