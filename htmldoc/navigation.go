package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// chromeTokens are class/id words that mark page chrome. Besides the usual
// site furniture they cover the blocks PukiWiki-based wikis render around
// the page body (menubar, rightbar, toolbar, topicpath and so on).
var chromeTokens = map[string]bool{
	"nav": true, "navbar": true, "navigation": true, "menu": true,
	"topnav": true, "sidenav": true, "breadcrumb": true, "breadcrumbs": true,
	"masthead": true, "banner": true, "footer": true, "colophon": true,
	"sidebar": true, "widget": true, "aside": true,
	"menubar": true, "rightbar": true, "toolbar": true, "topicpath": true,
	"lastmodified": true, "related": true, "attach": true,
}

// chromePairs are two-word names whose words are harmless on their own.
var chromePairs = map[string]bool{
	"site-header": true, "page-header": true,
	"site-footer": true, "page-footer": true,
	"widget-area": true,
}

// Link-dense blocks are treated as navigation in aggressive mode.
const (
	maxLinkDensity = 0.6
	minDenseLinks  = 4
)

// chromeFilter decides which subtrees of a document hold page chrome
// rather than content.
type chromeFilter struct {
	mode    NavigationExclusionMode
	body    *html.Node
	wrapper *html.Node
	density map[*html.Node]linkStats
}

// linkStats summarises the text of a subtree.
type linkStats struct {
	text  int
	link  int
	links int
}

func newChromeFilter(mode NavigationExclusionMode, doc *html.Node) *chromeFilter {
	f := &chromeFilter{mode: mode, density: make(map[*html.Node]linkStats)}
	f.body = findElement(doc, "body")
	if f.body == nil {
		f.body = doc
	}
	f.wrapper = soleWrapper(f.body)
	return f
}

// soleWrapper returns the only div or main child of body, ignoring scripts
// and styles, or nil when body has any other layout.
func soleWrapper(body *html.Node) *html.Node {
	var wrapper *html.Node
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template:
		case atom.Div, atom.Main:
			if wrapper != nil {
				return nil
			}
			wrapper = c
		default:
			return nil
		}
	}
	return wrapper
}

// excludes reports whether n and everything below it is chrome under the
// filter's mode. Each mode includes the checks of the milder ones.
func (f *chromeFilter) excludes(n *html.Node) bool {
	if n.Type != html.ElementNode || f.mode == NavigationExclusionNone {
		return false
	}
	if f.semantic(n) {
		return true
	}
	if f.mode >= NavigationExclusionStandard && namedChrome(n) {
		return true
	}
	return f.mode >= NavigationExclusionAggressive && f.linkDense(n)
}

// semantic checks HTML5 sectioning elements and ARIA landmarks. Headers and
// footers only count at page level, so an article's own footer is kept.
func (f *chromeFilter) semantic(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Nav, atom.Aside:
		return true
	case atom.Header, atom.Footer:
		return f.pageLevel(n)
	}

	switch getAttr(n, "role") {
	case "navigation", "complementary":
		return true
	case "banner", "contentinfo":
		return f.pageLevel(n)
	}
	return false
}

// pageLevel reports whether n sits directly under body or its sole wrapper.
func (f *chromeFilter) pageLevel(n *html.Node) bool {
	p := n.Parent
	return p != nil && (p == f.body || (f.wrapper != nil && p == f.wrapper))
}

// namedChrome matches the words of the class and id attributes against the
// chrome vocabulary. "top-nav" matches, "navigator" does not.
func namedChrome(n *html.Node) bool {
	for _, key := range []string{"class", "id"} {
		words := splitWords(getAttr(n, key))
		for i, w := range words {
			if chromeTokens[w] {
				return true
			}
			if i > 0 && chromePairs[words[i-1]+"-"+w] {
				return true
			}
		}
	}
	return false
}

// splitWords lowercases s and splits it on anything that is not a letter
// or digit.
func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
}

// linkDense reports whether a block container is mostly link text.
func (f *chromeFilter) linkDense(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Div, atom.Section, atom.Ul, atom.Ol:
	default:
		return false
	}
	s := f.stats(n)
	if s.text == 0 || s.links < minDenseLinks {
		return false
	}
	return float64(s.link)/float64(s.text) > maxLinkDensity
}

// stats walks n once and caches the result.
func (f *chromeFilter) stats(n *html.Node) linkStats {
	if s, ok := f.density[n]; ok {
		return s
	}
	var s linkStats
	var walk func(*html.Node, bool)
	walk = func(c *html.Node, inLink bool) {
		switch c.Type {
		case html.TextNode:
			l := len(strings.TrimSpace(c.Data))
			s.text += l
			if inLink {
				s.link += l
			}
			return
		case html.ElementNode:
			if c.DataAtom == atom.A {
				s.links++
				inLink = true
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k, inLink)
		}
	}
	walk(n, false)
	f.density[n] = s
	return s
}

// getAttr returns the value of an attribute on a node, or empty string if not found.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
