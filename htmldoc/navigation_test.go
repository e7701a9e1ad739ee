package htmldoc

import (
	"strings"
	"testing"
)

// captions returns the captions of the tables kept under mode.
func captions(t *testing.T, doc string, mode NavigationExclusionMode) []string {
	t.Helper()
	r, err := OpenReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer r.Close()

	var out []string
	for _, table := range r.Tables(mode) {
		out = append(out, table.Caption)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestNavigationExclusionModes(t *testing.T) {
	tests := []struct {
		name           string
		html           string
		mode           NavigationExclusionMode
		wantContains   []string
		wantNotContain []string
	}{
		{
			name: "None mode keeps every table",
			html: `<html><body>
				<nav><table><caption>menu</caption><tr><td>Home</td></tr></table></nav>
				<main><table><caption>data</caption><tr><td>1</td></tr></table></main>
				<footer><table><caption>links</caption><tr><td>x</td></tr></table></footer>
			</body></html>`,
			mode:         NavigationExclusionNone,
			wantContains: []string{"menu", "data", "links"},
		},
		{
			name: "Explicit mode drops tables inside nav",
			html: `<html><body>
				<nav><table><caption>menu</caption><tr><td><a href="/">Home</a></td></tr></table></nav>
				<main><table><caption>data</caption><tr><td>1</td></tr></table></main>
			</body></html>`,
			mode:           NavigationExclusionExplicit,
			wantContains:   []string{"data"},
			wantNotContain: []string{"menu"},
		},
		{
			name: "Explicit mode drops tables inside aside",
			html: `<html><body>
				<aside><table><caption>side</caption><tr><td>s</td></tr></table></aside>
				<main><table><caption>data</caption><tr><td>1</td></tr></table></main>
			</body></html>`,
			mode:           NavigationExclusionExplicit,
			wantContains:   []string{"data"},
			wantNotContain: []string{"side"},
		},
		{
			name: "Explicit mode keeps article footer tables",
			html: `<html><body>
				<article>
					<table><caption>data</caption><tr><td>1</td></tr></table>
					<footer><table><caption>notes</caption><tr><td>n</td></tr></table></footer>
				</article>
				<footer><table><caption>site</caption><tr><td>c</td></tr></table></footer>
			</body></html>`,
			mode:           NavigationExclusionExplicit,
			wantContains:   []string{"data", "notes"},
			wantNotContain: []string{"site"},
		},
		{
			name: "Explicit mode honours ARIA navigation role",
			html: `<html><body>
				<div role="navigation"><table><caption>menu</caption><tr><td>m</td></tr></table></div>
				<div><table><caption>data</caption><tr><td>1</td></tr></table></div>
			</body></html>`,
			mode:           NavigationExclusionExplicit,
			wantContains:   []string{"data"},
			wantNotContain: []string{"menu"},
		},
		{
			name: "Explicit mode ignores class names",
			html: `<html><body>
				<div class="menubar"><table><caption>menu</caption><tr><td>m</td></tr></table></div>
				<div class="menu"><table><caption>kept</caption><tr><td>m</td></tr></table></div>
			</body></html>`,
			mode:         NavigationExclusionExplicit,
			wantContains: []string{"menu", "kept"},
		},
		{
			name: "Standard mode drops tables under menu classes",
			html: `<html><body>
				<div class="menu"><table><caption>menu</caption><tr><td>m</td></tr></table></div>
				<div id="body"><table><caption>data</caption><tr><td>1</td></tr></table></div>
			</body></html>`,
			mode:           NavigationExclusionStandard,
			wantContains:   []string{"data"},
			wantNotContain: []string{"menu"},
		},
		{
			name: "Standard mode drops a table whose own class matches",
			html: `<html><body>
				<table class="sidebar"><caption>side</caption><tr><td>s</td></tr></table>
				<table class="style_table"><caption>data</caption><tr><td>1</td></tr></table>
			</body></html>`,
			mode:           NavigationExclusionStandard,
			wantContains:   []string{"data"},
			wantNotContain: []string{"side"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := captions(t, tt.html, tt.mode)
			for _, want := range tt.wantContains {
				if !contains(got, want) {
					t.Errorf("tables %v missing %q", got, want)
				}
			}
			for _, notWant := range tt.wantNotContain {
				if contains(got, notWant) {
					t.Errorf("tables %v should not contain %q", got, notWant)
				}
			}
		})
	}
}

func TestAggressiveModeWithLinkDensity(t *testing.T) {
	doc := `<html><body>
		<div>
			<a href="/a">Alpha</a> <a href="/b">Beta</a> <a href="/c">Gamma</a> <a href="/d">Delta</a>
			<table><caption>links</caption><tr><td>x</td></tr></table>
		</div>
		<div>
			<p>A long paragraph of ordinary content that is not navigation at all.</p>
			<table><caption>data</caption><tr><td>1</td></tr></table>
		</div>
	</body></html>`

	standard := captions(t, doc, NavigationExclusionStandard)
	if !contains(standard, "links") {
		t.Errorf("standard mode should keep link-dense container, got %v", standard)
	}

	aggressive := captions(t, doc, NavigationExclusionAggressive)
	if contains(aggressive, "links") {
		t.Errorf("aggressive mode should drop link-dense container, got %v", aggressive)
	}
	if !contains(aggressive, "data") {
		t.Errorf("aggressive mode should keep content table, got %v", aggressive)
	}
}

func TestExcludedTablesKeepDocumentIndex(t *testing.T) {
	doc := `<html><body>
		<nav><table><caption>menu</caption><tr><td>m</td></tr></table></nav>
		<table><caption>data</caption><tr><td>1</td></tr></table>
	</body></html>`

	r, err := OpenReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	tables := r.Tables(NavigationExclusionExplicit)
	if len(tables) != 1 {
		t.Fatalf("len(tables) = %d, want 1", len(tables))
	}
	if tables[0].Index != 1 {
		t.Errorf("Index = %d, want 1", tables[0].Index)
	}
}

func TestPatternMatchingWordBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		attr       string
		shouldSkip bool
	}{
		{name: "nav as exact match", attr: `class="nav"`, shouldSkip: true},
		{name: "nav with prefix", attr: `class="top-nav"`, shouldSkip: true},
		{name: "nav with suffix", attr: `class="nav-bar"`, shouldSkip: true},
		{name: "navigator should not match", attr: `class="navigator"`, shouldSkip: false},
		{name: "embedded in longer word should not match", attr: `class="mynavigationsystem"`, shouldSkip: false},
		{name: "footer id", attr: `id="footer"`, shouldSkip: true},
		{name: "wiki body", attr: `id="body"`, shouldSkip: false},
		{name: "wiki menubar", attr: `id="menubar"`, shouldSkip: true},
		{name: "wiki rightbar", attr: `id="rightbar"`, shouldSkip: true},
		{name: "site header pair", attr: `class="site-header"`, shouldSkip: true},
		{name: "header alone", attr: `class="header"`, shouldSkip: false},
		{name: "data table class", attr: `class="style_table"`, shouldSkip: false},
		{name: "mixed case", attr: `class="SideBar"`, shouldSkip: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `<html><body><div ` + tt.attr + `><table><caption>t</caption><tr><td>1</td></tr></table></div></body></html>`
			got := captions(t, doc, NavigationExclusionStandard)
			skipped := !contains(got, "t")
			if skipped != tt.shouldSkip {
				t.Errorf("skipped = %v, want %v", skipped, tt.shouldSkip)
			}
		})
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"nav", "nav"},
		{"Top-Nav main_col", "top nav main col"},
		{"ie5", "ie5"},
		{"  ", ""},
	}

	for _, tt := range tests {
		if got := strings.Join(splitWords(tt.in), " "); got != tt.want {
			t.Errorf("splitWords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNavigationExclusion(t *testing.T) {
	tests := []struct {
		input string
		want  NavigationExclusionMode
		ok    bool
	}{
		{"", NavigationExclusionNone, true},
		{"none", NavigationExclusionNone, true},
		{"Explicit", NavigationExclusionExplicit, true},
		{"standard", NavigationExclusionStandard, true},
		{"aggressive", NavigationExclusionAggressive, true},
		{"bogus", NavigationExclusionNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseNavigationExclusion(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseNavigationExclusion(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
		if ok && got.String() == "" {
			t.Errorf("String() empty for %v", got)
		}
	}
}
