package ingredex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sleepwiki/ingredex/dataset"
	"github.com/sleepwiki/ingredex/htmldoc"
	"github.com/sleepwiki/ingredex/model"
	"github.com/sleepwiki/ingredex/patterns"
	"github.com/sleepwiki/ingredex/tables"
)

// img renders an icon cell.
func img(alt string) string {
	return fmt.Sprintf(`<td><img src="/img/%s.png" alt="%s"></td>`, alt, alt)
}

func td(s string) string {
	return "<td>" + s + "</td>"
}

// pokemonRow renders one canonical 34-cell row. a, b and c are the
// character's three ingredients; v scales every value.
func pokemonRow(name, a, b, c string, v float64) string {
	f := func(x float64) string { return td(fmt.Sprintf("%g", x*v)) }
	var sb strings.Builder
	sb.WriteString("<tr>")
	sb.WriteString(img(name))
	sb.WriteString(`<td><a href="/` + name + `">` + name + `</a></td>`)
	blocks := []string{
		img(a) + f(1),                                 // base, Lv.1
		img(a) + f(2),                                 // AA
		img(a) + f(1) + img(b) + f(1),                 // AB
		img(a) + f(4),                                 // AAA
		img(a) + f(2) + img(b) + f(2),                 // AAB
		img(a) + f(2) + img(c) + f(1),                 // AAC
		img(a) + f(2) + img(b) + f(1),                 // ABA
		img(a) + f(1) + img(b) + f(2),                 // ABB
		img(a) + f(1) + img(b) + f(1) + img(c) + f(1), // ABC
	}
	sb.WriteString(strings.Join(blocks, ""))
	sb.WriteString("</tr>")
	return sb.String()
}

const headerRows = `<tr><th>アイコン</th><th>名前</th><th colspan="2">Lv.1</th><th colspan="6">Lv.30</th><th colspan="24">Lv.60</th></tr>
<tr><th></th><th></th><th colspan="2">基本</th><th colspan="2">AA</th><th colspan="4">AB</th><th colspan="2">AAA</th><th colspan="4">AAB</th><th colspan="4">AAC</th><th colspan="4">ABA</th><th colspan="4">ABB</th><th colspan="6">ABC</th></tr>`

func wikiPage(rows ...string) string {
	return `<!DOCTYPE html><html><head><title>食材一覧</title></head><body>
<div id="menubar"><table><tr><td>menu</td></tr></table></div>
<div id="body">
<table class="style_table">` + headerRows + strings.Join(rows, "\n") + `</table>
</div></body></html>`
}

func TestDecode_WikiPage(t *testing.T) {
	page := wikiPage(
		pokemonRow("フシギダネ", "あまいミツ", "あんみんトマト", "ワカクサ大豆", 1),
		`<tr><td colspan="34">Lv.30 以降</td></tr>`,
		`<tr></tr>`,
		pokemonRow("ピカチュウ", "リンゴ", "ワカクサコーン", "あまいミツ", 1.5),
	)

	res, err := FromString(page).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if res.Title != "食材一覧" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Report.Fallback {
		t.Fatalf("unexpected fallback: %v", res.Report.FallbackReason)
	}
	if len(res.Entities) != 2 {
		t.Fatalf("len(Entities) = %d, want 2", len(res.Entities))
	}

	r := res.Report
	if r.TablesFound != 2 || r.SelectedTable != 1 {
		t.Errorf("TablesFound = %d, SelectedTable = %d", r.TablesFound, r.SelectedTable)
	}
	if r.HeaderRows != 2 || r.DataRows != 2 || r.ExcludedRows != 1 || r.EmptyRows != 1 {
		t.Errorf("report = %+v", r)
	}
	if r.PatternsDecoded != 16 || r.PatternsSkipped != 0 {
		t.Errorf("patterns decoded %d, skipped %d", r.PatternsDecoded, r.PatternsSkipped)
	}

	pika := res.Entities[1]
	if pika.ID != 2 || pika.Name != "ピカチュウ" {
		t.Errorf("entity = %d %q", pika.ID, pika.Name)
	}
	if got := pika.Levels[model.Level60].Value; got != 6 {
		t.Errorf("Lv.60 = %v, want 6", got)
	}
	abc := pika.IngredientPatterns[model.PatternABC]
	if !reflect.DeepEqual(abc.Ingredients, []string{"リンゴ", "ワカクサコーン", "あまいミツ"}) {
		t.Errorf("ABC ingredients = %v", abc.Ingredients)
	}
	if math.Abs(abc.TotalValue-4.5) > 1e-9 {
		t.Errorf("ABC total = %v, want 4.5", abc.TotalValue)
	}
}

func TestDecode_PatternAndRowRecovery(t *testing.T) {
	broken := strings.Replace(pokemonRow("カビゴン", "きのみ", "ワカクサ大豆", "おいしいシッポ", 1),
		"<td>1</td></tr>", "<td>不明</td></tr>", 1)
	short := "<tr>" + img("コダック") + td("コダック") + strings.Repeat(td("1"), 8) + "</tr>"
	noName := strings.Replace(pokemonRow("ヤドン", "カカオ", "カカオ", "カカオ", 1),
		`<td><a href="/ヤドン">ヤドン</a></td>`, "<td></td>", 1)

	res, err := FromString(wikiPage(
		broken,
		short,
		noName,
		pokemonRow("イーブイ", "モーモーミルク", "ふといながねぎ", "リンゴ", 1),
	)).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if len(res.Entities) != 2 {
		t.Fatalf("len(Entities) = %d, want 2", len(res.Entities))
	}
	kabi := res.Entities[0]
	if _, ok := kabi.IngredientPatterns[model.PatternABC]; ok {
		t.Error("ABC with a non-numeric value should be skipped")
	}
	if len(kabi.IngredientPatterns) != 7 {
		t.Errorf("len(patterns) = %d, want 7", len(kabi.IngredientPatterns))
	}
	if res.Entities[1].ID != 2 || res.Entities[1].Name != "イーブイ" {
		t.Errorf("ids must stay dense: %+v", res.Entities[1])
	}

	r := res.Report
	if r.ShortRows != 1 || r.DiscardedRows != 1 || r.PatternsSkipped != 1 {
		t.Errorf("report = %+v", r)
	}

	kinds := map[WarningKind]int{}
	for _, w := range res.Warnings {
		kinds[w.Kind]++
	}
	if kinds[WarningShortRow] != 1 || kinds[WarningRowDiscarded] != 1 {
		t.Errorf("warnings = %v", FormatWarnings(res.Warnings))
	}
}

func TestDecode_PanicInRowIsRecovered(t *testing.T) {
	orig := decodeCells
	defer func() { decodeCells = orig }()

	calls := 0
	decodeCells = func(cells []htmldoc.TableCell, c *patterns.Catalog) (*patterns.Decoded, error) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return orig(cells, c)
	}

	res, err := FromString(wikiPage(
		pokemonRow("フシギダネ", "あまいミツ", "あんみんトマト", "ワカクサ大豆", 1),
		pokemonRow("フシギソウ", "あまいミツ", "あんみんトマト", "ワカクサ大豆", 1),
	)).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(res.Entities) != 1 || res.Entities[0].Name != "フシギソウ" || res.Entities[0].ID != 1 {
		t.Errorf("Entities = %+v", res.Entities)
	}
	if res.Report.FailedRows != 1 {
		t.Errorf("FailedRows = %d, want 1", res.Report.FailedRows)
	}
}

func TestDecode_NoTablesGivesFallback(t *testing.T) {
	res, err := FromString(`<html><body><p>メンテナンス中</p></body></html>`).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !reflect.DeepEqual(res.Entities, dataset.Fallback()) {
		t.Error("Entities should equal the fallback dataset exactly")
	}
	if !res.Report.Fallback || !errors.Is(res.Report.FallbackReason, ErrNoTable) {
		t.Errorf("report = %+v", res.Report)
	}
	if res.Report.SelectedTable != -1 {
		t.Errorf("SelectedTable = %d, want -1", res.Report.SelectedTable)
	}
}

func TestDecode_StructuralFallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want error
	}{
		{
			name: "no tables",
			html: `<html><body></body></html>`,
			want: ErrNoTable,
		},
		{
			name: "header only",
			html: `<html><body><table><tr><th>名前</th></tr><tr><td>Lv.30</td></tr></table></body></html>`,
			want: ErrNoDataRows,
		},
		{
			name: "only short rows",
			html: `<html><body><table><tr><th>名前</th></tr><tr><td>ピカチュウ</td><td>1</td></tr></table></body></html>`,
			want: ErrNoEntities,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := FromString(tt.html).Decode()
			if err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}
			if !errors.Is(res.Report.FallbackReason, tt.want) {
				t.Errorf("FallbackReason = %v, want %v", res.Report.FallbackReason, tt.want)
			}
			if len(res.Entities) != len(dataset.Fallback()) {
				t.Errorf("len(Entities) = %d", len(res.Entities))
			}

			res, err = FromString(tt.html).WithoutFallback().Decode()
			if !errors.Is(err, tt.want) {
				t.Errorf("WithoutFallback err = %v, want %v", err, tt.want)
			}
			if res == nil || len(res.Entities) != 0 || res.Report.Fallback {
				t.Errorf("WithoutFallback result = %+v", res)
			}
		})
	}
}

func TestDecode_EmptyDocument(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		if _, err := FromString(input).Decode(); !errors.Is(err, ErrEmptyDocument) {
			t.Errorf("Decode(%q) err = %v, want ErrEmptyDocument", input, err)
		}
	}
}

func TestDecode_Deterministic(t *testing.T) {
	page := wikiPage(
		pokemonRow("フシギダネ", "あまいミツ", "あんみんトマト", "ワカクサ大豆", 1),
		pokemonRow("ピカチュウ", "リンゴ", "ワカクサコーン", "あまいミツ", 1.5),
	)

	dec := FromString(page)
	first, _, err := dec.Entities()
	if err != nil {
		t.Fatalf("Entities() failed: %v", err)
	}
	second, _, err := dec.Entities()
	if err != nil {
		t.Fatalf("Entities() failed: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if !bytes.Equal(a, b) {
		t.Error("decoding the same page twice produced different output")
	}
}

func TestDecode_MinCells(t *testing.T) {
	row := "<tr>" + img("ピカチュウ") + td("ピカチュウ") + img("リンゴ") + td("1") + img("リンゴ") + td("2") + "</tr>"
	page := `<html><body><table><tr><th>x</th></tr>` + row + `</table></body></html>`

	res, err := FromString(page).WithoutFallback().MinCells(6).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(res.Entities) != 1 {
		t.Fatalf("len(Entities) = %d, want 1", len(res.Entities))
	}
	e := res.Entities[0]
	if _, ok := e.IngredientPatterns[model.PatternAA]; !ok || len(e.IngredientPatterns) != 1 {
		t.Errorf("patterns = %v", e.PatternCodes())
	}
	if e.Levels[model.Level1].Value != 1 || e.Levels[model.Level30].Value != 2 {
		t.Errorf("levels = %v", e.Levels)
	}
}

func TestDecode_LocatorAndNavigation(t *testing.T) {
	nav := `<nav><table>` + strings.Repeat(`<tr><td>link</td></tr>`, 50) + `</table></nav>`
	page := `<html><body>` + nav + `<table><caption>食材</caption>` + headerRows +
		pokemonRow("イーブイ", "モーモーミルク", "ふといながねぎ", "リンゴ", 1) + `</table></body></html>`

	res, err := FromString(page).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !res.Report.Fallback {
		t.Error("the navigation table has the most rows and should be picked by default")
	}

	for name, dec := range map[string]*Decoder{
		"exclude navigation": FromString(page).ExcludeNavigation(htmldoc.NavigationExclusionExplicit),
		"caption locator":    FromString(page).LocatorByName("caption"),
	} {
		res, err := dec.WithoutFallback().Decode()
		if err != nil {
			t.Fatalf("%s: Decode() failed: %v", name, err)
		}
		if len(res.Entities) != 1 || res.Entities[0].Name != "イーブイ" {
			t.Errorf("%s: Entities = %+v", name, res.Entities)
		}
	}
}

func TestChainImmutability(t *testing.T) {
	base := FromString("<html></html>")
	strict := base.WithoutFallback()
	small := base.MinCells(4)

	if !base.options.fallback {
		t.Error("base decoder should keep the fallback")
	}
	if strict.options.fallback {
		t.Error("strict decoder should not use the fallback")
	}
	if base.options.catalog.MinCells != patterns.CanonicalMinCells || small.options.catalog.MinCells != 4 {
		t.Errorf("MinCells base %d, small %d", base.options.catalog.MinCells, small.options.catalog.MinCells)
	}
}

func TestDeferredOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		dec  *Decoder
	}{
		{"unknown locator", FromString("<html></html>").LocatorByName("nope")},
		{"nil locator", FromString("<html></html>").Locator(nil)},
		{"nil catalog", FromString("<html></html>").Catalog(nil)},
		{"invalid min cells", FromString("<html></html>").MinCells(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.dec.Decode(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	if _, _, err := Open("nonexistent.html").Entities(); err == nil {
		t.Error("expected error for non-existent file")
	}

	dir := t.TempDir()
	page := filepath.Join(dir, "wiki-raw.html")
	if err := os.WriteFile(page, []byte(wikiPage(pokemonRow("コダック", "カカオ", "ワカクサ大豆", "リンゴ", 1))), 0o644); err != nil {
		t.Fatal(err)
	}
	entities, _, err := Open(page).Entities()
	if err != nil {
		t.Fatalf("Entities() failed: %v", err)
	}
	if len(entities) != 1 || entities[0].Name != "コダック" {
		t.Errorf("entities = %+v", entities)
	}

	sqlite := filepath.Join(dir, "store.db")
	if err := os.WriteFile(sqlite, []byte("SQLite format 3\x00rest"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(sqlite).Decode(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestFromReader(t *testing.T) {
	res, err := FromReader(strings.NewReader(wikiPage(pokemonRow("カビゴン", "きのみ", "ワカクサ大豆", "おいしいシッポ", 2)))).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(res.Entities) != 1 {
		t.Errorf("len(Entities) = %d", len(res.Entities))
	}

	if _, err := FromReader(errReader{}).Decode(); err == nil {
		t.Error("expected read error")
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestSummary(t *testing.T) {
	s, _, err := FromString(wikiPage(
		pokemonRow("フシギダネ", "あまいミツ", "あんみんトマト", "ワカクサ大豆", 1),
	)).Summary()
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if s.TotalEntities != 1 || s.Fallback {
		t.Errorf("summary = %+v", s)
	}
	want := []string{"あまいミツ", "あんみんトマト", "ワカクサ大豆"}
	if !reflect.DeepEqual(s.UniqueIngredients, want) {
		t.Errorf("UniqueIngredients = %v, want %v", s.UniqueIngredients, want)
	}
}

func TestInspect(t *testing.T) {
	in, err := FromString(wikiPage(pokemonRow("フシギダネ", "あまいミツ", "あんみんトマト", "ワカクサ大豆", 1))).Inspect()
	if err != nil {
		t.Fatalf("Inspect() failed: %v", err)
	}
	if len(in.Tables) != 2 || in.Selected == nil || in.Selected.Index != 1 {
		t.Errorf("inspection = %+v", in)
	}
	if in.Locator != tables.DefaultLocator().Name() {
		t.Errorf("Locator = %q", in.Locator)
	}
	if len(in.Classification.Data) != 1 {
		t.Errorf("data rows = %d", len(in.Classification.Data))
	}

	tbls, err := FromString(`<html><body><p>x</p></body></html>`).Tables()
	if err != nil || len(tbls) != 0 {
		t.Errorf("Tables() = %v, %v", tbls, err)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := FromString(`<html><body></body></html>`).Logger(logger).Decode()
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "using fallback dataset") {
		t.Errorf("log output = %s", buf.String())
	}
}

func TestReportJSON(t *testing.T) {
	res, err := FromString(`<html><body></body></html>`).Decode()
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(res.Report)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"fallbackReason":"no table found"`) {
		t.Errorf("report JSON = %s", data)
	}
}

func TestFormatWarnings(t *testing.T) {
	got := FormatWarnings([]Warning{
		{Kind: WarningShortRow, Row: 3, Message: "row shorter than layout"},
		{Kind: WarningFallback, Row: -1, Message: "no table found"},
	})
	want := "short row (row 3): row shorter than layout\nfallback: no table found"
	if got != want {
		t.Errorf("FormatWarnings() = %q, want %q", got, want)
	}
}

func TestMust(t *testing.T) {
	result := Must("hello", nil)
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected Must to panic on error")
		}
	}()
	Must("", os.ErrNotExist)
}
