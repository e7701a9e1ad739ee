package ingredex

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sleepwiki/ingredex/dataset"
	"github.com/sleepwiki/ingredex/format"
	"github.com/sleepwiki/ingredex/htmldoc"
	"github.com/sleepwiki/ingredex/model"
	"github.com/sleepwiki/ingredex/patterns"
	"github.com/sleepwiki/ingredex/tables"
)

// decodeCells decodes one data row. Tests replace it to simulate failures.
var decodeCells = patterns.Decode

// Decoder provides a fluent interface for decoding a wiki page.
// Each configuration method returns a new Decoder instance, making it
// safe for concurrent use and allowing method chaining.
type Decoder struct {
	// Source
	filename string
	data     []byte
	inMemory bool

	// Configuration
	options decodeOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Decoder with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (d *Decoder) clone() *Decoder {
	return &Decoder{
		filename: d.filename,
		data:     d.data,
		inMemory: d.inMemory,
		options:  d.options.clone(),
		err:      d.err,
	}
}

// ============================================================================
// Configuration Methods (return new Decoder instance)
// ============================================================================

// Locator sets the strategy that picks the table to decode.
//
// Example:
//
//	res, err := ingredex.Open("wiki.html").Locator(tables.NewCaption(nil)).Decode()
func (d *Decoder) Locator(l tables.Locator) *Decoder {
	newDec := d.clone()
	if l == nil {
		newDec.err = errors.Join(newDec.err, errors.New("nil locator"))
		return newDec
	}
	newDec.options.locator = l
	return newDec
}

// LocatorByName selects a registered locator ("most-rows", "caption").
func (d *Decoder) LocatorByName(name string) *Decoder {
	l := tables.GetLocator(name)
	if l == nil {
		newDec := d.clone()
		newDec.err = errors.Join(newDec.err, fmt.Errorf("unknown locator %q", name))
		return newDec
	}
	return d.Locator(l)
}

// Catalog replaces the column layout used to decode rows.
func (d *Decoder) Catalog(c *patterns.Catalog) *Decoder {
	newDec := d.clone()
	if c == nil {
		newDec.err = errors.Join(newDec.err, errors.New("nil catalog"))
		return newDec
	}
	if err := c.Validate(); err != nil {
		newDec.err = errors.Join(newDec.err, fmt.Errorf("invalid catalog: %w", err))
		return newDec
	}
	newDec.options.catalog = c.WithMinCells(c.MinCells)
	return newDec
}

// MinCells changes the minimum row length. Rows shorter than n are
// skipped; catalog entries beyond a row's end are treated as absent.
//
// Example:
//
//	res, err := ingredex.Open("wiki.html").MinCells(12).Decode()
func (d *Decoder) MinCells(n int) *Decoder {
	return d.Catalog(d.options.catalog.WithMinCells(n))
}

// LevelMarker changes the text that marks stray level-caption rows.
// An empty marker disables the check.
func (d *Decoder) LevelMarker(marker string) *Decoder {
	newDec := d.clone()
	newDec.options.classify.LevelMarker = marker
	return newDec
}

// ExcludeNavigation drops tables that sit inside navigation, menus or
// sidebars before a table is selected.
//
// Example:
//
//	res, err := ingredex.Open("wiki.html").
//	    ExcludeNavigation(htmldoc.NavigationExclusionStandard).
//	    Decode()
func (d *Decoder) ExcludeNavigation(mode htmldoc.NavigationExclusionMode) *Decoder {
	newDec := d.clone()
	newDec.options.navigation = mode
	return newDec
}

// WithoutFallback makes structural failures (ErrNoTable, ErrNoDataRows,
// ErrNoEntities) errors instead of substituting the fallback dataset.
func (d *Decoder) WithoutFallback() *Decoder {
	newDec := d.clone()
	newDec.options.fallback = false
	return newDec
}

// Logger sets the logger for decode diagnostics. Row and pattern skips are
// logged at Debug, fallback substitution at Warn. Nothing is logged by
// default.
func (d *Decoder) Logger(l *slog.Logger) *Decoder {
	newDec := d.clone()
	if l != nil {
		newDec.options.logger = l
	}
	return newDec
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Decode runs the full pipeline: select a table, classify its rows, decode
// every data row and build entities.
//
// The only fatal error is ErrEmptyDocument. With the fallback enabled, a
// page without a usable table yields the fallback dataset and a Report with
// Fallback set. With WithoutFallback the structural error is returned
// together with the partial Result, so the report can still be inspected.
//
// Example:
//
//	res, err := ingredex.Open("wiki-raw.html").Decode()
//	fmt.Println(res.Report.Entities, "entities")
func (d *Decoder) Decode() (*Result, error) {
	doc, err := d.document()
	if err != nil {
		return nil, err
	}

	log := d.options.logger
	res := &Result{Title: doc.Title()}
	res.Report.SelectedTable = -1

	candidates := doc.Tables(d.options.navigation)
	res.Report.TablesFound = len(candidates)
	log.Debug("tables found", "count", len(candidates), "navigation", d.options.navigation.String())

	table, ok := d.options.locator.Locate(candidates)
	if !ok {
		return d.fallback(res, ErrNoTable)
	}
	res.Report.SelectedTable = table.Index
	res.Report.SelectedRows = table.RowCount()
	log.Debug("table selected", "locator", d.options.locator.Name(), "index", table.Index, "rows", table.RowCount())

	cls := tables.Classify(table, d.options.classify)
	res.Report.HeaderRows = len(cls.Headers)
	res.Report.DataRows = len(cls.Data)
	res.Report.EmptyRows = len(cls.Empty)
	res.Report.ExcludedRows = len(cls.Excluded)
	for _, ex := range cls.Excluded {
		log.Debug("row excluded", "row", ex.Index, "reason", string(ex.Reason))
	}
	if len(cls.Data) == 0 {
		return d.fallback(res, ErrNoDataRows)
	}

	builder := dataset.NewBuilder()
	for _, row := range cls.Data {
		if e, ok := d.decodeRow(row, builder, res); ok {
			res.Entities = append(res.Entities, e)
		}
	}
	res.Report.Entities = len(res.Entities)

	if len(res.Entities) == 0 {
		return d.fallback(res, ErrNoEntities)
	}

	log.Info("decoded",
		"entities", res.Report.Entities,
		"skipped", res.Report.SkippedRows(),
		"fallback", false)
	return res, nil
}

// decodeRow decodes and builds one data row. Any panic is recovered and
// counted as a failed row.
func (d *Decoder) decodeRow(row tables.DataRow, b *dataset.Builder, res *Result) (e model.Entity, ok bool) {
	log := d.options.logger

	defer func() {
		if r := recover(); r != nil {
			res.Report.FailedRows++
			msg := fmt.Sprintf("recovered: %v", r)
			res.Warnings = append(res.Warnings, Warning{Kind: WarningRowFailed, Row: row.Index, Message: msg})
			log.Debug("row failed", "row", row.Index, "reason", msg)
			e, ok = model.Entity{}, false
		}
	}()

	dec, err := decodeCells(row.Cells, d.options.catalog)
	if err != nil {
		if errors.Is(err, patterns.ErrShortRow) {
			res.Report.ShortRows++
			res.Warnings = append(res.Warnings, Warning{Kind: WarningShortRow, Row: row.Index, Message: err.Error()})
		} else {
			res.Report.FailedRows++
			res.Warnings = append(res.Warnings, Warning{Kind: WarningRowFailed, Row: row.Index, Message: err.Error()})
		}
		log.Debug("row skipped", "row", row.Index, "reason", err.Error())
		return model.Entity{}, false
	}

	res.Report.PatternsDecoded += len(dec.Patterns)
	res.Report.PatternsSkipped += len(dec.Skipped)
	for _, s := range dec.Skipped {
		log.Debug("pattern skipped", "row", row.Index, "name", dec.Name, "pattern", string(s.Code), "reason", s.Reason.Error())
	}

	e, err = b.Build(dec.Name, dec.Levels, dec.Patterns)
	if err != nil {
		res.Report.DiscardedRows++
		res.Warnings = append(res.Warnings, Warning{Kind: WarningRowDiscarded, Row: row.Index, Message: err.Error()})
		log.Debug("row discarded", "row", row.Index, "name", dec.Name, "reason", err.Error())
		return model.Entity{}, false
	}
	return e, true
}

// fallback substitutes the fallback dataset, or returns reason when the
// fallback is disabled.
func (d *Decoder) fallback(res *Result, reason error) (*Result, error) {
	res.Report.Entities = len(res.Entities)
	if !d.options.fallback {
		return res, reason
	}

	d.options.logger.Warn("using fallback dataset", "reason", reason.Error())
	res.Entities = dataset.Fallback()
	res.Report.Entities = len(res.Entities)
	res.Report.Fallback = true
	res.Report.FallbackReason = reason
	res.Warnings = append(res.Warnings, Warning{Kind: WarningFallback, Row: -1, Message: reason.Error()})
	d.options.logger.Info("decoded",
		"entities", res.Report.Entities,
		"skipped", res.Report.SkippedRows(),
		"fallback", true)
	return res, nil
}

// Entities decodes the page and returns the entity sequence.
//
// Example:
//
//	entities, warnings, err := ingredex.Open("wiki-raw.html").Entities()
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", ingredex.FormatWarnings(warnings))
//	}
func (d *Decoder) Entities() ([]model.Entity, []Warning, error) {
	res, err := d.Decode()
	if err != nil {
		if res != nil {
			return nil, res.Warnings, err
		}
		return nil, nil, err
	}
	return res.Entities, res.Warnings, nil
}

// Summary decodes the page and derives the summary sidecar from the result.
func (d *Decoder) Summary() (model.Summary, []Warning, error) {
	res, err := d.Decode()
	if err != nil {
		return model.Summary{}, nil, err
	}
	return model.NewSummary(res.Entities, time.Now(), res.Report.Fallback), res.Warnings, nil
}

// Tables returns every candidate table of the page, after navigation
// exclusion, without decoding anything.
func (d *Decoder) Tables() ([]*htmldoc.ParsedTable, error) {
	doc, err := d.document()
	if err != nil {
		return nil, err
	}
	return doc.Tables(d.options.navigation), nil
}

// Inspection describes how the page would be decoded.
type Inspection struct {
	Title          string
	Tables         []*htmldoc.ParsedTable
	Selected       *htmldoc.ParsedTable
	Locator        string
	Classification tables.Classification
	Catalog        *patterns.Catalog
}

// Inspect locates and classifies the table without decoding rows. Selected
// is nil when the locator finds nothing.
func (d *Decoder) Inspect() (*Inspection, error) {
	doc, err := d.document()
	if err != nil {
		return nil, err
	}

	in := &Inspection{
		Title:   doc.Title(),
		Tables:  doc.Tables(d.options.navigation),
		Locator: d.options.locator.Name(),
		Catalog: d.options.catalog,
	}
	if table, ok := d.options.locator.Locate(in.Tables); ok {
		in.Selected = table
		in.Classification = tables.Classify(table, d.options.classify)
	}
	return in, nil
}

// document loads and parses the input.
func (d *Decoder) document() (*htmldoc.Reader, error) {
	if d.err != nil {
		return nil, d.err
	}

	data, err := d.load()
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	doc, err := htmldoc.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyDocument, err)
	}
	return doc, nil
}

// load returns the raw input bytes.
func (d *Decoder) load() ([]byte, error) {
	if d.inMemory {
		return d.data, nil
	}
	if d.filename == "" {
		return nil, fmt.Errorf("no filename specified")
	}

	data, err := os.ReadFile(d.filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.filename, err)
	}

	switch f := format.DetectFromMagic(data); f {
	case format.HTML, format.Unknown:
		// Unknown content is parsed leniently as HTML.
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrUnsupported, d.filename, f)
	}
	return data, nil
}
