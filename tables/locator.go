package tables

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/sleepwiki/ingredex/htmldoc"
)

// Locator selects the one table to decode from the candidate tables of a
// document.
type Locator interface {
	// Locate returns the selected table, or false when no candidate fits.
	Locate(candidates []*htmldoc.ParsedTable) (*htmldoc.ParsedTable, bool)

	// Name returns the locator name
	Name() string
}

// MostRows selects the table with the strictly greatest row count, header
// and body rows included. Ties go to the table encountered first.
type MostRows struct{}

// NewMostRows creates the default locator.
func NewMostRows() *MostRows {
	return &MostRows{}
}

// Name returns the locator's identifier ("most-rows").
func (MostRows) Name() string {
	return "most-rows"
}

// Locate implements Locator.
func (MostRows) Locate(candidates []*htmldoc.ParsedTable) (*htmldoc.ParsedTable, bool) {
	var best *htmldoc.ParsedTable
	for _, t := range candidates {
		if t == nil {
			continue
		}
		if best == nil || t.RowCount() > best.RowCount() {
			best = t
		}
	}
	return best, best != nil
}

// DefaultCaptionPattern matches the captions and ids the ingredient table is
// usually published under.
var DefaultCaptionPattern = regexp.MustCompile(`(?i)食材|ingredient`)

// Caption selects among the tables whose caption, id or class matches a
// pattern, preferring the one with the most rows. Tables that do not match
// are never selected.
type Caption struct {
	pattern *regexp.Regexp
}

// NewCaption creates a caption locator. A nil pattern uses
// DefaultCaptionPattern.
func NewCaption(pattern *regexp.Regexp) *Caption {
	if pattern == nil {
		pattern = DefaultCaptionPattern
	}
	return &Caption{pattern: pattern}
}

// CompileCaption builds a caption locator from a regular expression.
func CompileCaption(expr string) (*Caption, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling caption pattern: %w", err)
	}
	return NewCaption(re), nil
}

// Name returns the locator's identifier ("caption").
func (c *Caption) Name() string {
	return "caption"
}

// Pattern returns the expression tables are matched against.
func (c *Caption) Pattern() string {
	return c.pattern.String()
}

// Locate implements Locator.
func (c *Caption) Locate(candidates []*htmldoc.ParsedTable) (*htmldoc.ParsedTable, bool) {
	var matching []*htmldoc.ParsedTable
	for _, t := range candidates {
		if t == nil {
			continue
		}
		if c.pattern.MatchString(t.Caption) || c.pattern.MatchString(t.ID) || c.pattern.MatchString(t.Class) {
			matching = append(matching, t)
		}
	}
	return MostRows{}.Locate(matching)
}

// LocatorRegistry holds registered locators
type LocatorRegistry struct {
	locators map[string]Locator
}

// NewRegistry creates a new locator registry
func NewRegistry() *LocatorRegistry {
	return &LocatorRegistry{
		locators: make(map[string]Locator),
	}
}

// Register registers a locator, replacing any locator of the same name.
func (r *LocatorRegistry) Register(locator Locator) {
	r.locators[locator.Name()] = locator
}

// Get retrieves a locator by name
func (r *LocatorRegistry) Get(name string) Locator {
	return r.locators[name]
}

// List returns all registered locator names, sorted.
func (r *LocatorRegistry) List() []string {
	names := make([]string, 0, len(r.locators))
	for name := range r.locators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global registry
var globalRegistry = NewRegistry()

// RegisterLocator registers a locator globally
func RegisterLocator(locator Locator) {
	globalRegistry.Register(locator)
}

// GetLocator retrieves a locator by name
func GetLocator(name string) Locator {
	return globalRegistry.Get(name)
}

// ListLocators returns all registered locator names
func ListLocators() []string {
	return globalRegistry.List()
}

// DefaultLocator returns the locator used when none is configured.
func DefaultLocator() Locator {
	return NewMostRows()
}

func init() {
	RegisterLocator(NewMostRows())
	RegisterLocator(NewCaption(nil))
}
