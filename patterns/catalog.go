package patterns

import (
	"errors"
	"fmt"

	"github.com/sleepwiki/ingredex/model"
)

// Layout fixes the columns that precede the pattern blocks of a row.
type Layout struct {
	// IconColumn holds the character icon.
	IconColumn int
	// NameColumn holds the character name, usually as a link.
	NameColumn int
	// BaseStart is the ingredient cell of the base pair; the Lv.1 value
	// sits in the cell after it.
	BaseStart int
}

// Entry maps one pattern code to a run of (ingredient, value) cell pairs.
type Entry struct {
	Code model.PatternCode
	// Start is the 0-based index of the first ingredient cell.
	Start int
	// Width is the number of cells read: two per distinct slot letter.
	Width int
	// Backfill is the level whose value is set from this pattern's total.
	// Zero means none.
	Backfill model.Level
}

// End returns the index one past the entry's last cell.
func (e Entry) End() int {
	return e.Start + e.Width
}

// Pairs returns the number of (ingredient, value) pairs the entry reads.
func (e Entry) Pairs() int {
	return e.Width / 2
}

// Catalog is the declarative column contract of the ingredient table.
type Catalog struct {
	Layout  Layout
	Entries []Entry
	// MinCells is the minimum row length; shorter rows are skipped whole.
	MinCells int
}

// CanonicalMinCells is the row length of the canonical layout.
const CanonicalMinCells = 34

// Canonical returns the 34-cell layout: icon, name, the Lv.1 base pair and
// eight pattern blocks.
//
//	cells  0     icon
//	cells  1     name
//	cells  2-3   base pair (Lv.1 value)
//	cells  4-5   AA  (Lv.30)
//	cells  6-9   AB
//	cells 10-11  AAA (Lv.60)
//	cells 12-15  AAB
//	cells 16-19  AAC
//	cells 20-23  ABA
//	cells 24-27  ABB
//	cells 28-33  ABC
func Canonical() *Catalog {
	return &Catalog{
		Layout: Layout{IconColumn: 0, NameColumn: 1, BaseStart: 2},
		Entries: []Entry{
			{Code: model.PatternAA, Start: 4, Width: 2, Backfill: model.Level30},
			{Code: model.PatternAB, Start: 6, Width: 4},
			{Code: model.PatternAAA, Start: 10, Width: 2, Backfill: model.Level60},
			{Code: model.PatternAAB, Start: 12, Width: 4},
			{Code: model.PatternAAC, Start: 16, Width: 4},
			{Code: model.PatternABA, Start: 20, Width: 4},
			{Code: model.PatternABB, Start: 24, Width: 4},
			{Code: model.PatternABC, Start: 28, Width: 6},
		},
		MinCells: CanonicalMinCells,
	}
}

// WithMinCells returns a copy of the catalog with another minimum row length.
func (c *Catalog) WithMinCells(n int) *Catalog {
	cp := *c
	cp.Entries = append([]Entry(nil), c.Entries...)
	cp.MinCells = n
	return &cp
}

// Entry returns the entry for code.
func (c *Catalog) Entry(code model.PatternCode) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Code == code {
			return e, true
		}
	}
	return Entry{}, false
}

// Span returns the index one past the last cell any entry reads.
func (c *Catalog) Span() int {
	end := c.Layout.BaseStart + 2
	for _, e := range c.Entries {
		if e.End() > end {
			end = e.End()
		}
	}
	return end
}

// Validate checks the catalog for contradictions.
func (c *Catalog) Validate() error {
	var errs []error

	if c.MinCells < 2 {
		errs = append(errs, fmt.Errorf("min cells %d: must be at least 2", c.MinCells))
	}
	l := c.Layout
	if l.IconColumn < 0 || l.NameColumn < 0 || l.BaseStart < 0 {
		errs = append(errs, errors.New("layout columns must not be negative"))
	}
	if l.NameColumn == l.BaseStart || l.NameColumn == l.BaseStart+1 {
		errs = append(errs, fmt.Errorf("name column %d overlaps the base pair", l.NameColumn))
	}

	seen := make(map[model.PatternCode]bool, len(c.Entries))
	for _, e := range c.Entries {
		if !e.Code.Valid() {
			errs = append(errs, fmt.Errorf("entry %q: invalid pattern code", e.Code))
			continue
		}
		if seen[e.Code] {
			errs = append(errs, fmt.Errorf("entry %q: duplicate", e.Code))
		}
		seen[e.Code] = true
		if e.Start < 0 {
			errs = append(errs, fmt.Errorf("entry %q: negative start %d", e.Code, e.Start))
		}
		if want := 2 * len(e.Code.Letters()); e.Width != want {
			errs = append(errs, fmt.Errorf("entry %q: width %d, want %d", e.Code, e.Width, want))
		}
		if e.Backfill != 0 && !e.Backfill.Valid() {
			errs = append(errs, fmt.Errorf("entry %q: unknown backfill level %d", e.Code, e.Backfill))
		}
	}

	return errors.Join(errs...)
}
