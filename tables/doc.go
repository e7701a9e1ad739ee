// Package tables selects the ingredient table of a wiki page and splits its
// rows into header and data rows.
//
// # Locators
//
// Table selection is performed by types implementing the [Locator] interface.
// The package provides:
//
//   - [MostRows] - the table with the most rows wins, first one on ties
//   - [Caption] - the largest table whose caption, id or class matches a pattern
//
// Locators are registered globally and can be retrieved by name:
//
//	locator := tables.GetLocator("most-rows")
//	table, ok := locator.Locate(reader.Tables(htmldoc.NavigationExclusionNone))
//
// # Row classification
//
// [Classify] walks the selected table once, in row order:
//
//  1. Rows without cells are skipped.
//  2. Rows with a header cell are header rows. So is the first non-empty
//     row when no header has been seen yet.
//  3. Rows whose first cell resolves to nothing, or carries the level
//     marker ("Lv."), are excluded.
//  4. Everything else is a data row.
package tables
