// Package patterns decodes one ingredient-table row into pattern records.
//
// The column contract lives in a single declarative [Catalog]: each [Entry]
// names a pattern code, the cell it starts at and the number of cells it
// spans. An entry reads one (ingredient, value) pair per distinct slot
// letter, in order of first appearance, so "AAB" reads two pairs (A then B)
// and spreads them as [A, A, B].
//
//	dec, err := patterns.Decode(row.Cells, patterns.Canonical())
//	if errors.Is(err, patterns.ErrShortRow) {
//		// skip the row
//	}
//
// Value cells must hold plain decimals; see [ParseValue].
package patterns
