package patterns

import (
	"errors"
	"fmt"

	"github.com/sleepwiki/ingredex/htmldoc"
	"github.com/sleepwiki/ingredex/model"
)

// Errors reported by Decode.
var (
	// ErrShortRow is returned when a row has fewer cells than the catalog's
	// minimum. The row is unusable.
	ErrShortRow = errors.New("row shorter than layout")

	// ErrOutOfRange marks an entry whose cells lie beyond the row.
	ErrOutOfRange = errors.New("entry beyond row")

	// ErrNoIngredient marks an ingredient cell that resolves to nothing.
	ErrNoIngredient = errors.New("empty ingredient")
)

// Skip records a catalog entry that did not produce a pattern.
type Skip struct {
	Code   model.PatternCode
	Reason error
}

// Decoded is the result of decoding one data row.
type Decoded struct {
	Name     string
	Levels   map[model.Level]model.LevelValue
	Patterns map[model.PatternCode]model.PatternRecord
	Skipped  []Skip
}

// Decode applies the catalog to one data row.
//
// Each entry is decoded on its own: it yields a pattern only when every
// ingredient cell resolves and every value cell parses, and a failing entry
// never affects the others. Level 1 comes from the base pair's value cell;
// entries with a Backfill level set that level from their total.
func Decode(cells []htmldoc.TableCell, c *Catalog) (*Decoded, error) {
	if len(cells) < c.MinCells {
		return nil, fmt.Errorf("%w: %d cells, need %d", ErrShortRow, len(cells), c.MinCells)
	}

	d := &Decoded{
		Name:     nameOf(cells, c.Layout.NameColumn),
		Levels:   make(map[model.Level]model.LevelValue),
		Patterns: make(map[model.PatternCode]model.PatternRecord),
	}

	if base := c.Layout.BaseStart + 1; base < len(cells) {
		if v, err := ParseValue(cells[base].Text); err == nil {
			d.Levels[model.Level1] = model.LevelValue{Value: v}
		}
	}

	for _, e := range c.Entries {
		record, err := decodeEntry(cells, e)
		if err != nil {
			d.Skipped = append(d.Skipped, Skip{Code: e.Code, Reason: err})
			continue
		}
		d.Patterns[e.Code] = record
		if e.Backfill != 0 {
			d.Levels[e.Backfill] = model.LevelValue{Value: record.TotalValue}
		}
	}

	return d, nil
}

// decodeEntry reads the (ingredient, value) pairs of one entry, one pair
// per distinct slot letter, and spreads them over the code's slots.
func decodeEntry(cells []htmldoc.TableCell, e Entry) (model.PatternRecord, error) {
	if e.End() > len(cells) {
		return model.PatternRecord{}, fmt.Errorf("%w: cells %d-%d of %d", ErrOutOfRange, e.Start, e.End()-1, len(cells))
	}

	letters := e.Code.Letters()
	bySlot := make(map[rune]string, len(letters))
	values := make(map[string]float64, len(letters))
	total := 0.0

	for i, letter := range letters {
		ingCell := cells[e.Start+2*i]
		valCell := cells[e.Start+2*i+1]

		ingredient := ingCell.Identifier
		if ingredient == "" {
			return model.PatternRecord{}, fmt.Errorf("slot %c at cell %d: %w", letter, e.Start+2*i, ErrNoIngredient)
		}
		v, err := ParseValue(valCell.Text)
		if err != nil {
			return model.PatternRecord{}, fmt.Errorf("slot %c at cell %d: %w", letter, e.Start+2*i+1, err)
		}

		bySlot[letter] = ingredient
		values[ingredient] += v
		total += v
	}

	ingredients := make([]string, 0, e.Code.Arity())
	for _, slot := range string(e.Code) {
		ingredients = append(ingredients, bySlot[slot])
	}

	return model.PatternRecord{
		Ingredients:      ingredients,
		IndividualValues: values,
		TotalValue:       total,
	}, nil
}

// nameOf returns the link text of the name cell, else its text, else its
// resolved identifier.
func nameOf(cells []htmldoc.TableCell, col int) string {
	if col < 0 || col >= len(cells) {
		return ""
	}
	cell := cells[col]
	switch {
	case cell.LinkText != "":
		return cell.LinkText
	case cell.Text != "":
		return cell.Text
	default:
		return cell.Identifier
	}
}
