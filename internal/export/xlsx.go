package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/sleepwiki/ingredex/model"
)

// PatternsSheet is the worksheet written by WriteXLSX.
const PatternsSheet = "patterns"

var xlsxHeader = []any{
	"id", "name", "Lv.1", "Lv.30", "Lv.60",
	"pattern", "ingredient 1", "ingredient 2", "ingredient 3",
	"value 1", "value 2", "value 3", "total",
}

// WriteXLSX writes one row per entity and pattern to a workbook. Rows follow
// entity id order, then pattern code order. The value columns hold the
// individual value of each distinct ingredient in slot order.
func WriteXLSX(w io.Writer, entities []model.Entity) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), PatternsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(PatternsSheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, e := range entities {
		for _, code := range e.PatternCodes() {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := patternRow(e, code)
			if err := f.SetSheetRow(PatternsSheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetPanes(PatternsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if err := f.SetColWidth(PatternsSheet, "B", "B", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(PatternsSheet, "G", "I", 14); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func patternRow(e model.Entity, code model.PatternCode) []any {
	row := []any{e.ID, e.Name, level(e, model.Level1), level(e, model.Level30), level(e, model.Level60), string(code)}

	p := e.IngredientPatterns[code]
	for i := 0; i < 3; i++ {
		if i < len(p.Ingredients) {
			row = append(row, p.Ingredients[i])
		} else {
			row = append(row, nil)
		}
	}

	var distinct []string
	seen := make(map[string]bool)
	for _, ing := range p.Ingredients {
		if !seen[ing] {
			seen[ing] = true
			distinct = append(distinct, ing)
		}
	}
	for i := 0; i < 3; i++ {
		if i < len(distinct) {
			row = append(row, p.IndividualValues[distinct[i]])
		} else {
			row = append(row, nil)
		}
	}

	return append(row, p.TotalValue)
}

// level returns the level value, or nil so the cell stays empty.
func level(e model.Entity, l model.Level) any {
	if v, ok := e.Levels[l]; ok {
		return v.Value
	}
	return nil
}
