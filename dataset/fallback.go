package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/sleepwiki/ingredex/model"
)

//go:embed fallback.json
var fallbackJSON string

// ErrInvalidJSON is returned by Parse for input that is not a JSON array of
// entities.
var ErrInvalidJSON = errors.New("invalid entity JSON")

// Fallback returns the hand-curated seed dataset used when a page yields no
// entities. Every call returns the same entities in a fresh slice.
func Fallback() []model.Entity {
	entities, err := Parse(fallbackJSON)
	if err != nil {
		// The seed is compiled in; a parse failure is a build defect.
		panic(fmt.Sprintf("dataset: embedded fallback: %v", err))
	}
	return entities
}

// Parse reads an entity array in the JSON shape written by the exporter.
func Parse(data string) ([]model.Entity, error) {
	if !gjson.Valid(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.Parse(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: top level is not an array", ErrInvalidJSON)
	}

	var entities []model.Entity
	var parseErr error
	root.ForEach(func(_, v gjson.Result) bool {
		e, err := parseEntity(v)
		if err != nil {
			parseErr = fmt.Errorf("entity %d: %w", len(entities)+1, err)
			return false
		}
		entities = append(entities, e)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return entities, nil
}

func parseEntity(v gjson.Result) (model.Entity, error) {
	e := model.Entity{
		ID:                 int(v.Get("id").Int()),
		Name:               v.Get("name").String(),
		Levels:             make(map[model.Level]model.LevelValue),
		IngredientPatterns: make(map[model.PatternCode]model.PatternRecord),
	}

	var err error
	v.Get("levels").ForEach(func(k, lv gjson.Result) bool {
		n, convErr := strconv.Atoi(k.String())
		if convErr != nil || !model.Level(n).Valid() {
			err = fmt.Errorf("%w: unknown level %q", ErrInvalidJSON, k.String())
			return false
		}
		e.Levels[model.Level(n)] = model.LevelValue{Value: lv.Get("value").Float()}
		return true
	})
	if err != nil {
		return model.Entity{}, err
	}

	v.Get("ingredientPatterns").ForEach(func(k, pv gjson.Result) bool {
		code := model.PatternCode(k.String())
		if !code.Valid() {
			err = fmt.Errorf("%w: unknown pattern %q", ErrInvalidJSON, k.String())
			return false
		}
		e.IngredientPatterns[code] = parsePattern(pv)
		return true
	})
	if err != nil {
		return model.Entity{}, err
	}

	return e, nil
}

func parsePattern(v gjson.Result) model.PatternRecord {
	p := model.PatternRecord{
		IndividualValues: make(map[string]float64),
		TotalValue:       v.Get("totalValue").Float(),
	}
	v.Get("ingredients").ForEach(func(_, ing gjson.Result) bool {
		p.Ingredients = append(p.Ingredients, ing.String())
		return true
	})
	v.Get("individualValues").ForEach(func(k, val gjson.Result) bool {
		p.IndividualValues[k.String()] = val.Float()
		return true
	})
	return p
}
