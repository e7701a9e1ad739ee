// Package dataset assembles decoded rows into entities and provides the
// fallback seed dataset.
package dataset

import (
	"errors"
	"maps"

	"github.com/sleepwiki/ingredex/model"
)

// Reasons a row is discarded by the Builder.
var (
	ErrEmptyName  = errors.New("empty name")
	ErrNoPatterns = errors.New("no decodable pattern")
)

// Builder turns decoded rows into entities. Ids are 1-based and follow the
// order in which entities are built; discarded rows do not use up an id.
type Builder struct {
	next int
}

// NewBuilder creates a builder whose first entity gets id 1.
func NewBuilder() *Builder {
	return &Builder{next: 1}
}

// Build returns the entity for one decoded row, or ErrEmptyName or
// ErrNoPatterns when the row must be discarded. Levels and patterns are
// copied as given; missing levels are not filled in.
func (b *Builder) Build(name string, levels map[model.Level]model.LevelValue, patterns map[model.PatternCode]model.PatternRecord) (model.Entity, error) {
	if name == "" {
		return model.Entity{}, ErrEmptyName
	}
	if len(patterns) == 0 {
		return model.Entity{}, ErrNoPatterns
	}

	e := model.Entity{
		ID:                 b.next,
		Name:               name,
		Levels:             maps.Clone(levels),
		IngredientPatterns: maps.Clone(patterns),
	}
	if e.Levels == nil {
		e.Levels = make(map[model.Level]model.LevelValue)
	}
	b.next++
	return e, nil
}

// Built returns the number of entities built so far.
func (b *Builder) Built() int {
	return b.next - 1
}
