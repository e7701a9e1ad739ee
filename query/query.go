// Package query answers ingredient questions over decoded entities.
package query

import (
	"sort"

	"github.com/sleepwiki/ingredex/model"
)

// Ingredients returns the sorted distinct ingredients used by any pattern.
func Ingredients(entities []model.Entity) []string {
	return model.UniqueIngredients(entities)
}

// Role is the slot letter an ingredient fills for one character.
type Role string

// Ingredient roles.
const (
	RoleNone Role = ""
	RoleA    Role = "A"
	RoleB    Role = "B"
	RoleC    Role = "C"
)

// Roles holds the ingredient inferred for each slot letter. An empty string
// means the letter could not be inferred from the decoded patterns.
type Roles struct {
	A string `json:"a,omitempty"`
	B string `json:"b,omitempty"`
	C string `json:"c,omitempty"`
}

// Of returns the role ingredient plays, or RoleNone.
func (r Roles) Of(ingredient string) Role {
	switch {
	case ingredient == "":
		return RoleNone
	case r.A == ingredient:
		return RoleA
	case r.B == ingredient:
		return RoleB
	case r.C == ingredient:
		return RoleC
	default:
		return RoleNone
	}
}

// RolesOf infers the A, B and C ingredients of an entity.
//
// A comes from AAA, else from the first slot of AB, AAB or ABC. B comes from
// AB, else from the third slot of AAB, else from the second slot of ABC. C is
// only known when ABC was decoded.
func RolesOf(e model.Entity) Roles {
	var r Roles

	if p, ok := e.Pattern(model.PatternAAA); ok {
		r.A = slot(p, 0)
	}

	if p, ok := e.Pattern(model.PatternAB); ok {
		r.A = firstNonEmpty(r.A, slot(p, 0))
		r.B = slot(p, 1)
	} else if p, ok := e.Pattern(model.PatternAAB); ok {
		r.A = firstNonEmpty(r.A, slot(p, 0))
		r.B = slot(p, 2)
	}

	if p, ok := e.Pattern(model.PatternABC); ok {
		r.A = firstNonEmpty(r.A, slot(p, 0))
		r.B = firstNonEmpty(r.B, slot(p, 1))
		r.C = slot(p, 2)
	}

	return r
}

// Match is one entity able to yield a requested ingredient at level 60.
type Match struct {
	Entity model.Entity `json:"entity"`
	Roles  Roles        `json:"roles"`
	Role   Role         `json:"role"`
	// Pattern is the level-60 pattern with the highest individual value for
	// the ingredient; Value is that value.
	Pattern model.PatternCode `json:"pattern"`
	Value   float64           `json:"value"`
}

// Rank returns the entities whose level-60 patterns contain ingredient,
// sorted by best individual value descending, then by id.
func Rank(entities []model.Entity, ingredient string) []Match {
	var matches []Match
	for _, e := range entities {
		m, ok := best(e, ingredient)
		if !ok {
			continue
		}
		m.Roles = RolesOf(e)
		m.Role = m.Roles.Of(ingredient)
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Value != matches[j].Value {
			return matches[i].Value > matches[j].Value
		}
		return matches[i].Entity.ID < matches[j].Entity.ID
	})
	return matches
}

// best picks the level-60 pattern yielding the most of ingredient. Earlier
// codes win ties.
func best(e model.Entity, ingredient string) (Match, bool) {
	var (
		m     Match
		found bool
	)
	for _, code := range model.Level60Patterns {
		p, ok := e.Pattern(code)
		if !ok || !p.Contains(ingredient) {
			continue
		}
		v := p.IndividualValues[ingredient]
		if !found || v > m.Value {
			m = Match{Entity: e, Pattern: code, Value: v}
			found = true
		}
	}
	return m, found
}

func slot(p model.PatternRecord, i int) string {
	if i < len(p.Ingredients) {
		return p.Ingredients[i]
	}
	return ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
