package model

import (
	"sort"
	"strings"
)

// Level is a character growth stage at which yields are tabulated.
type Level int

// Known growth levels.
const (
	Level1  Level = 1
	Level30 Level = 30
	Level60 Level = 60
)

// Levels lists the known growth levels in ascending order.
func Levels() []Level {
	return []Level{Level1, Level30, Level60}
}

// Valid reports whether l is one of the known growth levels.
func (l Level) Valid() bool {
	return l == Level1 || l == Level30 || l == Level60
}

// LevelValue is the base yield recorded for one level.
type LevelValue struct {
	Value float64 `json:"value"`
}

// PatternCode names an ingredient slot assignment such as "AB" or "AAC".
// Each letter is a slot; equal letters hold the same ingredient.
type PatternCode string

// Pattern codes of the canonical layout.
const (
	PatternAA  PatternCode = "AA"
	PatternAB  PatternCode = "AB"
	PatternAAA PatternCode = "AAA"
	PatternAAB PatternCode = "AAB"
	PatternAAC PatternCode = "AAC"
	PatternABA PatternCode = "ABA"
	PatternABB PatternCode = "ABB"
	PatternABC PatternCode = "ABC"
)

// Level60Patterns are the three-slot codes tabulated at level 60.
var Level60Patterns = []PatternCode{PatternAAA, PatternAAB, PatternAAC, PatternABA, PatternABB, PatternABC}

// Arity returns the number of slots the code describes.
func (c PatternCode) Arity() int {
	return len(c)
}

// Letters returns the distinct slot letters in order of first appearance.
// "ABA" yields "AB", "AAC" yields "AC".
func (c PatternCode) Letters() string {
	var sb strings.Builder
	for _, r := range string(c) {
		if !strings.ContainsRune(sb.String(), r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Valid reports whether the code is a non-empty run of slot letters A, B or C
// that starts with A.
func (c PatternCode) Valid() bool {
	if len(c) == 0 || c[0] != 'A' {
		return false
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'C' {
			return false
		}
	}
	return true
}

// PatternRecord is the decoded yield of one pattern.
type PatternRecord struct {
	// Ingredients has one identifier per slot; repeated slots repeat the identifier.
	Ingredients []string `json:"ingredients"`
	// IndividualValues maps each distinct ingredient to its yield. When an
	// ingredient occupies several value pairs its values are summed.
	IndividualValues map[string]float64 `json:"individualValues"`
	// TotalValue is the sum of every value cell read for the pattern.
	TotalValue float64 `json:"totalValue"`
}

// Contains reports whether ingredient occupies any slot of the pattern.
func (p PatternRecord) Contains(ingredient string) bool {
	for _, ing := range p.Ingredients {
		if ing == ingredient {
			return true
		}
	}
	return false
}

// Entity is one character's decoded yield record.
type Entity struct {
	ID                 int                           `json:"id"`
	Name               string                        `json:"name"`
	Levels             map[Level]LevelValue          `json:"levels"`
	IngredientPatterns map[PatternCode]PatternRecord `json:"ingredientPatterns"`
}

// Pattern returns the record for code and whether it was decoded.
func (e Entity) Pattern(code PatternCode) (PatternRecord, bool) {
	p, ok := e.IngredientPatterns[code]
	return p, ok
}

// PatternCodes returns the decoded codes sorted by arity, then lexically.
func (e Entity) PatternCodes() []PatternCode {
	codes := make([]PatternCode, 0, len(e.IngredientPatterns))
	for code := range e.IngredientPatterns {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) < len(codes[j])
		}
		return codes[i] < codes[j]
	})
	return codes
}

// Ingredients returns the distinct ingredients across all patterns, sorted.
func (e Entity) Ingredients() []string {
	return UniqueIngredients([]Entity{e})
}

// UniqueIngredients returns the sorted set of ingredient identifiers used by
// any pattern of any entity.
func UniqueIngredients(entities []Entity) []string {
	seen := make(map[string]struct{})
	for _, e := range entities {
		for _, p := range e.IngredientPatterns {
			for _, ing := range p.Ingredients {
				seen[ing] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for ing := range seen {
		out = append(out, ing)
	}
	sort.Strings(out)
	return out
}
