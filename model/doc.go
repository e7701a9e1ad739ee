// Package model defines the decoded ingredient-yield records.
//
// An [Entity] is one table row: a character name, the base yield per growth
// [Level] and one [PatternRecord] per decoded [PatternCode]. Pattern codes
// describe how ingredient slots are filled; "AAB" means the first two slots
// hold ingredient A and the third holds ingredient B.
//
// # Invariants
//
// Values produced by the decoder satisfy:
//
//   - len(record.Ingredients) == code.Arity()
//   - record.TotalValue is the sum of every value cell read for the pattern
//   - every ingredient identifier is non-empty
//   - an Entity has at least one pattern
//
// Entities serialize to JSON with level keys rendered as strings ("1", "30",
// "60") and pattern codes as object keys. encoding/json sorts map keys, so the
// serialized form of a given entity sequence is stable.
//
// # Summaries
//
// [NewSummary] derives the sidecar written next to a dataset: the entity count,
// the sorted distinct ingredients and a small sample.
package model
