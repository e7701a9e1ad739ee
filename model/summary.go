package model

import "time"

// sampleSize is the number of leading entities copied into a Summary.
const sampleSize = 3

// Summary is the sidecar written next to a decoded dataset.
type Summary struct {
	GeneratedAt       time.Time `json:"generatedAt"`
	TotalEntities     int       `json:"totalEntities"`
	UniqueIngredients []string  `json:"uniqueIngredients"`
	SampleData        []Entity  `json:"sampleData"`
	Fallback          bool      `json:"fallback"`
}

// NewSummary derives a Summary from an ordered entity sequence.
func NewSummary(entities []Entity, generatedAt time.Time, fallback bool) Summary {
	n := len(entities)
	if n > sampleSize {
		n = sampleSize
	}
	sample := make([]Entity, n)
	copy(sample, entities[:n])

	return Summary{
		GeneratedAt:       generatedAt.UTC(),
		TotalEntities:     len(entities),
		UniqueIngredients: UniqueIngredients(entities),
		SampleData:        sample,
		Fallback:          fallback,
	}
}
