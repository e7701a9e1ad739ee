package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Indexed field names.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldNameExact   = "name_exact"
	fieldIngredients = "ingredients"
	fieldPatterns    = "patterns"
)

// buildIndexMapping maps one entity document.
//
// Names are katakana or kanji with no spaces, so they are split into
// overlapping bigrams by the cjk analyzer; a partial name still matches.
// Ingredients and pattern codes are matched exactly.
func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = keyword.Name

	doc := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = cjk.AnalyzerName
	name.Store = true
	name.IncludeTermVectors = true
	doc.AddFieldMappingsAt(fieldName, name)

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.Store = false
	doc.AddFieldMappingsAt(fieldNameExact, exact)

	ingredients := bleve.NewTextFieldMapping()
	ingredients.Analyzer = keyword.Name
	ingredients.Store = true
	doc.AddFieldMappingsAt(fieldIngredients, ingredients)

	patterns := bleve.NewTextFieldMapping()
	patterns.Analyzer = keyword.Name
	patterns.Store = true
	doc.AddFieldMappingsAt(fieldPatterns, patterns)

	id := bleve.NewNumericFieldMapping()
	id.Store = true
	doc.AddFieldMappingsAt(fieldID, id)

	im.DefaultMapping = doc
	return im
}
