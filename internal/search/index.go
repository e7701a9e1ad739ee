// Package search keeps an in-memory full-text index over decoded entities.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/sleepwiki/ingredex/internal/normalize"
	"github.com/sleepwiki/ingredex/model"
)

// ErrEmptyQuery is returned by Search for a blank query.
var ErrEmptyQuery = errors.New("search: empty query")

// DefaultLimit caps the hits returned when Search is given no limit.
const DefaultLimit = 20

// Index is an in-memory bleve index of entities.
//
// All methods are safe for concurrent use. Replace builds the new index
// before swapping it in, so searches never see a partial dataset.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
}

// Hit is one matching entity.
type Hit struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// New creates an empty index. A nil logger discards output.
func New(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Replace indexes entities, discarding whatever was indexed before.
func (s *Index) Replace(entities []model.Entity) error {
	next, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	batch := next.NewBatch()
	for _, e := range entities {
		if err := batch.Index(strconv.Itoa(e.ID), document(e)); err != nil {
			next.Close()
			return fmt.Errorf("index entity %d: %w", e.ID, err)
		}
	}
	if err := next.Batch(batch); err != nil {
		next.Close()
		return fmt.Errorf("commit batch: %w", err)
	}

	s.mu.Lock()
	prev := s.index
	s.index = next
	s.mu.Unlock()

	if err := prev.Close(); err != nil {
		s.logger.Warn("closing previous search index", "error", err)
	}
	s.logger.Debug("search index rebuilt", "entities", len(entities))
	return nil
}

// Count returns the number of indexed entities.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Search matches q against names and ingredients. Exact name and
// ingredient matches outrank partial name matches. A limit <= 0 means
// DefaultLimit.
func (s *Index) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	q = normalize.Text(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = []string{fieldID, fieldName, fieldIngredients}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hit := Hit{ID: id, Score: h.Score}
		if name, ok := h.Fields[fieldName].(string); ok {
			hit.Name = name
		}
		hit.Ingredients = stringsField(h.Fields[fieldIngredients])
		hits = append(hits, hit)
	}
	return hits, nil
}

func buildQuery(q string) query.Query {
	exactName := bleve.NewTermQuery(q)
	exactName.SetField(fieldNameExact)
	exactName.SetBoost(5)

	ingredient := bleve.NewTermQuery(q)
	ingredient.SetField(fieldIngredients)
	ingredient.SetBoost(3)

	name := bleve.NewMatchQuery(q)
	name.SetField(fieldName)

	queries := []query.Query{exactName, ingredient, name}

	code := model.PatternCode(strings.ToUpper(q))
	if code.Valid() {
		pattern := bleve.NewTermQuery(string(code))
		pattern.SetField(fieldPatterns)
		queries = append(queries, pattern)
	}

	return bleve.NewDisjunctionQuery(queries...)
}

func document(e model.Entity) map[string]any {
	codes := e.PatternCodes()
	patterns := make([]string, len(codes))
	for i, c := range codes {
		patterns[i] = string(c)
	}
	return map[string]any{
		fieldID:          float64(e.ID),
		fieldName:        e.Name,
		fieldNameExact:   e.Name,
		fieldIngredients: e.Ingredients(),
		fieldPatterns:    patterns,
	}
}

// stringsField reads a stored field that holds one string or several.
func stringsField(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if str, ok := s.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
