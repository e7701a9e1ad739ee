package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepwiki/ingredex/dataset"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.Replace(dataset.Fallback()))
	return idx
}

func hitIDs(hits []Hit) []int {
	ids := make([]int, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func TestNew_Empty(t *testing.T) {
	idx, err := New(nil)
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestReplace(t *testing.T) {
	idx := setupTestIndex(t)

	n, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(dataset.Fallback())), n)

	require.NoError(t, idx.Replace(dataset.Fallback()[:2]))
	n, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	require.NoError(t, idx.Replace(nil))
	n, err = idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
}

func TestSearch_ExactName(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "ピカチュウ", 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	assert.Equal(t, 3, hits[0].ID)
	assert.Equal(t, "ピカチュウ", hits[0].Name)
	assert.ElementsMatch(t, []string{"リンゴ", "ワカクサコーン"}, hits[0].Ingredients)
}

func TestSearch_PartialName(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "フシギ", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, hitIDs(hits))
}

func TestSearch_Ingredient(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "ワカクサ大豆", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{5, 6}, hitIDs(hits))
}

func TestSearch_NormalizesQuery(t *testing.T) {
	idx := setupTestIndex(t)

	// Half-width katakana folds to the full-width form used in names.
	hits, err := idx.Search(context.Background(), "  ｲｰﾌﾞｲ ", 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, 4, hits[0].ID)
}

func TestSearch_PatternCode(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "abc", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, hitIDs(hits))
}

func TestSearch_Limit(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "AA", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearch_NoMatch(t *testing.T) {
	idx := setupTestIndex(t)

	hits, err := idx.Search(context.Background(), "ミミッキ", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_EmptyQuery(t *testing.T) {
	idx := setupTestIndex(t)

	_, err := idx.Search(context.Background(), "   ", 0)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestStringsField(t *testing.T) {
	assert.Equal(t, []string{"a"}, stringsField("a"))
	assert.Equal(t, []string{"a", "b"}, stringsField([]any{"a", 1, "b"}))
	assert.Nil(t, stringsField(nil))
}
