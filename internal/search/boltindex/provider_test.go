package boltindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/search"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "search.db"))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestIndexAndSearch(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "Beekeeping", Body: "Hives need shade in summer."}))
	require.NoError(t, p.Index(ctx, search.Document{ID: 2, Title: "Honey Harvest", Body: "Harvest from the hives in autumn."}))

	hits, err := p.Search(ctx, "hives", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	hits, err = p.Search(ctx, "shade", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].PageID)
	assert.Equal(t, "Beekeeping", hits[0].Title)
	assert.Contains(t, hits[0].Snippet, "Hives need shade")
}

func TestRankingPrefersDenserMatches(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	// Doc 1 is entirely about bees; doc 2 mentions them once among
	// many other terms, so normalization ranks it lower.
	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "Bees", Body: "bees bees bees"}))
	require.NoError(t, p.Index(ctx, search.Document{ID: 2, Title: "Garden Journal", Body: "bees among tomatoes carrots cabbage lettuce onions"}))

	hits, err := p.Search(ctx, "bees", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].PageID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestReindexDropsStaleTerms(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "First", Body: "turnips"}))
	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "Second", Body: "parsnips"}))

	hits, err := p.Search(ctx, "turnips", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = p.Search(ctx, "parsnips", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Second", hits[0].Title)
}

func TestRemove(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 5, Title: "Doomed", Body: "fleeting words"}))
	require.NoError(t, p.Remove(ctx, 5))

	hits, err := p.Search(ctx, "fleeting", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, p.Remove(ctx, 5), "removing twice is fine")
}

func TestLimitAndEmptyQuery(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	for id := 1; id <= 5; id++ {
		require.NoError(t, p.Index(ctx, search.Document{ID: id, Title: "Page", Body: "common term"}))
	}

	hits, err := p.Search(ctx, "common", 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	hits, err = p.Search(ctx, " . ! ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTermFrequencies(t *testing.T) {
	freqs := termFrequencies("The cat, the CAT, a cat!")
	assert.Equal(t, 3, freqs["cat"])
	assert.Equal(t, 2, freqs["the"])
	// Single-rune tokens are dropped.
	_, ok := freqs["a"]
	assert.False(t, ok)
}
