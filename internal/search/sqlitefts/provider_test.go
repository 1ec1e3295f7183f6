package sqlitefts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/database"
	"squirrelwiki/internal/search"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIndexAndSearch(t *testing.T) {
	p := New(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "Gardening Basics", Body: "How to prepare soil for tomatoes."}))
	require.NoError(t, p.Index(ctx, search.Document{ID: 2, Title: "Compost", Body: "Turning kitchen scraps into soil."}))

	hits, err := p.Search(ctx, "tomatoes", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].PageID)
	assert.Equal(t, "Gardening Basics", hits[0].Title)
	assert.Contains(t, hits[0].Snippet, "<mark>tomatoes</mark>")
	assert.Greater(t, hits[0].Score, 0.0)

	hits, err = p.Search(ctx, "soil", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestReindexReplacesDocument(t *testing.T) {
	p := New(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "Old", Body: "cabbage"}))
	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "New", Body: "carrots"}))

	hits, err := p.Search(ctx, "cabbage", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = p.Search(ctx, "carrots", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "New", hits[0].Title)
}

func TestRemove(t *testing.T) {
	p := New(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 3, Title: "Gone", Body: "ephemeral"}))
	require.NoError(t, p.Remove(ctx, 3))

	hits, err := p.Search(ctx, "ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, p.Remove(ctx, 3), "removing an unindexed page is fine")
}

func TestSearchQuotesUserInput(t *testing.T) {
	p := New(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, p.Index(ctx, search.Document{ID: 1, Title: "Quotes", Body: `she said "hello" AND left`}))

	// FTS operators and quotes in the query must not break the MATCH
	// expression.
	_, err := p.Search(ctx, `"hello" AND NOT left`, 10)
	require.NoError(t, err)

	hits, err := p.Search(ctx, "hello", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestEmptyQueryReturnsNothing(t *testing.T) {
	p := New(newTestDB(t))

	hits, err := p.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"soil" "prep"`, ftsQuery("soil prep"))
	assert.Equal(t, `"say ""hi"""`, ftsQuery(`say"hi"`))
	assert.Equal(t, "", ftsQuery("  "))
}
