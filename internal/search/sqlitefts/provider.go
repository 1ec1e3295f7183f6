// Package sqlitefts implements search over the page_search FTS5 virtual
// table, using bm25 ranking and snippet extraction.
package sqlitefts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"squirrelwiki/internal/search"
)

// ProviderName is the plugin name this provider registers under.
const ProviderName = "sqlite-fts"

// Provider indexes pages into the page_search table. The table's rowid
// mirrors the page id.
type Provider struct {
	DB *sql.DB
}

// New creates the FTS5 provider.
func New(db *sql.DB) *Provider {
	return &Provider{DB: db}
}

// Name implements search.Provider.
func (p *Provider) Name() string { return ProviderName }

// Index implements search.Provider.
func (p *Provider) Index(ctx context.Context, doc search.Document) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM page_search WHERE rowid = ?", doc.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO page_search (rowid, title, body) VALUES (?, ?, ?)", doc.ID, doc.Title, doc.Body); err != nil {
		return err
	}
	return tx.Commit()
}

// Remove implements search.Provider.
func (p *Provider) Remove(ctx context.Context, id int) error {
	_, err := p.DB.ExecContext(ctx, "DELETE FROM page_search WHERE rowid = ?", id)
	return err
}

// Search implements search.Provider.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := p.DB.QueryContext(ctx, `SELECT rowid, title,
			snippet(page_search, 1, '<mark>', '</mark>', '…', 12),
			bm25(page_search)
		FROM page_search WHERE page_search MATCH ?
		ORDER BY bm25(page_search) LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var hits []search.Hit
	for rows.Next() {
		var h search.Hit
		var rank float64
		if err := rows.Scan(&h.PageID, &h.Title, &h.Snippet, &rank); err != nil {
			return nil, err
		}
		// bm25 reports smaller-is-better; flip it for callers.
		h.Score = -rank
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery turns free text into an FTS5 match expression, quoting each
// token so user input cannot inject query syntax.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}
