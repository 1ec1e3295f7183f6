// Package boltindex implements search over an inverted index kept in a
// BoltDB file, for installs that want the index outside the main database.
package boltindex

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.etcd.io/bbolt"
	"squirrelwiki/internal/search"
)

// ProviderName is the plugin name this provider registers under.
const ProviderName = "bolt-index"

const (
	termsBucket = "terms"
	docsBucket  = "docs"
)

// Provider keeps a term -> posting-list index and per-document metadata
// in two buckets. Postings are keyed by page id with term frequencies.
type Provider struct {
	db *bbolt.DB
}

type docRecord struct {
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Terms   []string `json:"terms"`
	Length  int      `json:"length"`
}

// Open opens or creates the index file at path.
func Open(path string) (*Provider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("index path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{termsBucket, docsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index buckets: %w", err)
	}
	return &Provider{db: db}, nil
}

// Close closes the underlying index file.
func (p *Provider) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Name implements search.Provider.
func (p *Provider) Name() string { return ProviderName }

// Index implements search.Provider.
func (p *Provider) Index(ctx context.Context, doc search.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	freqs := termFrequencies(doc.Title + " " + doc.Body)
	terms := make([]string, 0, len(freqs))
	for term := range freqs {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	record := docRecord{
		Title:   doc.Title,
		Excerpt: excerpt(doc.Body),
		Terms:   terms,
		Length:  len(freqs),
	}

	return p.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket([]byte(docsBucket))
		termsB := tx.Bucket([]byte(termsBucket))
		key := docKey(doc.ID)

		if err := removePostings(docs, termsB, key, doc.ID); err != nil {
			return err
		}

		for term, freq := range freqs {
			postings, err := readPostings(termsB, term)
			if err != nil {
				return err
			}
			postings[strconv.Itoa(doc.ID)] = freq
			if err := writePostings(termsB, term, postings); err != nil {
				return err
			}
		}

		encoded, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return docs.Put(key, encoded)
	})
}

// Remove implements search.Provider.
func (p *Provider) Remove(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket([]byte(docsBucket))
		termsB := tx.Bucket([]byte(termsBucket))
		key := docKey(id)
		if err := removePostings(docs, termsB, key, id); err != nil {
			return err
		}
		return docs.Delete(key)
	})
}

// Search implements search.Provider. Documents are scored by summed term
// frequency normalized by document length; every query term is optional.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := termFrequencies(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	scores := make(map[int]float64)
	err := p.db.View(func(tx *bbolt.Tx) error {
		termsB := tx.Bucket([]byte(termsBucket))
		for term := range queryTerms {
			postings, err := readPostings(termsB, term)
			if err != nil {
				return err
			}
			for idStr, freq := range postings {
				id, err := strconv.Atoi(idStr)
				if err != nil {
					continue
				}
				scores[id] += float64(freq)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}

	var hits []search.Hit
	err = p.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket([]byte(docsBucket))
		for _, id := range ids {
			raw := docs.Get(docKey(id))
			if raw == nil {
				continue
			}
			var record docRecord
			if err := json.Unmarshal(raw, &record); err != nil {
				return err
			}
			score := scores[id]
			if record.Length > 0 {
				score /= float64(record.Length)
			}
			hits = append(hits, search.Hit{
				PageID:  id,
				Title:   record.Title,
				Snippet: record.Excerpt,
				Score:   score,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].PageID < hits[j].PageID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func removePostings(docs, termsB *bbolt.Bucket, key []byte, id int) error {
	raw := docs.Get(key)
	if raw == nil {
		return nil
	}
	var old docRecord
	if err := json.Unmarshal(raw, &old); err != nil {
		return err
	}
	for _, term := range old.Terms {
		postings, err := readPostings(termsB, term)
		if err != nil {
			return err
		}
		delete(postings, strconv.Itoa(id))
		if err := writePostings(termsB, term, postings); err != nil {
			return err
		}
	}
	return nil
}

func readPostings(b *bbolt.Bucket, term string) (map[string]int, error) {
	postings := make(map[string]int)
	raw := b.Get([]byte(term))
	if raw == nil {
		return postings, nil
	}
	if err := json.Unmarshal(raw, &postings); err != nil {
		return nil, err
	}
	return postings, nil
}

func writePostings(b *bbolt.Bucket, term string, postings map[string]int) error {
	if len(postings) == 0 {
		return b.Delete([]byte(term))
	}
	encoded, err := json.Marshal(postings)
	if err != nil {
		return err
	}
	return b.Put([]byte(term), encoded)
}

func docKey(id int) []byte {
	return []byte(strconv.Itoa(id))
}

// termFrequencies lowercases text and counts alphanumeric runs longer
// than one rune.
func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	var current strings.Builder
	flush := func() {
		if current.Len() > 1 {
			freqs[current.String()]++
		}
		current.Reset()
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return freqs
}

func excerpt(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) > 160 {
		return string(runes[:160]) + "…"
	}
	return body
}
