// Package search defines the pluggable search contract and the service
// that routes indexing and queries to the active provider.
package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
)

// Document is a page prepared for indexing.
type Document struct {
	ID    int
	Title string
	Body  string
}

// Hit is one search result.
type Hit struct {
	PageID  int
	Title   string
	Snippet string
	Score   float64
}

// Provider indexes documents and answers queries. Exactly one provider is
// active at a time, chosen through plugin enablement.
type Provider interface {
	Name() string
	Index(ctx context.Context, doc Document) error
	Remove(ctx context.Context, id int) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

// ProviderResolver returns the active provider. The plugin manager
// supplies this; the service falls back to its default provider when the
// resolver yields nil.
type ProviderResolver func() Provider

// PageSource feeds page data to the indexer. Implemented by the page
// repository.
type PageSource interface {
	FindByID(id int) (models.Page, error)
	List() ([]models.Page, error)
	GetContent(contentID int) (models.PageContent, error)
}

// Service dispatches to the active provider and keeps the index current
// by subscribing to page events.
type Service struct {
	resolver ProviderResolver
	fallback Provider
	pages    PageSource
	log      zerolog.Logger
}

// NewService creates a search service. fallback is used whenever the
// resolver returns nil.
func NewService(resolver ProviderResolver, fallback Provider, pages PageSource, log zerolog.Logger) *Service {
	s := &Service{resolver: resolver, fallback: fallback, pages: pages, log: log}
	if s.resolver == nil {
		s.resolver = func() Provider { return nil }
	}
	return s
}

// Subscribe wires page events to incremental index maintenance.
func (s *Service) Subscribe(bus *events.Bus) {
	index := func(ctx context.Context, ev events.Event) error {
		return s.IndexPage(ctx, ev.ID)
	}
	bus.Subscribe(events.PageCreated, index)
	bus.Subscribe(events.PageUpdated, index)
	bus.Subscribe(events.PageDeleted, func(ctx context.Context, ev events.Event) error {
		return s.active().Remove(ctx, ev.ID)
	})
}

func (s *Service) active() Provider {
	if p := s.resolver(); p != nil {
		return p
	}
	return s.fallback
}

// ActiveName reports which provider queries currently reach.
func (s *Service) ActiveName() string {
	return s.active().Name()
}

// IndexPage indexes a single page's current content. Unpublished and
// archived pages are removed from the index instead.
func (s *Service) IndexPage(ctx context.Context, pageID int) error {
	page, err := s.pages.FindByID(pageID)
	if err != nil {
		return err
	}
	if page.ArchivedAt != nil || !page.Published {
		return s.active().Remove(ctx, pageID)
	}

	content, err := s.pages.GetContent(page.CurrentContentID)
	if err != nil {
		return err
	}
	return s.active().Index(ctx, Document{ID: page.ID, Title: page.Title, Body: content.Body})
}

// Search runs a query against the active provider.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, wikierrors.Validation("search query is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	hits, err := s.active().Search(ctx, query, limit)
	if err != nil {
		return nil, wikierrors.Internal("search", err)
	}
	return hits, nil
}

// Reindex rebuilds the active provider's index from every live published
// page. Pages that fail to index are logged and skipped.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	pages, err := s.pages.List()
	if err != nil {
		return 0, wikierrors.Internal("list pages", err)
	}

	indexed := 0
	for _, page := range pages {
		if !page.Published {
			continue
		}
		if err := s.IndexPage(ctx, page.ID); err != nil {
			s.log.Warn().Err(err).Int("page_id", page.ID).Msg("reindex: skipping page")
			continue
		}
		indexed++
	}
	return indexed, nil
}
