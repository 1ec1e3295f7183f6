package menu

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"squirrelwiki/internal/cache"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
)

// Service wraps the menu repository with validation and caching.
type Service struct {
	repo  *Repository
	cache *cache.Cache
	bus   *events.Bus
}

// NewService creates a menu service.
func NewService(repo *Repository, c *cache.Cache, bus *events.Bus) *Service {
	return &Service{repo: repo, cache: c, bus: bus}
}

// Get returns a menu by name, cached for navigation rendering.
func (s *Service) Get(name string) (models.Menu, error) {
	if v, ok := s.cache.Get(cache.PrefixMenu + name); ok {
		return v.(models.Menu), nil
	}

	m, err := s.repo.FindByName(name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Menu{}, wikierrors.NotFound("menu " + name)
		}
		return models.Menu{}, wikierrors.Internal("find menu", err)
	}
	s.cache.Set(cache.PrefixMenu+name, m)
	return m, nil
}

// List lists all menus.
func (s *Service) List() ([]models.Menu, error) {
	menus, err := s.repo.List()
	if err != nil {
		return nil, wikierrors.Internal("list menus", err)
	}
	return menus, nil
}

// Create creates an empty named menu.
func (s *Service) Create(ctx context.Context, name string) (models.Menu, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Menu{}, wikierrors.Validation("menu name is required")
	}

	id, err := s.repo.Create(name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Menu{}, wikierrors.Conflict("menu " + name + " already exists")
		}
		return models.Menu{}, wikierrors.Internal("create menu", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.MenuChanged, ID: id, Key: name})
	return models.Menu{ID: id, Name: name}, nil
}

// AddItem appends an item. Exactly one of url or pageID must be set.
func (s *Service) AddItem(ctx context.Context, menuName, label string, url *string, pageID *int) (models.MenuItem, error) {
	if strings.TrimSpace(label) == "" {
		return models.MenuItem{}, wikierrors.Validation("menu item label is required")
	}
	if (url == nil) == (pageID == nil) {
		return models.MenuItem{}, wikierrors.Validation("menu item needs exactly one of url or page")
	}

	m, err := s.Get(menuName)
	if err != nil {
		return models.MenuItem{}, err
	}

	item := models.MenuItem{MenuID: m.ID, Label: label, URL: url, PageID: pageID}
	if _, err := s.repo.AddItem(&item); err != nil {
		return models.MenuItem{}, wikierrors.Internal("add menu item", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.MenuChanged, ID: m.ID, Key: m.Name})
	return item, nil
}

// RemoveItem deletes an item from a menu.
func (s *Service) RemoveItem(ctx context.Context, menuName string, itemID int) error {
	m, err := s.Get(menuName)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveItem(itemID); err != nil {
		return wikierrors.Internal("remove menu item", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.MenuChanged, ID: m.ID, Key: m.Name})
	return nil
}

// Reorder rewrites the item order of a menu. Every current item id must
// appear exactly once.
func (s *Service) Reorder(ctx context.Context, menuName string, itemIDs []int) error {
	m, err := s.Get(menuName)
	if err != nil {
		return err
	}

	if len(itemIDs) != len(m.Items) {
		return wikierrors.Validation("reorder must list every menu item exactly once")
	}
	known := make(map[int]bool, len(m.Items))
	for _, it := range m.Items {
		known[it.ID] = true
	}
	for _, id := range itemIDs {
		if !known[id] {
			return wikierrors.Validation("reorder references an unknown menu item")
		}
		delete(known, id)
	}

	if err := s.repo.Reorder(m.ID, itemIDs); err != nil {
		return wikierrors.Internal("reorder menu", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.MenuChanged, ID: m.ID, Key: m.Name})
	return nil
}

// Delete removes a menu entirely.
func (s *Service) Delete(ctx context.Context, menuName string) error {
	m, err := s.Get(menuName)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(m.ID); err != nil {
		return wikierrors.Internal("delete menu", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.MenuChanged, ID: m.ID, Key: m.Name})
	return nil
}
