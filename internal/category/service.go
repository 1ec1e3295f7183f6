package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"squirrelwiki/internal/cache"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/slug"
)

// PageCounter reports how many live pages a category holds. Implemented by
// the page repository.
type PageCounter interface {
	CountByCategory(categoryID int) (int, error)
}

// Service wraps the category repository with tree invariants.
type Service struct {
	repo  *Repository
	pages PageCounter
	cache *cache.Cache
	bus   *events.Bus
}

// NewService creates a category service.
func NewService(repo *Repository, pages PageCounter, c *cache.Cache, bus *events.Bus) *Service {
	return &Service{repo: repo, pages: pages, cache: c, bus: bus}
}

// Create validates and creates a category.
func (s *Service) Create(ctx context.Context, parentID *int, name, description string) (models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return models.Category{}, wikierrors.Validation("category name is required")
	}
	if parentID != nil {
		if _, err := s.get(*parentID); err != nil {
			return models.Category{}, wikierrors.Validation("parent category does not exist")
		}
	}

	c := models.Category{
		ParentID:    parentID,
		Slug:        slug.Make(name),
		Name:        name,
		Description: description,
	}
	if _, err := s.repo.Create(&c); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.Category{}, wikierrors.Conflict("a category with slug " + c.Slug + " already exists")
		}
		return models.Category{}, wikierrors.Internal("create category", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.CategoryChanged, ID: c.ID, Key: c.Slug})
	return c, nil
}

// Move reparents a category. Moving a category under itself or one of its
// descendants is rejected.
func (s *Service) Move(ctx context.Context, id int, newParentID *int) (models.Category, error) {
	c, err := s.get(id)
	if err != nil {
		return models.Category{}, err
	}

	if newParentID != nil {
		if *newParentID == id {
			return models.Category{}, wikierrors.Validation("category cannot be its own parent")
		}
		if _, err := s.get(*newParentID); err != nil {
			return models.Category{}, wikierrors.Validation("parent category does not exist")
		}
		descendant, err := s.isDescendant(*newParentID, id)
		if err != nil {
			return models.Category{}, err
		}
		if descendant {
			return models.Category{}, wikierrors.Validation("category cannot be moved under its own descendant")
		}
	}

	c.ParentID = newParentID
	if err := s.repo.Update(&c); err != nil {
		return models.Category{}, wikierrors.Internal("move category", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.CategoryChanged, ID: c.ID, Key: c.Slug})
	return c, nil
}

// Update rewrites a category's name and description.
func (s *Service) Update(ctx context.Context, id int, name, description string) (models.Category, error) {
	c, err := s.get(id)
	if err != nil {
		return models.Category{}, err
	}
	if strings.TrimSpace(name) == "" {
		return models.Category{}, wikierrors.Validation("category name is required")
	}

	c.Name = name
	c.Description = description
	if err := s.repo.Update(&c); err != nil {
		return models.Category{}, wikierrors.Internal("update category", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.CategoryChanged, ID: c.ID, Key: c.Slug})
	return c, nil
}

// Delete archives a category. Only empty leaf categories can be deleted.
func (s *Service) Delete(ctx context.Context, id int) error {
	c, err := s.get(id)
	if err != nil {
		return err
	}

	hasChildren, err := s.repo.HasChildren(id)
	if err != nil {
		return wikierrors.Internal("check category children", err)
	}
	if hasChildren {
		return wikierrors.Validation("category has child categories")
	}

	pageCount, err := s.pages.CountByCategory(id)
	if err != nil {
		return wikierrors.Internal("count category pages", err)
	}
	if pageCount > 0 {
		return wikierrors.Validation("category still holds pages")
	}

	if err := s.repo.Archive(id); err != nil {
		return wikierrors.Internal("archive category", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.CategoryChanged, ID: c.ID, Key: c.Slug})
	return nil
}

// Tree returns the category tree in display order, cached.
func (s *Service) Tree() ([]*models.Category, error) {
	if v, ok := s.cache.Get(cache.PrefixCategory + "tree"); ok {
		return v.([]*models.Category), nil
	}

	flat, err := s.repo.List()
	if err != nil {
		return nil, wikierrors.Internal("list categories", err)
	}

	nodeMap := make(map[int]*models.Category)
	for i := range flat {
		c := flat[i]
		nodeMap[c.ID] = &c
	}

	var roots []*models.Category
	for _, c := range flat {
		node := nodeMap[c.ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodeMap[*node.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}

	s.cache.Set(cache.PrefixCategory+"tree", roots)
	return roots, nil
}

// isDescendant reports whether candidate sits somewhere below ancestor.
func (s *Service) isDescendant(candidate, ancestor int) (bool, error) {
	current := candidate
	for {
		c, err := s.repo.FindByID(current)
		if err != nil {
			return false, wikierrors.Internal("walk category tree", err)
		}
		if c.ParentID == nil {
			return false, nil
		}
		if *c.ParentID == ancestor {
			return true, nil
		}
		current = *c.ParentID
	}
}

func (s *Service) get(id int) (models.Category, error) {
	c, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Category{}, wikierrors.NotFound(fmt.Sprintf("category %d", id))
		}
		return models.Category{}, wikierrors.Internal("find category", err)
	}
	if c.ArchivedAt != nil {
		return models.Category{}, wikierrors.NotFound(fmt.Sprintf("category %d", id))
	}
	return c, nil
}
