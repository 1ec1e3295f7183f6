package tag

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/slug"
)

// Service wraps the tag repository with normalization rules.
type Service struct {
	repo *Repository
	bus  *events.Bus
}

// NewService creates a tag service.
func NewService(repo *Repository, bus *events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Ensure returns the tag for name, creating it if needed. Names are
// normalized through their slug, so "Getting Started" and "getting-started"
// are the same tag.
func (s *Service) Ensure(ctx context.Context, name string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, wikierrors.Validation("tag name is required")
	}

	normalized := slug.Make(name)
	t, err := s.repo.FindBySlug(normalized)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, wikierrors.Internal("find tag", err)
	}

	t = models.Tag{Slug: normalized, Name: name}
	if _, err := s.repo.Create(&t); err != nil {
		return models.Tag{}, wikierrors.Internal("create tag", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.TagChanged, ID: t.ID, Key: t.Slug})
	return t, nil
}

// SetPageTags replaces a page's tags with the given names.
func (s *Service) SetPageTags(ctx context.Context, pageID int, names []string) ([]models.Tag, error) {
	current, err := s.repo.ListByPage(pageID)
	if err != nil {
		return nil, wikierrors.Internal("list page tags", err)
	}

	want := make(map[string]bool)
	var out []models.Tag
	for _, name := range names {
		t, err := s.Ensure(ctx, name)
		if err != nil {
			return nil, err
		}
		if want[t.Slug] {
			continue
		}
		want[t.Slug] = true
		out = append(out, t)
		if err := s.repo.Attach(pageID, t.ID); err != nil {
			return nil, wikierrors.Internal("attach tag", err)
		}
	}

	for _, t := range current {
		if !want[t.Slug] {
			if err := s.repo.Detach(pageID, t.ID); err != nil {
				return nil, wikierrors.Internal("detach tag", err)
			}
		}
	}

	s.bus.Publish(ctx, events.Event{Name: events.TagChanged, ID: pageID})
	return out, nil
}

// ListByPage lists the tags on a page.
func (s *Service) ListByPage(pageID int) ([]models.Tag, error) {
	tags, err := s.repo.ListByPage(pageID)
	if err != nil {
		return nil, wikierrors.Internal("list page tags", err)
	}
	return tags, nil
}

// List lists all tags with page counts.
func (s *Service) List() ([]models.Tag, error) {
	tags, err := s.repo.List()
	if err != nil {
		return nil, wikierrors.Internal("list tags", err)
	}
	return tags, nil
}

// PagesWithTag lists the live page ids carrying the tag with the given
// slug.
func (s *Service) PagesWithTag(tagSlug string) ([]int, error) {
	t, err := s.repo.FindBySlug(tagSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wikierrors.NotFound("tag " + tagSlug)
		}
		return nil, wikierrors.Internal("find tag", err)
	}
	ids, err := s.repo.ListPageIDs(t.ID)
	if err != nil {
		return nil, wikierrors.Internal("list tag pages", err)
	}
	return ids, nil
}

// Rename changes a tag's name. When the new name normalizes to an existing
// tag's slug, the two tags are merged.
func (s *Service) Rename(ctx context.Context, id int, newName string) (models.Tag, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return models.Tag{}, wikierrors.Validation("tag name is required")
	}

	t, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Tag{}, wikierrors.NotFound("tag")
		}
		return models.Tag{}, wikierrors.Internal("find tag", err)
	}

	normalized := slug.Make(newName)
	if existing, err := s.repo.FindBySlug(normalized); err == nil && existing.ID != t.ID {
		if err := s.repo.MergeInto(t.ID, existing.ID); err != nil {
			return models.Tag{}, wikierrors.Internal("merge tags", err)
		}
		s.bus.Publish(ctx, events.Event{Name: events.TagChanged, ID: existing.ID, Key: existing.Slug})
		return existing, nil
	}

	t.Name = newName
	t.Slug = normalized
	if err := s.repo.Rename(&t); err != nil {
		return models.Tag{}, wikierrors.Internal("rename tag", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.TagChanged, ID: t.ID, Key: t.Slug})
	return t, nil
}

// Delete removes a tag entirely.
func (s *Service) Delete(ctx context.Context, id int) error {
	if _, err := s.repo.FindByID(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wikierrors.NotFound("tag")
		}
		return wikierrors.Internal("find tag", err)
	}
	if err := s.repo.Delete(id); err != nil {
		return wikierrors.Internal("delete tag", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.TagChanged, ID: id})
	return nil
}
