package page

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"squirrelwiki/internal/cache"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/slug"
)

// Renderer turns markup into HTML. Implemented by the render pipeline.
type Renderer interface {
	Render(ctx context.Context, format, markup string) (string, error)
}

// FormatResolver returns the format for pages created without one. The
// settings layer supplies this from pages.default_format.
type FormatResolver func() string

// Service wraps the page repository with validation, versioning rules,
// rendering, and event publication.
type Service struct {
	repo          *Repository
	renderer      Renderer
	cache         *cache.Cache
	bus           *events.Bus
	defaultFormat FormatResolver
}

// NewService creates a page service. A nil defaultFormat falls back to
// markdown.
func NewService(repo *Repository, renderer Renderer, c *cache.Cache, bus *events.Bus, defaultFormat FormatResolver) *Service {
	if defaultFormat == nil {
		defaultFormat = func() string { return models.FormatMarkdown }
	}
	return &Service{repo: repo, renderer: renderer, cache: c, bus: bus, defaultFormat: defaultFormat}
}

// CreateInput carries the fields for a new page.
type CreateInput struct {
	ParentID   *int
	CategoryID *int
	Slug       string
	Title      string
	Format     string
	Body       string
	Published  bool
	AuthorID   int
	Comment    *string
}

// Create validates and creates a page with its first content version.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Page, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Page{}, wikierrors.Validation("page title is required")
	}
	if in.Slug == "" {
		in.Slug = slug.Make(in.Title)
	}
	if !slug.Valid(in.Slug) {
		return models.Page{}, wikierrors.Validation("invalid page slug")
	}
	if in.Format == "" {
		in.Format = s.defaultFormat()
	}
	if in.Format != models.FormatMarkdown && in.Format != models.FormatOrg {
		return models.Page{}, wikierrors.Validation("unknown page format " + in.Format)
	}
	if in.ParentID != nil {
		if _, err := s.repo.FindByID(*in.ParentID); err != nil {
			return models.Page{}, wikierrors.Validation("parent page does not exist")
		}
	}
	if taken, err := s.repo.SlugExists(in.ParentID, in.Slug, 0); err != nil {
		return models.Page{}, wikierrors.Internal("check page slug", err)
	} else if taken {
		return models.Page{}, wikierrors.Conflict("a sibling page with slug " + in.Slug + " already exists")
	}

	page := models.Page{
		ParentID:   in.ParentID,
		CategoryID: in.CategoryID,
		Slug:       in.Slug,
		Title:      in.Title,
		Format:     in.Format,
		Published:  in.Published,
	}
	content := models.PageContent{
		Body:     in.Body,
		AuthorID: in.AuthorID,
		Comment:  in.Comment,
	}

	if _, err := s.repo.Create(ctx, &page, &content); err != nil {
		if isUniqueViolation(err) {
			return models.Page{}, wikierrors.Conflict("a sibling page with slug " + in.Slug + " already exists")
		}
		return models.Page{}, wikierrors.Internal("create page", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.PageCreated, ID: page.ID, Key: page.Slug})
	return page, nil
}

// UpdateInput carries mutable page metadata. Nil fields are left alone.
type UpdateInput struct {
	Title      *string
	Slug       *string
	CategoryID *int
	Position   *int
	Published  *bool
}

// Update rewrites page metadata.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (models.Page, error) {
	page, err := s.get(id)
	if err != nil {
		return models.Page{}, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return models.Page{}, wikierrors.Validation("page title is required")
		}
		page.Title = *in.Title
	}
	if in.Slug != nil {
		if !slug.Valid(*in.Slug) {
			return models.Page{}, wikierrors.Validation("invalid page slug")
		}
		if taken, err := s.repo.SlugExists(page.ParentID, *in.Slug, page.ID); err != nil {
			return models.Page{}, wikierrors.Internal("check page slug", err)
		} else if taken {
			return models.Page{}, wikierrors.Conflict("a sibling page with slug " + *in.Slug + " already exists")
		}
		page.Slug = *in.Slug
	}
	if in.CategoryID != nil {
		page.CategoryID = in.CategoryID
	}
	if in.Position != nil {
		page.Position = *in.Position
	}
	if in.Published != nil {
		page.Published = *in.Published
	}

	if err := s.repo.Update(&page); err != nil {
		if isUniqueViolation(err) {
			return models.Page{}, wikierrors.Conflict("a sibling page with slug " + page.Slug + " already exists")
		}
		return models.Page{}, wikierrors.Internal("update page", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.PageUpdated, ID: page.ID, Key: page.Slug})
	return page, nil
}

// Save appends a new content version for a page.
func (s *Service) Save(ctx context.Context, pageID int, body string, authorID int, comment *string) (models.PageContent, error) {
	page, err := s.get(pageID)
	if err != nil {
		return models.PageContent{}, err
	}

	content := models.PageContent{PageID: page.ID, Body: body, AuthorID: authorID, Comment: comment}
	if err := s.repo.CreateContent(ctx, &content); err != nil {
		return models.PageContent{}, wikierrors.Internal("save page content", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.PageUpdated, ID: page.ID, Key: page.Slug})
	return content, nil
}

// GetByPath resolves a hierarchical slug path to a page and its current
// body.
func (s *Service) GetByPath(path string) (models.Page, models.PageContent, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	page, err := s.repo.FindByPath(parts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Page{}, models.PageContent{}, wikierrors.NotFound("page " + path)
		}
		return models.Page{}, models.PageContent{}, wikierrors.Internal("find page", err)
	}
	page.Path = strings.Trim(path, "/")

	content, err := s.repo.GetContent(page.CurrentContentID)
	if err != nil {
		return models.Page{}, models.PageContent{}, wikierrors.Internal("read page content", err)
	}
	return page, content, nil
}

// Get returns a page and its current body by id.
func (s *Service) Get(id int) (models.Page, models.PageContent, error) {
	page, err := s.get(id)
	if err != nil {
		return models.Page{}, models.PageContent{}, err
	}
	content, err := s.repo.GetContent(page.CurrentContentID)
	if err != nil {
		return models.Page{}, models.PageContent{}, wikierrors.Internal("read page content", err)
	}
	return page, content, nil
}

// RenderedHTML renders a page's current body through the pipeline, cached
// per content version.
func (s *Service) RenderedHTML(ctx context.Context, page models.Page, content models.PageContent) (string, error) {
	key := fmt.Sprintf("%s%d:%d", cache.PrefixPage, page.ID, content.ID)
	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}

	html, err := s.renderer.Render(ctx, page.Format, content.Body)
	if err != nil {
		return "", wikierrors.Internal("render page", err)
	}
	s.cache.Set(key, html)
	return html, nil
}

// History lists a page's versions newest first.
func (s *Service) History(pageID int) ([]models.PageContent, error) {
	if _, err := s.get(pageID); err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(pageID)
	if err != nil {
		return nil, wikierrors.Internal("list page versions", err)
	}
	return versions, nil
}

// Restore makes an old version current by saving its body as a new
// version.
func (s *Service) Restore(ctx context.Context, pageID, version, authorID int) (models.PageContent, error) {
	old, err := s.repo.GetContentByVersion(pageID, version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PageContent{}, wikierrors.NotFound(fmt.Sprintf("version %d of page %d", version, pageID))
		}
		return models.PageContent{}, wikierrors.Internal("read page version", err)
	}

	comment := fmt.Sprintf("restored version %d", version)
	return s.Save(ctx, pageID, old.Body, authorID, &comment)
}

// DiffHTML renders the difference between two versions of a page as HTML
// with ins/del/span markers.
func (s *Service) DiffHTML(pageID, fromVersion, toVersion int) (string, error) {
	from, err := s.repo.GetContentByVersion(pageID, fromVersion)
	if err != nil {
		return "", wikierrors.NotFound(fmt.Sprintf("version %d of page %d", fromVersion, pageID))
	}
	to, err := s.repo.GetContentByVersion(pageID, toVersion)
	if err != nil {
		return "", wikierrors.NotFound(fmt.Sprintf("version %d of page %d", toVersion, pageID))
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(from.Body, to.Body, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buff bytes.Buffer
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			buff.WriteString("<ins>")
			writeEscaped(&buff, diff.Text)
			buff.WriteString("</ins>")
		case diffmatchpatch.DiffDelete:
			buff.WriteString("<del>")
			writeEscaped(&buff, diff.Text)
			buff.WriteString("</del>")
		case diffmatchpatch.DiffEqual:
			buff.WriteString("<span>")
			writeEscaped(&buff, diff.Text)
			buff.WriteString("</span>")
		}
	}
	return buff.String(), nil
}

// Delete archives a page. Pages with live children cannot be archived.
func (s *Service) Delete(ctx context.Context, pageID int) error {
	page, err := s.get(pageID)
	if err != nil {
		return err
	}

	hasChildren, err := s.repo.HasChildren(pageID)
	if err != nil {
		return wikierrors.Internal("check page children", err)
	}
	if hasChildren {
		return wikierrors.Validation("page has child pages; move or archive them first")
	}

	if err := s.repo.Archive(pageID); err != nil {
		return wikierrors.Internal("archive page", err)
	}

	s.bus.Publish(ctx, events.Event{Name: events.PageDeleted, ID: page.ID, Key: page.Slug})
	return nil
}

// Tree returns the navigation tree of all live pages, cached.
func (s *Service) Tree() ([]*models.Page, error) {
	if v, ok := s.cache.Get(cache.PrefixTree + "pages"); ok {
		return v.([]*models.Page), nil
	}

	pages, err := s.repo.List()
	if err != nil {
		return nil, wikierrors.Internal("list pages", err)
	}
	tree := BuildTree(pages)
	s.cache.Set(cache.PrefixTree+"pages", tree)
	return tree, nil
}

func (s *Service) get(id int) (models.Page, error) {
	page, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Page{}, wikierrors.NotFound(fmt.Sprintf("page %d", id))
		}
		return models.Page{}, wikierrors.Internal("find page", err)
	}
	if page.ArchivedAt != nil {
		return models.Page{}, wikierrors.NotFound(fmt.Sprintf("page %d", id))
	}
	return page, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func writeEscaped(buff *bytes.Buffer, s string) {
	replacer := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	buff.WriteString(replacer.Replace(s))
}
