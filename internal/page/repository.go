package page

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"squirrelwiki/internal/models"
)

// Repository provides access to the page storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new page repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

const pageColumns = "id, parent_id, category_id, slug, title, format, current_content_id, position, published, created_at, updated_at, archived_at"

func scanPage(row interface{ Scan(...any) error }) (models.Page, error) {
	var p models.Page
	err := row.Scan(&p.ID, &p.ParentID, &p.CategoryID, &p.Slug, &p.Title, &p.Format,
		&p.CurrentContentID, &p.Position, &p.Published, &p.CreatedAt, &p.UpdatedAt, &p.ArchivedAt)
	return p, err
}

// FindByID finds a page by its id.
func (r *Repository) FindByID(id int) (models.Page, error) {
	return scanPage(r.DB.QueryRow("SELECT "+pageColumns+" FROM pages WHERE id = ?", id))
}

// FindByPath iteratively queries the database to find a page by its
// hierarchical slug path.
func (r *Repository) FindByPath(path []string) (models.Page, error) {
	if len(path) == 0 {
		return models.Page{}, sql.ErrNoRows
	}

	var page models.Page
	var parentID *int

	for _, slug := range path {
		var err error
		if parentID == nil {
			page, err = scanPage(r.DB.QueryRow("SELECT "+pageColumns+" FROM pages WHERE slug = ? AND parent_id IS NULL AND archived_at IS NULL", slug))
		} else {
			page, err = scanPage(r.DB.QueryRow("SELECT "+pageColumns+" FROM pages WHERE slug = ? AND parent_id = ? AND archived_at IS NULL", slug, *parentID))
		}
		if err != nil {
			return models.Page{}, err
		}

		pageID := page.ID
		parentID = &pageID
	}
	return page, nil
}

// GetPathByID recursively finds the full slug path of a page.
func (r *Repository) GetPathByID(pageID int) (string, error) {
	var slug string
	var parentID sql.NullInt64
	err := r.DB.QueryRow("SELECT slug, parent_id FROM pages WHERE id = ?", pageID).Scan(&slug, &parentID)
	if err != nil {
		return "", err
	}

	if !parentID.Valid {
		return slug, nil
	}

	parentPath, err := r.GetPathByID(int(parentID.Int64))
	if err != nil {
		return "", err
	}
	return parentPath + "/" + slug, nil
}

// FindBySlugAnywhere finds a non-archived page by bare slug regardless of
// position in the tree. Used by wiki-link resolution.
func (r *Repository) FindBySlugAnywhere(slug string) (models.Page, error) {
	return scanPage(r.DB.QueryRow("SELECT "+pageColumns+" FROM pages WHERE slug = ? AND archived_at IS NULL ORDER BY id LIMIT 1", slug))
}

// List lists all non-archived pages in tree display order.
func (r *Repository) List() ([]models.Page, error) {
	rows, err := r.DB.Query("SELECT " + pageColumns + " FROM pages WHERE archived_at IS NULL ORDER BY position ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListByCategory lists non-archived pages in a category.
func (r *Repository) ListByCategory(categoryID int) ([]models.Page, error) {
	rows, err := r.DB.Query("SELECT "+pageColumns+" FROM pages WHERE category_id = ? AND archived_at IS NULL ORDER BY position ASC, id ASC", categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// CountByCategory counts non-archived pages in a category.
func (r *Repository) CountByCategory(categoryID int) (int, error) {
	var n int
	err := r.DB.QueryRow("SELECT COUNT(*) FROM pages WHERE category_id = ? AND archived_at IS NULL", categoryID).Scan(&n)
	return n, err
}

// SlugExists reports whether a live sibling already uses slug. The IS
// comparison makes root pages (NULL parent) count as siblings too, which
// the UNIQUE constraint alone does not.
func (r *Repository) SlugExists(parentID *int, slug string, excludeID int) (bool, error) {
	var n int
	err := r.DB.QueryRow("SELECT COUNT(*) FROM pages WHERE parent_id IS ? AND slug = ? AND id != ? AND archived_at IS NULL",
		parentID, slug, excludeID).Scan(&n)
	return n > 0, err
}

// Create creates a new page and its initial content version in a
// transaction, returning the new page id.
func (r *Repository) Create(ctx context.Context, page *models.Page, content *models.PageContent) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "INSERT INTO pages (parent_id, category_id, slug, title, format, current_content_id, position, published) VALUES (?, ?, ?, ?, ?, -1, ?, ?)",
		page.ParentID, page.CategoryID, page.Slug, page.Title, page.Format, page.Position, page.Published)
	if err != nil {
		return 0, fmt.Errorf("error creating page: %w", err)
	}
	pageID, _ := res.LastInsertId()
	page.ID = int(pageID)

	res, err = tx.ExecContext(ctx, "INSERT INTO page_contents (page_id, version, body, author_id, comment) VALUES (?, 1, ?, ?, ?)",
		page.ID, content.Body, content.AuthorID, content.Comment)
	if err != nil {
		return 0, fmt.Errorf("error creating page content: %w", err)
	}
	contentID, _ := res.LastInsertId()

	if _, err := tx.ExecContext(ctx, "UPDATE pages SET current_content_id = ? WHERE id = ?", contentID, page.ID); err != nil {
		return 0, fmt.Errorf("error updating page with content ID: %w", err)
	}
	page.CurrentContentID = int(contentID)

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}
	return page.ID, nil
}

// CreateContent appends a new content version for a page and repoints the
// page's current content in a transaction.
func (r *Repository) CreateContent(ctx context.Context, content *models.PageContent) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) + 1 FROM page_contents WHERE page_id = ?", content.PageID).Scan(&version); err != nil {
		return fmt.Errorf("error computing next version: %w", err)
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO page_contents (page_id, version, body, author_id, comment) VALUES (?, ?, ?, ?, ?)",
		content.PageID, version, content.Body, content.AuthorID, content.Comment)
	if err != nil {
		return fmt.Errorf("error creating page content: %w", err)
	}
	contentID, _ := res.LastInsertId()
	content.ID = int(contentID)
	content.Version = version

	if _, err := tx.ExecContext(ctx, "UPDATE pages SET current_content_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", contentID, content.PageID); err != nil {
		return fmt.Errorf("error updating page with content ID: %w", err)
	}

	return tx.Commit()
}

// GetContent gets a content version by its id.
func (r *Repository) GetContent(contentID int) (models.PageContent, error) {
	var c models.PageContent
	err := r.DB.QueryRow("SELECT id, page_id, version, body, author_id, comment, created_at FROM page_contents WHERE id = ?", contentID).
		Scan(&c.ID, &c.PageID, &c.Version, &c.Body, &c.AuthorID, &c.Comment, &c.CreatedAt)
	return c, err
}

// GetContentByVersion gets a page's content at a specific version.
func (r *Repository) GetContentByVersion(pageID, version int) (models.PageContent, error) {
	var c models.PageContent
	err := r.DB.QueryRow("SELECT id, page_id, version, body, author_id, comment, created_at FROM page_contents WHERE page_id = ? AND version = ?", pageID, version).
		Scan(&c.ID, &c.PageID, &c.Version, &c.Body, &c.AuthorID, &c.Comment, &c.CreatedAt)
	return c, err
}

// ListVersions lists a page's content versions newest first, bodies
// omitted.
func (r *Repository) ListVersions(pageID int) ([]models.PageContent, error) {
	rows, err := r.DB.Query("SELECT id, page_id, version, author_id, comment, created_at FROM page_contents WHERE page_id = ? ORDER BY version DESC", pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []models.PageContent
	for rows.Next() {
		var c models.PageContent
		if err := rows.Scan(&c.ID, &c.PageID, &c.Version, &c.AuthorID, &c.Comment, &c.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, c)
	}
	return versions, rows.Err()
}

// Update rewrites a page's metadata.
func (r *Repository) Update(page *models.Page) error {
	_, err := r.DB.Exec("UPDATE pages SET parent_id = ?, category_id = ?, slug = ?, title = ?, format = ?, position = ?, published = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		page.ParentID, page.CategoryID, page.Slug, page.Title, page.Format, page.Position, page.Published, page.ID)
	return err
}

// Archive soft-deletes a page.
func (r *Repository) Archive(pageID int) error {
	_, err := r.DB.Exec("UPDATE pages SET archived_at = ? WHERE id = ?", time.Now(), pageID)
	return err
}

// HasChildren reports whether a page has non-archived children.
func (r *Repository) HasChildren(pageID int) (bool, error) {
	var n int
	if err := r.DB.QueryRow("SELECT COUNT(*) FROM pages WHERE parent_id = ? AND archived_at IS NULL", pageID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
