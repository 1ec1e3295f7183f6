package category

import (
	"database/sql"
	"time"

	"squirrelwiki/internal/models"
)

// Repository provides access to the category storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new category repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

const categoryColumns = "id, parent_id, slug, name, description, position, created_at, archived_at"

func scanCategory(row interface{ Scan(...any) error }) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.ParentID, &c.Slug, &c.Name, &c.Description, &c.Position, &c.CreatedAt, &c.ArchivedAt)
	return c, err
}

// FindByID finds a category by id.
func (r *Repository) FindByID(id int) (models.Category, error) {
	return scanCategory(r.DB.QueryRow("SELECT "+categoryColumns+" FROM categories WHERE id = ?", id))
}

// FindBySlug finds a non-archived category by slug.
func (r *Repository) FindBySlug(slug string) (models.Category, error) {
	return scanCategory(r.DB.QueryRow("SELECT "+categoryColumns+" FROM categories WHERE slug = ? AND archived_at IS NULL", slug))
}

// List lists all non-archived categories in display order.
func (r *Repository) List() ([]models.Category, error) {
	rows, err := r.DB.Query("SELECT " + categoryColumns + " FROM categories WHERE archived_at IS NULL ORDER BY position ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a category and returns its id.
func (r *Repository) Create(c *models.Category) (int, error) {
	res, err := r.DB.Exec("INSERT INTO categories (parent_id, slug, name, description, position) VALUES (?, ?, ?, ?, ?)",
		c.ParentID, c.Slug, c.Name, c.Description, c.Position)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	c.ID = int(id)
	return c.ID, nil
}

// Update rewrites a category.
func (r *Repository) Update(c *models.Category) error {
	_, err := r.DB.Exec("UPDATE categories SET parent_id = ?, slug = ?, name = ?, description = ?, position = ? WHERE id = ?",
		c.ParentID, c.Slug, c.Name, c.Description, c.Position, c.ID)
	return err
}

// Archive soft-deletes a category.
func (r *Repository) Archive(id int) error {
	_, err := r.DB.Exec("UPDATE categories SET archived_at = ? WHERE id = ?", time.Now(), id)
	return err
}

// HasChildren reports whether a category has non-archived children.
func (r *Repository) HasChildren(id int) (bool, error) {
	var n int
	if err := r.DB.QueryRow("SELECT COUNT(*) FROM categories WHERE parent_id = ? AND archived_at IS NULL", id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
