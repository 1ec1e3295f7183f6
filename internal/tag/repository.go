package tag

import (
	"database/sql"

	"squirrelwiki/internal/models"
)

// Repository provides access to the tag storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new tag repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// FindBySlug finds a tag by slug.
func (r *Repository) FindBySlug(slug string) (models.Tag, error) {
	var t models.Tag
	err := r.DB.QueryRow("SELECT id, slug, name FROM tags WHERE slug = ?", slug).Scan(&t.ID, &t.Slug, &t.Name)
	return t, err
}

// FindByID finds a tag by id.
func (r *Repository) FindByID(id int) (models.Tag, error) {
	var t models.Tag
	err := r.DB.QueryRow("SELECT id, slug, name FROM tags WHERE id = ?", id).Scan(&t.ID, &t.Slug, &t.Name)
	return t, err
}

// Create inserts a tag and returns its id.
func (r *Repository) Create(t *models.Tag) (int, error) {
	res, err := r.DB.Exec("INSERT INTO tags (slug, name) VALUES (?, ?)", t.Slug, t.Name)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	t.ID = int(id)
	return t.ID, nil
}

// List lists all tags with their live page counts.
func (r *Repository) List() ([]models.Tag, error) {
	rows, err := r.DB.Query(`SELECT tags.id, tags.slug, tags.name, COUNT(pages.id)
		FROM tags
		LEFT JOIN page_tags ON page_tags.tag_id = tags.id
		LEFT JOIN pages ON pages.id = page_tags.page_id AND pages.archived_at IS NULL
		GROUP BY tags.id ORDER BY tags.slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.PageCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListByPage lists the tags attached to a page.
func (r *Repository) ListByPage(pageID int) ([]models.Tag, error) {
	rows, err := r.DB.Query(`SELECT tags.id, tags.slug, tags.name FROM tags
		JOIN page_tags ON page_tags.tag_id = tags.id
		WHERE page_tags.page_id = ? ORDER BY tags.slug`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListPageIDs lists the live page ids carrying a tag.
func (r *Repository) ListPageIDs(tagID int) ([]int, error) {
	rows, err := r.DB.Query(`SELECT pages.id FROM pages
		JOIN page_tags ON page_tags.page_id = pages.id
		WHERE page_tags.tag_id = ? AND pages.archived_at IS NULL ORDER BY pages.id`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Attach links a tag to a page.
func (r *Repository) Attach(pageID, tagID int) error {
	_, err := r.DB.Exec("INSERT OR IGNORE INTO page_tags (page_id, tag_id) VALUES (?, ?)", pageID, tagID)
	return err
}

// Detach unlinks a tag from a page.
func (r *Repository) Detach(pageID, tagID int) error {
	_, err := r.DB.Exec("DELETE FROM page_tags WHERE page_id = ? AND tag_id = ?", pageID, tagID)
	return err
}

// Rename updates a tag's name and slug.
func (r *Repository) Rename(t *models.Tag) error {
	_, err := r.DB.Exec("UPDATE tags SET slug = ?, name = ? WHERE id = ?", t.Slug, t.Name, t.ID)
	return err
}

// MergeInto repoints every page of src onto dst and removes src.
func (r *Repository) MergeInto(srcID, dstID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO page_tags (page_id, tag_id) SELECT page_id, ? FROM page_tags WHERE tag_id = ?", dstID, srcID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM page_tags WHERE tag_id = ?", srcID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM tags WHERE id = ?", srcID); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a tag and its page links.
func (r *Repository) Delete(tagID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM page_tags WHERE tag_id = ?", tagID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM tags WHERE id = ?", tagID); err != nil {
		return err
	}
	return tx.Commit()
}
