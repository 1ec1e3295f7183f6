package menu

import (
	"database/sql"

	"squirrelwiki/internal/models"
)

// Repository provides access to the menu storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new menu repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// FindByName finds a menu with its ordered items.
func (r *Repository) FindByName(name string) (models.Menu, error) {
	var m models.Menu
	if err := r.DB.QueryRow("SELECT id, name FROM menus WHERE name = ?", name).Scan(&m.ID, &m.Name); err != nil {
		return models.Menu{}, err
	}

	items, err := r.listItems(m.ID)
	if err != nil {
		return models.Menu{}, err
	}
	m.Items = items
	return m, nil
}

// List lists all menus with their items.
func (r *Repository) List() ([]models.Menu, error) {
	rows, err := r.DB.Query("SELECT id, name FROM menus ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var menus []models.Menu
	for rows.Next() {
		var m models.Menu
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range menus {
		items, err := r.listItems(menus[i].ID)
		if err != nil {
			return nil, err
		}
		menus[i].Items = items
	}
	return menus, nil
}

func (r *Repository) listItems(menuID int) ([]models.MenuItem, error) {
	rows, err := r.DB.Query("SELECT id, menu_id, label, url, page_id, position FROM menu_items WHERE menu_id = ? ORDER BY position ASC, id ASC", menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.MenuID, &it.Label, &it.URL, &it.PageID, &it.Position); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Create inserts an empty menu and returns its id.
func (r *Repository) Create(name string) (int, error) {
	res, err := r.DB.Exec("INSERT INTO menus (name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return int(id), nil
}

// AddItem appends an item at the end of a menu.
func (r *Repository) AddItem(it *models.MenuItem) (int, error) {
	var position int
	if err := r.DB.QueryRow("SELECT COALESCE(MAX(position), -1) + 1 FROM menu_items WHERE menu_id = ?", it.MenuID).Scan(&position); err != nil {
		return 0, err
	}
	it.Position = position

	res, err := r.DB.Exec("INSERT INTO menu_items (menu_id, label, url, page_id, position) VALUES (?, ?, ?, ?, ?)",
		it.MenuID, it.Label, it.URL, it.PageID, it.Position)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	it.ID = int(id)
	return it.ID, nil
}

// RemoveItem deletes a menu item.
func (r *Repository) RemoveItem(itemID int) error {
	_, err := r.DB.Exec("DELETE FROM menu_items WHERE id = ?", itemID)
	return err
}

// Reorder rewrites item positions to match the given item id order.
func (r *Repository) Reorder(menuID int, itemIDs []int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for position, itemID := range itemIDs {
		if _, err := tx.Exec("UPDATE menu_items SET position = ? WHERE id = ? AND menu_id = ?", position, itemID, menuID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a menu and its items.
func (r *Repository) Delete(menuID int) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM menu_items WHERE menu_id = ?", menuID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM menus WHERE id = ?", menuID); err != nil {
		return err
	}
	return tx.Commit()
}
