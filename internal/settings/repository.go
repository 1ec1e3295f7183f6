package settings

import (
	"database/sql"

	"squirrelwiki/internal/models"
)

// Repository provides access to the site configuration storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// Get returns the stored setting for key.
func (r *Repository) Get(key string) (*models.Setting, error) {
	var s models.Setting
	err := r.DB.QueryRow("SELECT key, value, env_overridable, updated_at FROM site_configuration WHERE key = ?", key).
		Scan(&s.Key, &s.Value, &s.EnvOverridable, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all stored settings ordered by key.
func (r *Repository) List() ([]models.Setting, error) {
	rows, err := r.DB.Query("SELECT key, value, env_overridable, updated_at FROM site_configuration ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Setting
	for rows.Next() {
		var s models.Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.EnvOverridable, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Set upserts a setting value.
func (r *Repository) Set(key, value string, envOverridable bool) error {
	_, err := r.DB.Exec(`INSERT INTO site_configuration (key, value, env_overridable, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, env_overridable = excluded.env_overridable, updated_at = CURRENT_TIMESTAMP`,
		key, value, envOverridable)
	return err
}

// Delete removes a stored setting, reverting the key to its default.
func (r *Repository) Delete(key string) error {
	_, err := r.DB.Exec("DELETE FROM site_configuration WHERE key = ?", key)
	return err
}
