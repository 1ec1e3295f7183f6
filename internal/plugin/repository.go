package plugin

import (
	"database/sql"
	"time"

	"squirrelwiki/internal/models"
)

// Repository provides access to the plugin state storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new plugin repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

const pluginColumns = "id, name, kind, state, description, installed_at, updated_at"

func scanPlugin(row interface{ Scan(...any) error }) (models.Plugin, error) {
	var p models.Plugin
	err := row.Scan(&p.ID, &p.Name, &p.Kind, &p.State, &p.Description, &p.InstalledAt, &p.UpdatedAt)
	return p, err
}

// FindByName finds a plugin row by name.
func (r *Repository) FindByName(name string) (models.Plugin, error) {
	return scanPlugin(r.DB.QueryRow("SELECT "+pluginColumns+" FROM plugins WHERE name = ?", name))
}

// List lists all plugin rows ordered by kind then name.
func (r *Repository) List() ([]models.Plugin, error) {
	rows, err := r.DB.Query("SELECT " + pluginColumns + " FROM plugins ORDER BY kind, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Plugin
	for rows.Next() {
		p, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByKindAndState lists plugins of one kind in one state.
func (r *Repository) ListByKindAndState(kind, state string) ([]models.Plugin, error) {
	rows, err := r.DB.Query("SELECT "+pluginColumns+" FROM plugins WHERE kind = ? AND state = ? ORDER BY name", kind, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Plugin
	for rows.Next() {
		p, err := scanPlugin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create inserts a plugin row in the given state.
func (r *Repository) Create(p *models.Plugin) error {
	res, err := r.DB.Exec("INSERT INTO plugins (name, kind, state, description, installed_at) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Kind, p.State, p.Description, p.InstalledAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	p.ID = int(id)
	return nil
}

// SetState updates a plugin's lifecycle state.
func (r *Repository) SetState(pluginID int, state string) error {
	if state == models.PluginStateInstalled {
		_, err := r.DB.Exec("UPDATE plugins SET state = ?, installed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", state, time.Now(), pluginID)
		return err
	}
	_, err := r.DB.Exec("UPDATE plugins SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", state, pluginID)
	return err
}

// Settings reads all settings of a plugin.
func (r *Repository) Settings(pluginID int) (map[string]string, error) {
	rows, err := r.DB.Query("SELECT key, value FROM plugin_settings WHERE plugin_id = ?", pluginID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

// SetSetting upserts one plugin setting.
func (r *Repository) SetSetting(pluginID int, key, value string) error {
	_, err := r.DB.Exec(`INSERT INTO plugin_settings (plugin_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(plugin_id, key) DO UPDATE SET value = excluded.value`, pluginID, key, value)
	return err
}

// Audit appends an audit log row.
func (r *Repository) Audit(pluginID int, actor, action, detail string) error {
	_, err := r.DB.Exec("INSERT INTO plugin_audit_log (plugin_id, actor, action, detail) VALUES (?, ?, ?, ?)",
		pluginID, actor, action, detail)
	return err
}

// AuditLog lists a plugin's audit entries newest first.
func (r *Repository) AuditLog(pluginID int, limit int) ([]models.PluginAuditLog, error) {
	rows, err := r.DB.Query("SELECT id, plugin_id, actor, action, detail, occurred_at FROM plugin_audit_log WHERE plugin_id = ? ORDER BY id DESC LIMIT ?", pluginID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PluginAuditLog
	for rows.Next() {
		var e models.PluginAuditLog
		if err := rows.Scan(&e.ID, &e.PluginID, &e.Actor, &e.Action, &e.Detail, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
