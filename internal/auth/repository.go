package auth

import (
	"database/sql"

	"squirrelwiki/internal/models"
)

// Repository provides access to the user and identity storage.
type Repository struct {
	DB *sql.DB
}

// NewRepository creates a new authentication repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// FindUserByUsername finds an active user by username, roles included.
func (r *Repository) FindUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.DB.QueryRow("SELECT id, username, display_name, email, created_at FROM users WHERE username = ? AND disabled_at IS NULL", username).
		Scan(&user.ID, &user.Username, &user.DisplayName, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByID finds an active user by id, roles included.
func (r *Repository) FindUserByID(id int) (*models.User, error) {
	var user models.User
	err := r.DB.QueryRow("SELECT id, username, display_name, email, created_at FROM users WHERE id = ? AND disabled_at IS NULL", id).
		Scan(&user.ID, &user.Username, &user.DisplayName, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) loadRoles(user *models.User) error {
	rows, err := r.DB.Query(`SELECT roles.name FROM roles
		JOIN user_roles ON user_roles.role_id = roles.id
		WHERE user_roles.user_id = ? ORDER BY roles.name`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		user.Roles = append(user.Roles, name)
	}
	return rows.Err()
}

// FindIdentityByProvider finds an identity by provider and provider user ID.
func (r *Repository) FindIdentityByProvider(provider, providerUserID string) (*models.Identity, error) {
	var identity models.Identity
	err := r.DB.QueryRow("SELECT id, user_id, provider, provider_user_id, password_hash FROM identities WHERE provider = ? AND provider_user_id = ?", provider, providerUserID).
		Scan(&identity.ID, &identity.UserID, &identity.Provider, &identity.ProviderUserID, &identity.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateUser creates a user, its identity, and its roles in a transaction.
func (r *Repository) CreateUser(user *models.User, identity *models.Identity, roles []string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO users (username, display_name, email) VALUES (?, ?, ?)", user.Username, user.DisplayName, user.Email)
	if err != nil {
		return err
	}

	userID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = int(userID)
	identity.UserID = user.ID

	_, err = tx.Exec("INSERT INTO identities (user_id, provider, provider_user_id, password_hash) VALUES (?, ?, ?, ?)",
		identity.UserID, identity.Provider, identity.ProviderUserID, identity.PasswordHash)
	if err != nil {
		return err
	}

	for _, role := range roles {
		if _, err := tx.Exec("INSERT OR IGNORE INTO roles (name) VALUES (?)", role); err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name = ?", user.ID, role); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GrantRole assigns a role to a user, creating the role row if needed.
func (r *Repository) GrantRole(userID int, role string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("INSERT OR IGNORE INTO roles (name) VALUES (?)", role); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT OR IGNORE INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name = ?", userID, role); err != nil {
		return err
	}
	return tx.Commit()
}

// RevokeRole removes a role from a user.
func (r *Repository) RevokeRole(userID int, role string) error {
	_, err := r.DB.Exec("DELETE FROM user_roles WHERE user_id = ? AND role_id = (SELECT id FROM roles WHERE name = ?)", userID, role)
	return err
}
