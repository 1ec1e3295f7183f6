package auth

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

// Credentials carries what a client submitted to authenticate.
type Credentials struct {
	Username string
	Password string
	// Token is used by providers that authenticate with an opaque
	// assertion instead of a password.
	Token string
}

// Provider authenticates credentials against one identity provider. The
// built-in "local" provider checks bcrypt hashes; additional providers
// register through the plugin registry and only run while their plugin is
// enabled.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (*models.User, error)
}

// LocalProvider authenticates against identities with a stored bcrypt
// password hash.
type LocalProvider struct {
	Repo *Repository
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// Authenticate implements Provider.
func (p *LocalProvider) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	identity, err := p.Repo.FindIdentityByProvider("local", creds.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wikierrors.Unauthorized("invalid username or password")
		}
		return nil, wikierrors.Internal("read identity", err)
	}

	if identity.PasswordHash == nil {
		return nil, wikierrors.Unauthorized("user has no password set")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, wikierrors.Unauthorized("invalid username or password")
	}

	user, err := p.Repo.FindUserByID(identity.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wikierrors.Unauthorized("account disabled")
		}
		return nil, wikierrors.Internal("read user", err)
	}
	return user, nil
}

// HashPassword produces a bcrypt hash for storage on an identity.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", wikierrors.Validation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", wikierrors.Internal("hash password", err)
	}
	return string(hash), nil
}
