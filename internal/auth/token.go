package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

// TokenProvider authenticates bearer tokens issued by an external identity
// system: an HS256 JWT whose subject matches a provisioned "token"
// identity. Registered through the plugin framework and configured with
// the shared secret and expected issuer.
type TokenProvider struct {
	Repo   *Repository
	Secret []byte
	Issuer string
}

// Name implements Provider.
func (p *TokenProvider) Name() string { return "token" }

// Authenticate implements Provider.
func (p *TokenProvider) Authenticate(ctx context.Context, creds Credentials) (*models.User, error) {
	if creds.Token == "" {
		return nil, wikierrors.Unauthorized("token is required")
	}

	parsed, err := jwt.Parse(creds.Token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.Secret, nil
	}, jwt.WithIssuer(p.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, wikierrors.Unauthorized("invalid token")
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, wikierrors.Unauthorized("token has no subject")
	}

	identity, err := p.Repo.FindIdentityByProvider("token", subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wikierrors.Unauthorized("no account for this token")
		}
		return nil, wikierrors.Internal("read identity", err)
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
