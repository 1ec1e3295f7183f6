package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/database"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestHashPasswordRejectsShortPasswords(t *testing.T) {
	_, err := HashPassword("short")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))
}

func TestRegisterAndLocalAuthenticate(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(repo, nil)

	user, err := svc.RegisterUser("alice", "Alice", "alice@example.com", "correct horse", []string{models.RoleEditor})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.HasRole(models.RoleEditor))

	provider := &LocalProvider{Repo: repo}

	got, err := provider.Authenticate(context.Background(), Credentials{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = provider.Authenticate(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeUnauthorized))

	_, err = provider.Authenticate(context.Background(), Credentials{Username: "nobody", Password: "whatever"})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeUnauthorized))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(repo, nil)

	_, err := svc.RegisterUser("bob", "", "", "password1", nil)
	require.NoError(t, err)

	_, err = svc.RegisterUser("bob", "", "", "password2", nil)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeConflict))
}

func TestRegisterDefaultsToReaderRole(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(repo, nil)

	user, err := svc.RegisterUser("carol", "", "", "password1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleReader}, user.Roles)
}

func TestGrantAndRevokeRole(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(repo, nil)

	user, err := svc.RegisterUser("dave", "", "", "password1", nil)
	require.NoError(t, err)

	require.NoError(t, repo.GrantRole(user.ID, models.RoleAdmin))
	reloaded, err := repo.FindUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasRole(models.RoleAdmin))

	require.NoError(t, repo.RevokeRole(user.ID, models.RoleAdmin))
	reloaded, err = repo.FindUserByID(user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasRole(models.RoleAdmin))
}

func TestTokenProvider(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(repo, nil)

	_, err := svc.RegisterUser("erin", "", "", "password1", nil)
	require.NoError(t, err)

	// Provision a token identity pointing at the account.
	tokenUser := &models.User{Username: "erin-token", DisplayName: "Erin"}
	identity := &models.Identity{Provider: "token", ProviderUserID: "erin@idp"}
	require.NoError(t, repo.CreateUser(tokenUser, identity, []string{models.RoleReader}))

	secret := []byte("0123456789abcdef0123456789abcdef")
	provider := &TokenProvider{Repo: repo, Secret: secret, Issuer: "idp.example.com"}

	sign := func(claims jwt.MapClaims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		s, err := tok.SignedString(secret)
		require.NoError(t, err)
		return s
	}

	valid := sign(jwt.MapClaims{
		"iss": "idp.example.com",
		"sub": "erin@idp",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	got, err := provider.Authenticate(context.Background(), Credentials{Token: valid})
	require.NoError(t, err)
	assert.Equal(t, "erin-token", got.Username)

	expired := sign(jwt.MapClaims{
		"iss": "idp.example.com",
		"sub": "erin@idp",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = provider.Authenticate(context.Background(), Credentials{Token: expired})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeUnauthorized))

	wrongIssuer := sign(jwt.MapClaims{
		"iss": "elsewhere",
		"sub": "erin@idp",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = provider.Authenticate(context.Background(), Credentials{Token: wrongIssuer})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeUnauthorized))

	unknownSubject := sign(jwt.MapClaims{
		"iss": "idp.example.com",
		"sub": "stranger@idp",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	_, err = provider.Authenticate(context.Background(), Credentials{Token: unknownSubject})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeUnauthorized))

	_, err = provider.Authenticate(context.Background(), Credentials{})
	assert.True(t, wikierrors.Is(err, wikierrors.CodeUnauthorized))
}
