package auth

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

const sessionName = "squirrelwiki-session"

// Store holds the cookie session store.
var Store *sessions.CookieStore

// InitSessionStore configures the cookie store. An empty key gets a
// random one, which invalidates sessions on restart; a configured key
// must be long enough to be useful as an HMAC key.
func InitSessionStore(sessionKey string) error {
	key := []byte(sessionKey)
	switch {
	case len(key) == 0:
		key = securecookie.GenerateRandomKey(32)
	case len(key) < 32:
		return errors.New("session key must be at least 32 characters long")
	}
	Store = sessions.NewCookieStore(key)
	Store.Options.HttpOnly = true
	Store.Options.Path = "/"
	Store.Options.SameSite = http.SameSiteLaxMode // Protect against CSRF
	return nil
}

func init() {
	gob.Register(&models.User{})
}

type contextKey string

// UserContextKey is where WithUser stores the current user.
const UserContextKey contextKey = "user"

// ProviderResolver returns the authentication provider registered under
// name, or nil. The plugin manager supplies this so that disabled provider
// plugins stop authenticating without a restart.
type ProviderResolver func(name string) Provider

// Service provides registration, login, and session handling.
type Service struct {
	Repo      *Repository
	providers ProviderResolver
}

// NewService creates a new authentication service. The resolver may be nil,
// in which case only the built-in local provider is available.
func NewService(repo *Repository, providers ProviderResolver) *Service {
	s := &Service{Repo: repo, providers: providers}
	if s.providers == nil {
		local := &LocalProvider{Repo: repo}
		s.providers = func(name string) Provider {
			if name == local.Name() {
				return local
			}
			return nil
		}
	}
	return s
}

// RegisterUser creates a new user with a local identity and the given
// roles.
func (s *Service) RegisterUser(username, displayName, email, password string, roles []string) (*models.User, error) {
	if username == "" {
		return nil, wikierrors.Validation("username is required")
	}
	if _, err := s.Repo.FindUserByUsername(username); err == nil {
		return nil, wikierrors.Conflict("user already exists")
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if len(roles) == 0 {
		roles = []string{models.RoleReader}
	}

	user := &models.User{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
	}
	identity := &models.Identity{
		Provider:       "local",
		ProviderUserID: username,
		PasswordHash:   &passwordHash,
	}

	if err := s.Repo.CreateUser(user, identity, roles); err != nil {
		return nil, wikierrors.Internal("create user", err)
	}

	return s.Repo.FindUserByUsername(username)
}

// Login authenticates through the named provider and creates a session.
func (s *Service) Login(w http.ResponseWriter, r *http.Request, providerName string, creds Credentials) (*models.User, error) {
	if providerName == "" {
		providerName = "local"
	}
	provider := s.providers(providerName)
	if provider == nil {
		return nil, wikierrors.Unauthorized("authentication provider " + providerName + " is not enabled")
	}

	user, err := provider.Authenticate(r.Context(), creds)
	if err != nil {
		return nil, err
	}

	session, _ := Store.Get(r, sessionName)
	session.Values["user"] = user

	// Set the Secure flag from the request scheme or X-Forwarded-Proto,
	// which matters behind reverse proxies.
	session.Options.Secure = r.URL.Scheme == "https" || r.Header.Get("X-Forwarded-Proto") == "https"

	if err := session.Save(r, w); err != nil {
		return nil, wikierrors.Internal("save session", err)
	}
	return user, nil
}

// Logout destroys the user's session.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, sessionName)
	delete(session.Values, "user")
	session.Options.Secure = r.URL.Scheme == "https" || r.Header.Get("X-Forwarded-Proto") == "https"
	session.Save(r, w)
}

// GetCurrentUser returns the logged-in user, or nil.
func (s *Service) GetCurrentUser(r *http.Request) *models.User {
	session, _ := Store.Get(r, sessionName)
	if user, ok := session.Values["user"].(*models.User); ok {
		return user
	}
	return nil
}

// WithUser adds the current user to the request context.
func (s *Service) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.GetCurrentUser(r)
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the user placed by WithUser, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}
