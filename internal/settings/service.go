// Package settings resolves site configuration with the priority
// environment variable > database row > coded default.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sort"
	"strings"

	"squirrelwiki/internal/cache"
	"squirrelwiki/internal/events"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

// EnvPrefix is prepended to the transformed key when looking up the
// environment layer: "site.title" -> SQUIRRELWIKI_SETTING_SITE_TITLE.
const EnvPrefix = "SQUIRRELWIKI_SETTING_"

// Keys with coded defaults.
const (
	KeySiteTitle         = "site.title"
	KeySiteDescription   = "site.description"
	KeyDefaultFormat     = "pages.default_format"
	KeyAllowRegistration = "auth.allow_registration"
	KeyMaxUploadBytes    = "files.max_upload_bytes"
	KeyPageCacheSeconds  = "pages.cache_seconds"
)

var defaults = map[string]string{
	KeySiteTitle:         "SquirrelWiki",
	KeySiteDescription:   "",
	KeyDefaultFormat:     models.FormatMarkdown,
	KeyAllowRegistration: "true",
	KeyMaxUploadBytes:    "10485760",
	KeyPageCacheSeconds:  "300",
}

// Resolved is a setting together with the layer it came from.
type Resolved struct {
	Key    string
	Value  string
	Source string
}

// Service resolves and mutates site configuration.
type Service struct {
	repo  *Repository
	cache *cache.Cache
	bus   *events.Bus

	// lookupEnv is swappable for tests.
	lookupEnv func(string) (string, bool)
}

// NewService creates a settings service.
func NewService(repo *Repository, c *cache.Cache, bus *events.Bus) *Service {
	return &Service{repo: repo, cache: c, bus: bus, lookupEnv: os.LookupEnv}
}

// EnvName returns the environment variable shadowing key.
func EnvName(key string) string {
	name := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	return EnvPrefix + strings.ToUpper(name)
}

// Get resolves key through env > database > default.
func (s *Service) Get(ctx context.Context, key string) (Resolved, error) {
	if v, ok := s.cache.Get(cache.PrefixSetting + key); ok {
		return v.(Resolved), nil
	}

	r, err := s.resolve(key)
	if err != nil {
		return Resolved{}, err
	}
	s.cache.Set(cache.PrefixSetting+key, r)
	return r, nil
}

func (s *Service) resolve(key string) (Resolved, error) {
	stored, err := s.repo.Get(key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Resolved{}, wikierrors.Internal("read setting", err)
	}

	overridable := true
	if stored != nil {
		overridable = stored.EnvOverridable
	}
	if overridable {
		if v, ok := s.lookupEnv(EnvName(key)); ok {
			return Resolved{Key: key, Value: v, Source: models.SettingSourceEnv}, nil
		}
	}
	if stored != nil {
		return Resolved{Key: key, Value: stored.Value, Source: models.SettingSourceDatabase}, nil
	}
	if def, ok := defaults[key]; ok {
		return Resolved{Key: key, Value: def, Source: models.SettingSourceDefault}, nil
	}
	return Resolved{}, wikierrors.NotFound("setting " + key)
}

// Set writes the database layer and publishes a change event. An env
// override, if present, keeps shadowing the new value.
func (s *Service) Set(ctx context.Context, key, value string, envOverridable bool) error {
	if strings.TrimSpace(key) == "" {
		return wikierrors.Validation("setting key is required")
	}
	if err := s.repo.Set(key, value, envOverridable); err != nil {
		return wikierrors.Internal("write setting", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.SettingChanged, Key: key})
	return nil
}

// Unset removes the database layer for key.
func (s *Service) Unset(ctx context.Context, key string) error {
	if err := s.repo.Delete(key); err != nil {
		return wikierrors.Internal("delete setting", err)
	}
	s.bus.Publish(ctx, events.Event{Name: events.SettingChanged, Key: key})
	return nil
}

// List reports the effective value and source for every known key: all
// coded defaults plus any ad-hoc database rows.
func (s *Service) List(ctx context.Context) ([]Resolved, error) {
	stored, err := s.repo.List()
	if err != nil {
		return nil, wikierrors.Internal("list settings", err)
	}

	seen := make(map[string]bool)
	var keys []string
	for k := range defaults {
		keys = append(keys, k)
		seen[k] = true
	}
	for _, row := range stored {
		if !seen[row.Key] {
			keys = append(keys, row.Key)
		}
	}
	sort.Strings(keys)

	out := make([]Resolved, 0, len(keys))
	for _, k := range keys {
		r, err := s.resolve(k)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
