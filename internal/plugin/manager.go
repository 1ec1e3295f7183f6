package plugin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/render"
	"squirrelwiki/internal/search"
)

// Manager drives the plugin lifecycle state machine and resolves the
// active provider set for auth, search, and the render pipeline.
//
// Lifecycle: registered -> installed -> enabled <-> disabled. Configure
// is allowed from installed onward.
type Manager struct {
	registry *Registry
	repo     *Repository
	bus      *events.Bus
	log      zerolog.Logger

	mu            sync.RWMutex
	authProviders map[string]auth.Provider
	searchActive  search.Provider
	markupPre     []render.PreProcessor
	markupPost    []render.PostProcessor
}

// NewManager creates a manager over the given registry and storage.
func NewManager(registry *Registry, repo *Repository, bus *events.Bus, log zerolog.Logger) *Manager {
	return &Manager{
		registry:      registry,
		repo:          repo,
		bus:           bus,
		log:           log,
		authProviders: make(map[string]auth.Provider),
	}
}

// Sync reconciles the database with the compiled-in registry: unknown
// factories get a row, and factories marked Default are installed and
// enabled on first run. It then builds the active provider set.
func (m *Manager) Sync(ctx context.Context) error {
	for _, name := range m.registry.Names() {
		f, _ := m.registry.Get(name)
		_, err := m.repo.FindByName(name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return wikierrors.Internal("read plugin state", err)
		}

		p := models.Plugin{Name: f.Name, Kind: f.Kind, State: models.PluginStateRegistered, Description: f.Description}
		if err := m.repo.Create(&p); err != nil {
			return wikierrors.Internal("register plugin", err)
		}
		if err := m.repo.Audit(p.ID, "system", "register", ""); err != nil {
			return wikierrors.Internal("audit plugin", err)
		}

		if f.Default {
			if err := m.transition(ctx, &p, models.PluginStateInstalled, "system"); err != nil {
				return err
			}
			if err := m.transition(ctx, &p, models.PluginStateEnabled, "system"); err != nil {
				return err
			}
		}
	}
	return m.rebuild()
}

// List returns every known plugin row.
func (m *Manager) List() ([]models.Plugin, error) {
	plugins, err := m.repo.List()
	if err != nil {
		return nil, wikierrors.Internal("list plugins", err)
	}
	return plugins, nil
}

// Install moves a registered plugin to installed.
func (m *Manager) Install(ctx context.Context, name, actor string) error {
	return m.apply(ctx, name, actor, models.PluginStateInstalled)
}

// Enable moves an installed or disabled plugin to enabled. Enabling a
// search plugin disables any other enabled search plugin, since exactly
// one may be active.
func (m *Manager) Enable(ctx context.Context, name, actor string) error {
	p, err := m.find(name)
	if err != nil {
		return err
	}

	if p.Kind == models.PluginKindSearch {
		enabled, err := m.repo.ListByKindAndState(models.PluginKindSearch, models.PluginStateEnabled)
		if err != nil {
			return wikierrors.Internal("list search plugins", err)
		}
		for _, other := range enabled {
			if other.Name == name {
				continue
			}
			if err := m.transition(ctx, &other, models.PluginStateDisabled, actor); err != nil {
				return err
			}
		}
	}

	return m.apply(ctx, name, actor, models.PluginStateEnabled)
}

// Disable moves an enabled plugin to disabled.
func (m *Manager) Disable(ctx context.Context, name, actor string) error {
	return m.apply(ctx, name, actor, models.PluginStateDisabled)
}

// Configure sets one plugin setting. The plugin must be installed,
// enabled, or disabled; active providers are rebuilt so new settings take
// effect immediately.
func (m *Manager) Configure(ctx context.Context, name, key, value, actor string) error {
	p, err := m.find(name)
	if err != nil {
		return err
	}
	if p.State == models.PluginStateRegistered {
		return wikierrors.Validation("plugin " + name + " must be installed before it can be configured")
	}
	if key == "" {
		return wikierrors.Validation("setting key is required")
	}

	if err := m.repo.SetSetting(p.ID, key, value); err != nil {
		return wikierrors.Internal("write plugin setting", err)
	}
	if err := m.repo.Audit(p.ID, actor, "configure", key+"="+value); err != nil {
		return wikierrors.Internal("audit plugin", err)
	}

	m.bus.Publish(ctx, events.Event{Name: events.PluginStateChanged, ID: p.ID, Key: p.Name})
	return m.rebuild()
}

// Settings returns a plugin's configuration.
func (m *Manager) Settings(name string) (map[string]string, error) {
	p, err := m.find(name)
	if err != nil {
		return nil, err
	}
	settings, err := m.repo.Settings(p.ID)
	if err != nil {
		return nil, wikierrors.Internal("read plugin settings", err)
	}
	return settings, nil
}

// AuditLog returns a plugin's audit trail, newest first.
func (m *Manager) AuditLog(name string, limit int) ([]models.PluginAuditLog, error) {
	p, err := m.find(name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	log, err := m.repo.AuditLog(p.ID, limit)
	if err != nil {
		return nil, wikierrors.Internal("read plugin audit log", err)
	}
	return log, nil
}

// AuthProvider resolves an enabled authentication provider by name. Used
// by the auth service as its ProviderResolver.
func (m *Manager) AuthProvider(name string) auth.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authProviders[name]
}

// SearchProvider resolves the enabled search provider, or nil. Used by
// the search service as its ProviderResolver.
func (m *Manager) SearchProvider() search.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchActive
}

// MarkupExtensions resolves the active render processors. Used as the
// pipeline's ExtensionResolver.
func (m *Manager) MarkupExtensions() ([]render.PreProcessor, []render.PostProcessor) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.markupPre, m.markupPost
}

var validTransitions = map[string]map[string]bool{
	models.PluginStateRegistered: {models.PluginStateInstalled: true},
	models.PluginStateInstalled:  {models.PluginStateEnabled: true},
	models.PluginStateEnabled:    {models.PluginStateDisabled: true},
	models.PluginStateDisabled:   {models.PluginStateEnabled: true},
}

func (m *Manager) apply(ctx context.Context, name, actor, target string) error {
	p, err := m.find(name)
	if err != nil {
		return err
	}
	if err := m.transition(ctx, &p, target, actor); err != nil {
		return err
	}
	return m.rebuild()
}

func (m *Manager) transition(ctx context.Context, p *models.Plugin, target, actor string) error {
	if !validTransitions[p.State][target] {
		return wikierrors.Validation(fmt.Sprintf("plugin %s cannot go from %s to %s", p.Name, p.State, target))
	}
	if err := m.repo.SetState(p.ID, target); err != nil {
		return wikierrors.Internal("update plugin state", err)
	}
	if err := m.repo.Audit(p.ID, actor, target, "from "+p.State); err != nil {
		return wikierrors.Internal("audit plugin", err)
	}
	p.State = target

	m.bus.Publish(ctx, events.Event{Name: events.PluginStateChanged, ID: p.ID, Key: p.Name})
	return nil
}

func (m *Manager) find(name string) (models.Plugin, error) {
	p, err := m.repo.FindByName(name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Plugin{}, wikierrors.NotFound("plugin " + name)
		}
		return models.Plugin{}, wikierrors.Internal("read plugin state", err)
	}
	return p, nil
}

// rebuild reconstructs the active provider set from enabled plugin rows.
// Displaced providers holding resources are closed first, so a factory
// can reopen what its previous instance held (bolt-index keeps an
// exclusive file lock). A factory that fails to construct is logged and
// skipped rather than taking the whole set down.
func (m *Manager) rebuild() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	closeProvider(m.searchActive)
	for _, p := range m.authProviders {
		closeProvider(p)
	}
	for _, p := range m.markupPre {
		closeProvider(p)
	}
	for _, p := range m.markupPost {
		closeProvider(p)
	}
	m.authProviders = make(map[string]auth.Provider)
	m.searchActive = nil
	m.markupPre = nil
	m.markupPost = nil

	authProviders := make(map[string]auth.Provider)
	var searchActive search.Provider
	var pre []render.PreProcessor
	var post []render.PostProcessor

	for _, kind := range []string{models.PluginKindAuth, models.PluginKindSearch, models.PluginKindMarkup} {
		enabled, err := m.repo.ListByKindAndState(kind, models.PluginStateEnabled)
		if err != nil {
			return wikierrors.Internal("list enabled plugins", err)
		}
		for _, p := range enabled {
			factory, ok := m.registry.Get(p.Name)
			if !ok {
				m.log.Warn().Str("plugin", p.Name).Msg("enabled plugin has no compiled-in factory")
				continue
			}
			settings, err := m.repo.Settings(p.ID)
			if err != nil {
				return wikierrors.Internal("read plugin settings", err)
			}

			switch kind {
			case models.PluginKindAuth:
				provider, err := factory.NewAuth(settings)
				if err != nil {
					m.log.Error().Err(err).Str("plugin", p.Name).Msg("auth plugin construction failed")
					continue
				}
				authProviders[provider.Name()] = provider
			case models.PluginKindSearch:
				provider, err := factory.NewSearch(settings)
				if err != nil {
					m.log.Error().Err(err).Str("plugin", p.Name).Msg("search plugin construction failed")
					continue
				}
				searchActive = provider
			case models.PluginKindMarkup:
				ext, err := factory.NewMarkup(settings)
				if err != nil {
					m.log.Error().Err(err).Str("plugin", p.Name).Msg("markup plugin construction failed")
					continue
				}
				if ext.Pre != nil {
					pre = append(pre, ext.Pre)
				}
				if ext.Post != nil {
					post = append(post, ext.Post)
				}
			}
		}
	}

	m.authProviders = authProviders
	m.searchActive = searchActive
	m.markupPre = pre
	m.markupPost = post
	return nil
}

// closeProvider releases a displaced provider's resources, if it holds
// any.
func closeProvider(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}
