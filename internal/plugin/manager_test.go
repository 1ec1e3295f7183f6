package plugin

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/database"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/search"
)

type fakeAuth struct{ name string }

func (f fakeAuth) Name() string { return f.name }
func (f fakeAuth) Authenticate(ctx context.Context, creds auth.Credentials) (*models.User, error) {
	return nil, wikierrors.Unauthorized("not implemented")
}

type fakeSearch struct{ name string }

func (f fakeSearch) Name() string                                       { return f.name }
func (f fakeSearch) Index(ctx context.Context, doc search.Document) error { return nil }
func (f fakeSearch) Remove(ctx context.Context, id int) error             { return nil }
func (f fakeSearch) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	return nil, nil
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(Factory{
		Name: "local-auth", Kind: models.PluginKindAuth, Default: true,
		NewAuth: func(settings map[string]string) (auth.Provider, error) {
			return fakeAuth{name: "local"}, nil
		},
	})
	r.Register(Factory{
		Name: "fts", Kind: models.PluginKindSearch, Default: true,
		NewSearch: func(settings map[string]string) (search.Provider, error) {
			return fakeSearch{name: "fts"}, nil
		},
	})
	r.Register(Factory{
		Name: "alt-index", Kind: models.PluginKindSearch,
		NewSearch: func(settings map[string]string) (search.Provider, error) {
			return fakeSearch{name: "alt-index"}, nil
		},
	})
	r.Register(Factory{
		Name: "broken", Kind: models.PluginKindAuth,
		NewAuth: func(settings map[string]string) (auth.Provider, error) {
			return nil, wikierrors.Internal("boom", nil)
		},
	})
	return r
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	m := NewManager(testRegistry(), NewRepository(db), events.NewBus(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, m.Sync(context.Background()))
	return m
}

func TestSyncSeedsRegistryAndDefaults(t *testing.T) {
	m := newTestManager(t)

	plugins, err := m.List()
	require.NoError(t, err)
	require.Len(t, plugins, 4)

	states := make(map[string]string)
	for _, p := range plugins {
		states[p.Name] = p.State
	}
	assert.Equal(t, models.PluginStateEnabled, states["local-auth"])
	assert.Equal(t, models.PluginStateEnabled, states["fts"])
	assert.Equal(t, models.PluginStateRegistered, states["alt-index"])
	assert.Equal(t, models.PluginStateRegistered, states["broken"])

	// Defaults are live after sync.
	require.NotNil(t, m.AuthProvider("local"))
	require.NotNil(t, m.SearchProvider())
	assert.Equal(t, "fts", m.SearchProvider().Name())
}

func TestSyncIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Sync(context.Background()))

	plugins, err := m.List()
	require.NoError(t, err)
	assert.Len(t, plugins, 4)
}

func TestLifecycleTransitions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	// registered -> enabled skips installed and is rejected.
	err := m.Enable(ctx, "alt-index", "admin")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	require.NoError(t, m.Install(ctx, "alt-index", "admin"))

	// installed -> installed again is rejected.
	err = m.Install(ctx, "alt-index", "admin")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	require.NoError(t, m.Enable(ctx, "alt-index", "admin"))
	require.NoError(t, m.Disable(ctx, "alt-index", "admin"))
	require.NoError(t, m.Enable(ctx, "alt-index", "admin"))

	err = m.Install(ctx, "no-such-plugin", "admin")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeNotFound))
}

func TestEnablingSearchDisablesTheOther(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "alt-index", "admin"))
	require.NoError(t, m.Enable(ctx, "alt-index", "admin"))

	plugins, err := m.List()
	require.NoError(t, err)
	states := make(map[string]string)
	for _, p := range plugins {
		states[p.Name] = p.State
	}
	assert.Equal(t, models.PluginStateEnabled, states["alt-index"])
	assert.Equal(t, models.PluginStateDisabled, states["fts"])

	require.NotNil(t, m.SearchProvider())
	assert.Equal(t, "alt-index", m.SearchProvider().Name())
}

func TestDisableClearsActiveProvider(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Disable(ctx, "fts", "admin"))
	assert.Nil(t, m.SearchProvider())

	require.NoError(t, m.Disable(ctx, "local-auth", "admin"))
	assert.Nil(t, m.AuthProvider("local"))
}

func TestConfigureRequiresInstall(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	err := m.Configure(ctx, "alt-index", "path", "/tmp/x", "admin")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	require.NoError(t, m.Install(ctx, "alt-index", "admin"))
	require.NoError(t, m.Configure(ctx, "alt-index", "path", "/tmp/x", "admin"))

	err = m.Configure(ctx, "alt-index", "", "x", "admin")
	assert.True(t, wikierrors.Is(err, wikierrors.CodeValidation))

	settings, err := m.Settings("alt-index")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", settings["path"])

	// Re-configuring overwrites.
	require.NoError(t, m.Configure(ctx, "alt-index", "path", "/tmp/y", "admin"))
	settings, err = m.Settings("alt-index")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/y", settings["path"])
}

func TestAuditTrail(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "alt-index", "alice"))
	require.NoError(t, m.Enable(ctx, "alt-index", "alice"))
	require.NoError(t, m.Configure(ctx, "alt-index", "path", "/idx", "bob"))

	log, err := m.AuditLog("alt-index", 50)
	require.NoError(t, err)
	require.Len(t, log, 4, "register, install, enable, configure")

	// Newest first.
	assert.Equal(t, "configure", log[0].Action)
	assert.Equal(t, "bob", log[0].Actor)
	assert.Equal(t, "path=/idx", log[0].Detail)
	assert.Equal(t, models.PluginStateEnabled, log[1].Action)
	assert.Equal(t, "alice", log[1].Actor)
	assert.Equal(t, models.PluginStateInstalled, log[2].Action)
	assert.Equal(t, "register", log[3].Action)
	assert.Equal(t, "system", log[3].Actor)

	_, err = m.AuditLog("missing", 10)
	assert.True(t, wikierrors.Is(err, wikierrors.CodeNotFound))
}

func TestBrokenFactoryIsSkippedNotFatal(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Install(ctx, "broken", "admin"))
	require.NoError(t, m.Enable(ctx, "broken", "admin"))

	// The broken provider never joins the active set, but the working
	// one survives the rebuild.
	assert.Nil(t, m.AuthProvider("broken"))
	assert.NotNil(t, m.AuthProvider("local"))
}

// lockedIndex mimics a provider holding an exclusive resource, like a
// bbolt file lock: a second instance cannot be constructed until the
// first is closed.
type lockedIndex struct {
	held *bool
}

func (l *lockedIndex) Name() string                                         { return "locked-index" }
func (l *lockedIndex) Index(ctx context.Context, doc search.Document) error { return nil }
func (l *lockedIndex) Remove(ctx context.Context, id int) error             { return nil }
func (l *lockedIndex) Search(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	return nil, nil
}
func (l *lockedIndex) Close() error {
	*l.held = false
	return nil
}

func TestRebuildReleasesDisplacedProviders(t *testing.T) {
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	held := false
	r := NewRegistry()
	r.Register(Factory{
		Name: "locked-index", Kind: models.PluginKindSearch, Default: true,
		NewSearch: func(settings map[string]string) (search.Provider, error) {
			if held {
				return nil, wikierrors.Internal("index file is locked", nil)
			}
			held = true
			return &lockedIndex{held: &held}, nil
		},
	})
	r.Register(Factory{
		Name: "local-auth", Kind: models.PluginKindAuth, Default: true,
		NewAuth: func(settings map[string]string) (auth.Provider, error) {
			return fakeAuth{name: "local"}, nil
		},
	})

	m := NewManager(r, NewRepository(db), events.NewBus(zerolog.Nop()), zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, m.Sync(ctx))
	require.NotNil(t, m.SearchProvider())

	// An unrelated transition rebuilds the whole set; the displaced
	// instance must be closed first or its factory cannot reopen the
	// resource.
	require.NoError(t, m.Disable(ctx, "local-auth", "admin"))
	require.NotNil(t, m.SearchProvider())
	assert.Equal(t, "locked-index", m.SearchProvider().Name())

	require.NoError(t, m.Enable(ctx, "local-auth", "admin"))
	require.NotNil(t, m.SearchProvider())

	// Configure also rebuilds.
	require.NoError(t, m.Configure(ctx, "locked-index", "path", "/idx", "admin"))
	require.NotNil(t, m.SearchProvider())

	// Disabling the provider itself closes it for good.
	require.NoError(t, m.Disable(ctx, "locked-index", "admin"))
	assert.Nil(t, m.SearchProvider())
	assert.False(t, held)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	r.Register(Factory{Name: "once", Kind: models.PluginKindAuth})
	assert.Panics(t, func() {
		r.Register(Factory{Name: "once", Kind: models.PluginKindAuth})
	})
	assert.Equal(t, []string{"once"}, r.Names())
}
