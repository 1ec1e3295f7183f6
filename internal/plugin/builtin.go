package plugin

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"

	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/render"
	"squirrelwiki/internal/search"
	"squirrelwiki/internal/search/boltindex"
	"squirrelwiki/internal/search/sqlitefts"
)

// BuiltinDeps carries what the compiled-in factories close over.
type BuiltinDeps struct {
	DB       *sql.DB
	AuthRepo *auth.Repository
	Pages    render.PageResolver
	// DataDir hosts the bolt search index unless the plugin's "path"
	// setting overrides it.
	DataDir string
}

// BuiltinRegistry assembles the factories shipped with the binary.
func BuiltinRegistry(deps BuiltinDeps) *Registry {
	r := NewRegistry()

	r.Register(Factory{
		Name:        "local-auth",
		Kind:        models.PluginKindAuth,
		Description: "Username and password authentication against local identities",
		Default:     true,
		NewAuth: func(settings map[string]string) (auth.Provider, error) {
			return &auth.LocalProvider{Repo: deps.AuthRepo}, nil
		},
	})

	r.Register(Factory{
		Name:        "token-auth",
		Kind:        models.PluginKindAuth,
		Description: "Bearer token authentication for externally issued HS256 JWTs",
		NewAuth: func(settings map[string]string) (auth.Provider, error) {
			secret := settings["secret"]
			if len(secret) < 32 {
				return nil, fmt.Errorf("token-auth needs a secret of at least 32 characters")
			}
			return &auth.TokenProvider{
				Repo:   deps.AuthRepo,
				Secret: []byte(secret),
				Issuer: settings["issuer"],
			}, nil
		},
	})

	r.Register(Factory{
		Name:        sqlitefts.ProviderName,
		Kind:        models.PluginKindSearch,
		Description: "Full-text page search over the built-in SQLite FTS5 index",
		Default:     true,
		NewSearch: func(settings map[string]string) (search.Provider, error) {
			return sqlitefts.New(deps.DB), nil
		},
	})

	r.Register(Factory{
		Name:        boltindex.ProviderName,
		Kind:        models.PluginKindSearch,
		Description: "Page search over an inverted index in a separate BoltDB file",
		NewSearch: func(settings map[string]string) (search.Provider, error) {
			path := settings["path"]
			if path == "" {
				path = filepath.Join(deps.DataDir, "search.db")
			}
			return boltindex.Open(path)
		},
	})

	r.Register(Factory{
		Name:        "wikilinks",
		Kind:        models.PluginKindMarkup,
		Description: "Rewrites [[Page Title]] markup into site links",
		Default:     true,
		NewMarkup: func(settings map[string]string) (MarkupExtension, error) {
			basePath := settings["base_path"]
			if basePath == "" {
				basePath = "/wiki"
			}
			return MarkupExtension{Pre: render.NewWikiLinks(deps.Pages, basePath)}, nil
		},
	})

	r.Register(Factory{
		Name:        "toc",
		Kind:        models.PluginKindMarkup,
		Description: "Replaces a <!--toc--> marker with a table of contents",
		Default:     true,
		NewMarkup: func(settings map[string]string) (MarkupExtension, error) {
			min := 1
			if raw := settings["min_headings"]; raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 1 {
					return MarkupExtension{}, fmt.Errorf("min_headings must be a positive integer")
				}
				min = parsed
			}
			return MarkupExtension{Post: render.NewTOC(min)}, nil
		},
	})

	r.Register(Factory{
		Name:        "code-highlight",
		Kind:        models.PluginKindMarkup,
		Description: "Highlights fenced code blocks with chroma",
		Default:     true,
		NewMarkup: func(settings map[string]string) (MarkupExtension, error) {
			return MarkupExtension{Post: render.NewCodeBlocks()}, nil
		},
	})

	return r
}
