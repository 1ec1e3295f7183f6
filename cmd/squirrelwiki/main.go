package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/cache"
	"squirrelwiki/internal/category"
	"squirrelwiki/internal/config"
	"squirrelwiki/internal/database"
	"squirrelwiki/internal/events"
	"squirrelwiki/internal/files"
	"squirrelwiki/internal/menu"
	"squirrelwiki/internal/models"
	"squirrelwiki/internal/page"
	"squirrelwiki/internal/plugin"
	"squirrelwiki/internal/render"
	"squirrelwiki/internal/search"
	"squirrelwiki/internal/search/sqlitefts"
	"squirrelwiki/internal/settings"
	"squirrelwiki/internal/tag"
	"squirrelwiki/internal/web"
)

// application wires the services together for the serve and admin
// commands.
type application struct {
	cfg config.Config
	log zerolog.Logger
	db  *sql.DB

	authRepo    *auth.Repository
	authService *auth.Service
	settings    *settings.Service
	pageRepo    *page.Repository
	pages       *page.Service
	categories  *category.Service
	tags        *tag.Service
	menus       *menu.Service
	files       *files.Service
	search      *search.Service
	plugins     *plugin.Manager
}

func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	db, err := database.New(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	bus := events.NewBus(log)
	c := cache.New(5 * time.Minute)
	cache.SubscribeInvalidation(bus, c)

	settingsService := settings.NewService(settings.NewRepository(db), c, bus)
	if r, err := settingsService.Get(ctx, settings.KeyPageCacheSeconds); err == nil {
		if secs, err := strconv.Atoi(r.Value); err == nil && secs > 0 {
			c.SetDefaultTTL(time.Duration(secs) * time.Second)
		}
	}

	authRepo := auth.NewRepository(db)
	pageRepo := page.NewRepository(db)

	registry := plugin.BuiltinRegistry(plugin.BuiltinDeps{
		DB:       db,
		AuthRepo: authRepo,
		Pages:    pageRepo,
		DataDir:  cfg.DataDir,
	})
	plugins := plugin.NewManager(registry, plugin.NewRepository(db), bus, log)
	if err := plugins.Sync(ctx); err != nil {
		return nil, fmt.Errorf("sync plugins: %w", err)
	}

	pipeline := render.NewPipeline(plugins.MarkupExtensions)
	pages := page.NewService(pageRepo, pipeline, c, bus, func() string {
		r, err := settingsService.Get(context.Background(), settings.KeyDefaultFormat)
		if err != nil {
			return models.FormatMarkdown
		}
		return r.Value
	})
	authService := auth.NewService(authRepo, plugins.AuthProvider)
	categories := category.NewService(category.NewRepository(db), pageRepo, c, bus)
	tags := tag.NewService(tag.NewRepository(db), bus)
	menus := menu.NewService(menu.NewRepository(db), c, bus)

	store, err := files.NewBlobStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	maxUpload, err := settingsService.Get(ctx, settings.KeyMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	maxBytes, err := strconv.ParseInt(maxUpload.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", settings.KeyMaxUploadBytes, err)
	}
	fileService := files.NewService(files.NewRepository(db), store, bus, maxBytes)

	searchService := search.NewService(plugins.SearchProvider, sqlitefts.New(db), pageRepo, log)
	searchService.Subscribe(bus)

	return &application{
		cfg:         cfg,
		log:         log,
		db:          db,
		authRepo:    authRepo,
		authService: authService,
		settings:    settingsService,
		pageRepo:    pageRepo,
		pages:       pages,
		categories:  categories,
		tags:        tags,
		menus:       menus,
		files:       fileService,
		search:      searchService,
		plugins:     plugins,
	}, nil
}

func (app *application) serve() error {
	if err := auth.InitSessionStore(app.cfg.SessionKey); err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	server := web.NewServer(web.Deps{
		Log:        app.log,
		Auth:       app.authService,
		Settings:   app.settings,
		Pages:      app.pages,
		PageRepo:   app.pageRepo,
		Categories: app.categories,
		Tags:       app.tags,
		Menus:      app.menus,
		Files:      app.files,
		Search:     app.search,
		Plugins:    app.plugins,
	})

	app.log.Info().Str("addr", app.cfg.Addr).Msg("starting server")
	return http.ListenAndServe(app.cfg.Addr, server)
}

func main() {
	root := &cobra.Command{
		Use:           "squirrelwiki",
		Short:         "A wiki with versioned pages, pluggable search, and deduplicated uploads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			return app.serve()
		},
	}

	root.AddCommand(serveCmd, adminCommand())
	root.RunE = serveCmd.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
