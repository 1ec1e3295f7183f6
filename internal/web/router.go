package web

import (
	"net/http"

	"squirrelwiki/internal/models"
	"squirrelwiki/internal/web/controller"
	"squirrelwiki/internal/web/middleware"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	editor := middleware.RequireRole(models.RoleEditor)
	admin := middleware.RequireRole(models.RoleAdmin)

	authController := controller.Auth{AuthService: s.deps.Auth, Settings: s.deps.Settings, Log: s.deps.Log}
	authController.Register(mux)

	pageController := controller.Page{Pages: s.deps.Pages, Tags: s.deps.Tags, Log: s.deps.Log}
	pageController.Register(mux, editor)

	categoryController := controller.Category{Categories: s.deps.Categories, Pages: s.deps.PageRepo, Log: s.deps.Log}
	categoryController.Register(mux, editor)

	tagController := controller.Tag{Tags: s.deps.Tags, Log: s.deps.Log}
	tagController.Register(mux, editor)

	menuController := controller.Menu{Menus: s.deps.Menus, Log: s.deps.Log}
	menuController.Register(mux, editor)

	filesController := controller.Files{Files: s.deps.Files, Log: s.deps.Log}
	filesController.Register(mux, editor)

	searchController := controller.Search{Search: s.deps.Search, Log: s.deps.Log}
	searchController.Register(mux)

	settingsController := controller.Settings{Settings: s.deps.Settings, Log: s.deps.Log}
	settingsController.Register(mux, admin)

	pluginController := controller.Plugin{Plugins: s.deps.Plugins, Log: s.deps.Log}
	pluginController.Register(mux, admin)

	handler := middleware.WithUser(s.deps.Auth)(mux)
	handler = middleware.Logger(s.deps.Log)(handler)
	return middleware.Recover(s.deps.Log)(handler)
}
