// Package web assembles the HTTP API on top of the domain services.
package web

import (
	"net/http"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/category"
	"squirrelwiki/internal/files"
	"squirrelwiki/internal/menu"
	"squirrelwiki/internal/page"
	"squirrelwiki/internal/plugin"
	"squirrelwiki/internal/search"
	"squirrelwiki/internal/settings"
	"squirrelwiki/internal/tag"
)

// Deps holds the services the server routes to.
type Deps struct {
	Log        zerolog.Logger
	Auth       *auth.Service
	Settings   *settings.Service
	Pages      *page.Service
	PageRepo   *page.Repository
	Categories *category.Service
	Tags       *tag.Service
	Menus      *menu.Service
	Files      *files.Service
	Search     *search.Service
	Plugins    *plugin.Manager
}

// Server holds the dependencies for the web server.
type Server struct {
	deps Deps
}

// NewServer creates a new server with the given dependencies.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}
