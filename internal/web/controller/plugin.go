package controller

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/plugin"
	"squirrelwiki/internal/web/viewmodels"
)

// Plugin provides the plugin administration handlers. All routes are
// admin-only; the logged-in admin's username becomes the audit actor.
type Plugin struct {
	Plugins *plugin.Manager
	Log     zerolog.Logger
}

// Register registers the plugin routes behind the admin wrapper.
func (p *Plugin) Register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/plugins", admin(http.HandlerFunc(p.list)))
	mux.Handle("POST /api/plugins/{name}/install", admin(http.HandlerFunc(p.install)))
	mux.Handle("POST /api/plugins/{name}/enable", admin(http.HandlerFunc(p.enable)))
	mux.Handle("POST /api/plugins/{name}/disable", admin(http.HandlerFunc(p.disable)))
	mux.Handle("GET /api/plugins/{name}/settings", admin(http.HandlerFunc(p.settings)))
	mux.Handle("PUT /api/plugins/{name}/settings/{key}", admin(http.HandlerFunc(p.configure)))
	mux.Handle("GET /api/plugins/{name}/audit", admin(http.HandlerFunc(p.audit)))
}

func (p *Plugin) list(w http.ResponseWriter, r *http.Request) {
	plugins, err := p.Plugins.List()
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewPlugins(plugins))
}

func (p *Plugin) install(w http.ResponseWriter, r *http.Request) {
	if err := p.Plugins.Install(r.Context(), r.PathValue("name"), actor(r)); err != nil {
		writeError(p.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) enable(w http.ResponseWriter, r *http.Request) {
	if err := p.Plugins.Enable(r.Context(), r.PathValue("name"), actor(r)); err != nil {
		writeError(p.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) disable(w http.ResponseWriter, r *http.Request) {
	if err := p.Plugins.Disable(r.Context(), r.PathValue("name"), actor(r)); err != nil {
		writeError(p.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := p.Plugins.Settings(r.PathValue("name"))
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type configureRequest struct {
	Value string `json:"value"`
}

func (p *Plugin) configure(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(p.Log, w, err)
		return
	}
	if err := p.Plugins.Configure(r.Context(), r.PathValue("name"), r.PathValue("key"), req.Value, actor(r)); err != nil {
		writeError(p.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) audit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	log, err := p.Plugins.AuditLog(r.PathValue("name"), limit)
	if err != nil {
		writeError(p.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewAuditEntries(log))
}

func actor(r *http.Request) string {
	if user := auth.UserFromContext(r.Context()); user != nil {
		return user.Username
	}
	return "unknown"
}
