package controller

import (
	"net/http"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/settings"
	"squirrelwiki/internal/web/viewmodels"
)

// Settings provides the site configuration handlers. All routes are
// admin-only.
type Settings struct {
	Settings *settings.Service
	Log      zerolog.Logger
}

// Register registers the settings routes behind the admin wrapper.
func (s *Settings) Register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/settings", admin(http.HandlerFunc(s.list)))
	mux.Handle("GET /api/settings/{key}", admin(http.HandlerFunc(s.get)))
	mux.Handle("PUT /api/settings/{key}", admin(http.HandlerFunc(s.set)))
	mux.Handle("DELETE /api/settings/{key}", admin(http.HandlerFunc(s.unset)))
}

func (s *Settings) list(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.Settings.List(r.Context())
	if err != nil {
		writeError(s.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewSettings(resolved))
}

func (s *Settings) get(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.Settings.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(s.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.Setting{Key: resolved.Key, Value: resolved.Value, Source: resolved.Source})
}

type setSettingRequest struct {
	Value          string `json:"value"`
	EnvOverridable *bool  `json:"env_overridable,omitempty"`
}

func (s *Settings) set(w http.ResponseWriter, r *http.Request) {
	var req setSettingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(s.Log, w, err)
		return
	}
	overridable := true
	if req.EnvOverridable != nil {
		overridable = *req.EnvOverridable
	}
	if err := s.Settings.Set(r.Context(), r.PathValue("key"), req.Value, overridable); err != nil {
		writeError(s.Log, w, err)
		return
	}

	resolved, err := s.Settings.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(s.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.Setting{Key: resolved.Key, Value: resolved.Value, Source: resolved.Source})
}

func (s *Settings) unset(w http.ResponseWriter, r *http.Request) {
	if err := s.Settings.Unset(r.Context(), r.PathValue("key")); err != nil {
		writeError(s.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
