package controller

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/settings"
	"squirrelwiki/internal/web/viewmodels"
)

// Auth provides login, logout, and registration handlers.
type Auth struct {
	AuthService *auth.Service
	Settings    *settings.Service
	Log         zerolog.Logger
}

// Register registers the auth routes.
func (a *Auth) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", a.login)
	mux.HandleFunc("POST /api/logout", a.logout)
	mux.HandleFunc("POST /api/register", a.register)
	mux.HandleFunc("GET /api/me", a.me)
}

type loginRequest struct {
	Provider string `json:"provider,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
}

func (a *Auth) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.Log, w, err)
		return
	}

	creds := auth.Credentials{Username: req.Username, Password: req.Password, Token: req.Token}
	user, err := a.AuthService.Login(w, r, req.Provider, creds)
	if err != nil {
		writeError(a.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewUser(user))
}

func (a *Auth) logout(w http.ResponseWriter, r *http.Request) {
	a.AuthService.Logout(w, r)
	w.WriteHeader(http.StatusNoContent)
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
}

func (a *Auth) register(w http.ResponseWriter, r *http.Request) {
	allowed, err := a.Settings.Get(r.Context(), settings.KeyAllowRegistration)
	if err != nil {
		writeError(a.Log, w, err)
		return
	}
	if open, _ := strconv.ParseBool(allowed.Value); !open {
		writeError(a.Log, w, wikierrors.Forbidden("registration is disabled"))
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(a.Log, w, err)
		return
	}

	user, err := a.AuthService.RegisterUser(req.Username, req.DisplayName, req.Email, req.Password, nil)
	if err != nil {
		writeError(a.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewmodels.NewUser(user))
}

func (a *Auth) me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(a.Log, w, wikierrors.Unauthorized("not logged in"))
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewUser(user))
}
