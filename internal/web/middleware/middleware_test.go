package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"squirrelwiki/internal/auth"
	"squirrelwiki/internal/models"
)

func requestWithUser(user *models.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/pages", nil)
	if user != nil {
		r = r.WithContext(context.WithValue(r.Context(), auth.UserContextKey, user))
	}
	return r
}

func okHandler() (http.Handler, *bool) {
	called := new(bool)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusNoContent)
	}), called
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

func TestRequireRoleRejectsAnonymous(t *testing.T) {
	handler, called := okHandler()
	wrapped := RequireRole(models.RoleEditor)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, requestWithUser(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
	assert.NotEmpty(t, errorCode(t, rec.Body.Bytes()))
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	handler, called := okHandler()
	wrapped := RequireRole(models.RoleEditor)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, requestWithUser(&models.User{ID: 1, Username: "reader", Roles: []string{models.RoleReader}}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, *called)
}

func TestRequireRolePassesMatchingRole(t *testing.T) {
	handler, called := okHandler()
	wrapped := RequireRole(models.RoleEditor)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, requestWithUser(&models.User{ID: 1, Username: "ed", Roles: []string{models.RoleEditor}}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, *called)
}

func TestRequireRoleAdminPassesEveryCheck(t *testing.T) {
	handler, called := okHandler()
	wrapped := RequireRole(models.RoleEditor)(handler)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, requestWithUser(&models.User{ID: 1, Username: "root", Roles: []string{models.RoleAdmin}}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, *called)
}

func TestRecoverTurnsPanicInto500(t *testing.T) {
	wrapped := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestLoggerPreservesStatus(t *testing.T) {
	wrapped := Logger(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tea", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
