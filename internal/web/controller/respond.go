// Package controller implements the JSON API handlers.
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	wikierrors "squirrelwiki/internal/errors"
)

type errorBody struct {
	Code    wikierrors.Code `json:"code"`
	Message string          `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an application error to the JSON error envelope.
// Client errors pass through silently; server-side failures get logged.
func writeError(log zerolog.Logger, w http.ResponseWriter, err error) {
	if wikierrors.ShouldLog(err) {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, wikierrors.HTTPStatus(err), errorEnvelope{
		Error: errorBody{Code: wikierrors.CodeOf(err), Message: wikierrors.PublicMessage(err)},
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return wikierrors.Validation("invalid request body")
	}
	return nil
}
