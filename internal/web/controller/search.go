package controller

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/search"
	"squirrelwiki/internal/web/viewmodels"
)

// Search provides the query handler.
type Search struct {
	Search *search.Service
	Log    zerolog.Logger
}

// Register registers the search route.
func (s *Search) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", s.query)
}

func (s *Search) query(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := s.Search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(s.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider": s.Search.ActiveName(),
		"hits":     viewmodels.NewHits(hits),
	})
}
