package controller

import (
	"net/http"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/tag"
	"squirrelwiki/internal/web/viewmodels"
)

// Tag provides tag handlers.
type Tag struct {
	Tags *tag.Service
	Log  zerolog.Logger
}

// Register registers the tag routes.
func (t *Tag) Register(mux *http.ServeMux, editor func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/tags", t.list)
	mux.HandleFunc("GET /api/tags/{slug}/pages", t.pages)

	mux.Handle("PATCH /api/tags/{id}", editor(http.HandlerFunc(t.rename)))
	mux.Handle("DELETE /api/tags/{id}", editor(http.HandlerFunc(t.delete)))
}

func (t *Tag) list(w http.ResponseWriter, r *http.Request) {
	tags, err := t.Tags.List()
	if err != nil {
		writeError(t.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewTags(tags))
}

func (t *Tag) pages(w http.ResponseWriter, r *http.Request) {
	ids, err := t.Tags.PagesWithTag(r.PathValue("slug"))
	if err != nil {
		writeError(t.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"page_ids": ids})
}

type renameTagRequest struct {
	Name string `json:"name"`
}

func (t *Tag) rename(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(t.Log, w, err)
		return
	}
	var req renameTagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(t.Log, w, err)
		return
	}
	renamed, err := t.Tags.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(t.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.Tag{ID: renamed.ID, Slug: renamed.Slug, Name: renamed.Name})
}

func (t *Tag) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(t.Log, w, err)
		return
	}
	if err := t.Tags.Delete(r.Context(), id); err != nil {
		writeError(t.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
