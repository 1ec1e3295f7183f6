package controller

import (
	"net/http"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/category"
	"squirrelwiki/internal/page"
	"squirrelwiki/internal/web/viewmodels"
)

// Category provides category tree handlers.
type Category struct {
	Categories *category.Service
	Pages      *page.Repository
	Log        zerolog.Logger
}

// Register registers the category routes.
func (c *Category) Register(mux *http.ServeMux, editor func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/categories", c.tree)
	mux.HandleFunc("GET /api/categories/{id}/pages", c.pages)

	mux.Handle("POST /api/categories", editor(http.HandlerFunc(c.create)))
	mux.Handle("PATCH /api/categories/{id}", editor(http.HandlerFunc(c.update)))
	mux.Handle("POST /api/categories/{id}/move", editor(http.HandlerFunc(c.move)))
	mux.Handle("DELETE /api/categories/{id}", editor(http.HandlerFunc(c.delete)))
}

func (c *Category) tree(w http.ResponseWriter, r *http.Request) {
	tree, err := c.Categories.Tree()
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewCategoryTree(tree))
}

func (c *Category) pages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	pages, err := c.Pages.ListByCategory(id)
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	out := make([]viewmodels.Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, viewmodels.NewPage(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type createCategoryRequest struct {
	ParentID    *int   `json:"parent_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c *Category) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(c.Log, w, err)
		return
	}
	cat, err := c.Categories.Create(r.Context(), req.ParentID, req.Name, req.Description)
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewmodels.NewCategory(cat))
}

type updateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c *Category) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(c.Log, w, err)
		return
	}
	cat, err := c.Categories.Update(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewCategory(cat))
}

type moveCategoryRequest struct {
	ParentID *int `json:"parent_id"`
}

func (c *Category) move(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	var req moveCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(c.Log, w, err)
		return
	}
	cat, err := c.Categories.Move(r.Context(), id, req.ParentID)
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewCategory(cat))
}

func (c *Category) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(c.Log, w, err)
		return
	}
	if err := c.Categories.Delete(r.Context(), id); err != nil {
		writeError(c.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
