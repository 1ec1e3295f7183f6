package controller

import (
	"net/http"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/menu"
	"squirrelwiki/internal/web/viewmodels"
)

// Menu provides navigation menu handlers.
type Menu struct {
	Menus *menu.Service
	Log   zerolog.Logger
}

// Register registers the menu routes.
func (m *Menu) Register(mux *http.ServeMux, editor func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/menus", m.list)
	mux.HandleFunc("GET /api/menus/{name}", m.get)

	mux.Handle("POST /api/menus", editor(http.HandlerFunc(m.create)))
	mux.Handle("DELETE /api/menus/{name}", editor(http.HandlerFunc(m.delete)))
	mux.Handle("POST /api/menus/{name}/items", editor(http.HandlerFunc(m.addItem)))
	mux.Handle("DELETE /api/menus/{name}/items/{id}", editor(http.HandlerFunc(m.removeItem)))
	mux.Handle("PUT /api/menus/{name}/order", editor(http.HandlerFunc(m.reorder)))
}

func (m *Menu) list(w http.ResponseWriter, r *http.Request) {
	menus, err := m.Menus.List()
	if err != nil {
		writeError(m.Log, w, err)
		return
	}
	out := make([]viewmodels.Menu, 0, len(menus))
	for _, mn := range menus {
		out = append(out, viewmodels.NewMenu(mn))
	}
	writeJSON(w, http.StatusOK, out)
}

func (m *Menu) get(w http.ResponseWriter, r *http.Request) {
	mn, err := m.Menus.Get(r.PathValue("name"))
	if err != nil {
		writeError(m.Log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewmodels.NewMenu(mn))
}

type createMenuRequest struct {
	Name string `json:"name"`
}

func (m *Menu) create(w http.ResponseWriter, r *http.Request) {
	var req createMenuRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(m.Log, w, err)
		return
	}
	mn, err := m.Menus.Create(r.Context(), req.Name)
	if err != nil {
		writeError(m.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewmodels.NewMenu(mn))
}

type addItemRequest struct {
	Label  string  `json:"label"`
	URL    *string `json:"url,omitempty"`
	PageID *int    `json:"page_id,omitempty"`
}

func (m *Menu) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(m.Log, w, err)
		return
	}
	item, err := m.Menus.AddItem(r.Context(), r.PathValue("name"), req.Label, req.URL, req.PageID)
	if err != nil {
		writeError(m.Log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewmodels.MenuItem{ID: item.ID, Label: item.Label, URL: item.URL, PageID: item.PageID})
}

func (m *Menu) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(m.Log, w, err)
		return
	}
	if err := m.Menus.RemoveItem(r.Context(), r.PathValue("name"), id); err != nil {
		writeError(m.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	Items []int `json:"items"`
}

func (m *Menu) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(m.Log, w, err)
		return
	}
	if err := m.Menus.Reorder(r.Context(), r.PathValue("name"), req.Items); err != nil {
		writeError(m.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (m *Menu) delete(w http.ResponseWriter, r *http.Request) {
	if err := m.Menus.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeError(m.Log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
